package nlp

import (
	"strings"
	"testing"
)

type stopSet map[string]bool

func (s stopSet) IsStop(token string) bool { return s[token] }

func TestSnowballLemmatizerDropsStopsAndNonAlpha(t *testing.T) {
	l := NewSnowballLemmatizer(stopSet{"и": true, "the": true})

	got := l.Lemmatise("Системы и модели 2024 the networks")
	words := strings.Fields(got)
	if len(words) != 3 {
		t.Fatalf("expected 3 lemmas, got %q", got)
	}
	for _, w := range words {
		if w == "и" || w == "the" || w == "2024" {
			t.Errorf("unexpected lemma %q in %q", w, got)
		}
	}
}

func TestSnowballLemmatizerConflatesInflections(t *testing.T) {
	l := NewSnowballLemmatizer(nil)

	pairs := [][2]string{
		{"система", "системы"},
		{"модель", "модели"},
		{"network", "networks"},
	}
	for _, p := range pairs {
		if a, b := l.Lemma(p[0]), l.Lemma(p[1]); a != b {
			t.Errorf("Lemma(%q)=%q and Lemma(%q)=%q should match", p[0], a, p[1], b)
		}
	}
}

func TestSnowballLemmatizerSplitsHyphens(t *testing.T) {
	l := NewSnowballLemmatizer(nil)
	if got := strings.Fields(l.Lemmatise("веб-сервис")); len(got) != 2 {
		t.Errorf("hyphenated word should yield two lemmas, got %v", got)
	}
}

func TestSnowballLemmatizerEmpty(t *testing.T) {
	if got := NewSnowballLemmatizer(nil).Lemmatise("  "); got != "" {
		t.Errorf("expected empty lemma string, got %q", got)
	}
}
