package ingest

import (
	"reflect"
	"testing"
)

type stopSet map[string]struct{}

func (s stopSet) IsStop(token string) bool {
	_, ok := s[token]
	return ok
}

func TestTokenizerWords(t *testing.T) {
	tok := NewTokenizer(nil)

	got := tok.Words("Машинное обучение, нейро-сети и --GPT-4--!")
	want := []string{"машинное", "обучение", "нейро-сети", "и", "gpt-4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words = %v, want %v", got, want)
	}
}

func TestTokenizerTokenizeDropsStopsAndNumbers(t *testing.T) {
	tok := NewTokenizer(stopSet{"и": {}, "в": {}})

	got := tok.Tokenize("Данные и модели в 2024 году")
	want := []string{"данные", "модели", "году"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizerIsStopCaseInsensitive(t *testing.T) {
	tok := NewTokenizer(stopSet{"и": {}})
	if !tok.IsStop("И") {
		t.Error("upper-case stop word should match")
	}
	if NewTokenizer(nil).IsStop("и") {
		t.Error("nil stop checker should keep every token")
	}
}

func TestIsAlpha(t *testing.T) {
	cases := map[string]bool{
		"слово": true,
		"word":  true,
		"12":    false,
		"a-b":   false,
		"":      false,
	}
	for in, want := range cases {
		if got := IsAlpha(in); got != want {
			t.Errorf("IsAlpha(%q) = %v, want %v", in, got, want)
		}
	}
}
