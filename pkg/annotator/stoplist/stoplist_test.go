package stoplist

import (
	"sort"
	"testing"
)

func TestNewManager(t *testing.T) {
	m := NewManager([]string{"И", " в ", ""})

	if !m.IsStop("и") || !m.IsStop("в") {
		t.Error("terms should be normalized to lower case and trimmed")
	}
	if m.Len() != 2 {
		t.Errorf("blank terms should be ignored, got %d stops", m.Len())
	}
}

func TestDefaultContainsRussianAndEnglish(t *testing.T) {
	m := Default()

	for _, w := range []string{"и", "что", "между", "the", "and"} {
		if !m.IsStop(w) {
			t.Errorf("expected %q to be a default stop word", w)
		}
	}
	for _, w := range []string{"нейросеть", "модель", "keyword"} {
		if m.IsStop(w) {
			t.Errorf("%q should not be a stop word", w)
		}
	}
}

func TestAddRemove(t *testing.T) {
	m := NewManager(nil)

	m.Add("Слово")
	if !m.IsStop("слово") {
		t.Fatal("added term should be a stop word")
	}

	m.Remove("СЛОВО")
	if m.IsStop("слово") {
		t.Error("removed term should not be a stop word")
	}
}

func TestAll(t *testing.T) {
	m := NewManager([]string{"б", "а"})
	all := m.All()
	sort.Strings(all)
	if len(all) != 2 || all[0] != "а" || all[1] != "б" {
		t.Errorf("unexpected All() = %v", all)
	}
}

func TestGenericTerms(t *testing.T) {
	terms := GenericTerms()
	if len(terms) == 0 {
		t.Fatal("expected built-in generic terms")
	}
	found := false
	for _, term := range terms {
		if term == "проект" {
			found = true
		}
	}
	if !found {
		t.Error("generic terms should include проект")
	}
}

func TestLinesSkipsCommentsAndBlanks(t *testing.T) {
	got := Lines("# header\nодин\n\n  два  \n")
	if len(got) != 2 || got[0] != "один" || got[1] != "два" {
		t.Errorf("Lines = %v", got)
	}
}
