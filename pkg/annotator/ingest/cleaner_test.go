package ingest

import (
	"strings"
	"testing"
)

func TestCleanerBasic(t *testing.T) {
	c := NewCleaner()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"lowercases", "Проект ИИ", "проект ии"},
		{"collapses whitespace", "один   два\n\tтри", "один два три"},
		{"strips html", "<p>Текст <b>жирный</b></p>", "текст жирный"},
		{"strips email", "пишите ivan@mail.ru сюда", "пишите сюда"},
		{"strips url", "см. https://github.com/org/repo тут", "см. тут"},
		{"strips page marker", "Начало Страница 12 конец", "начало конец"},
		{"strips english page marker", "начало Page 3 конец", "начало конец"},
		{"drops latin", "модель BERT обучена", "модель обучена"},
		{"keeps punctuation", "итог: да, нет (может быть)!", "итог: да, нет (может быть)!"},
		{"keeps digits", "курс 3, группа 12-а", "курс 3, группа 12-а"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanerIdempotent(t *testing.T) {
	c := NewCleaner()

	inputs := []string{
		"Обычный текст. Второе предложение!",
		"<div>Страница 1</div> страница страница 2 3",
		"страницаx5 хвост",
		"&lt;b&gt;жирный&lt;/b&gt; и &amp; амперсанд",
		"Mixed Латиница and Кириллица 42",
		"e-mail: a@b.c, сайт http://x.y/z?q=1",
		" неразрывный пробел\vвертикальный",
		"<<<>>> < a > <ПРОЕКТ>",
		"СТРАНИЦА 7 Page 8 страница\n9",
		"ЁЛКА ёжик",
		strings.Repeat("слово ", 50),
	}

	for _, in := range inputs {
		once := c.Clean(in)
		twice := c.Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCleanerTotal(t *testing.T) {
	c := NewCleaner()

	inputs := []string{
		"\x00\x01\x02",
		string([]byte{0xff, 0xfe, 0xfd}),
		"<script>alert(1)</script>",
		"<!-- comment --><",
		"<",
		">",
	}

	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Clean(%q) panicked: %v", in, r)
				}
			}()
			_ = c.Clean(in)
		}()
	}
}
