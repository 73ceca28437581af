package keywords

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/cognicore/annotator/pkg/annotator/ingest"
)

// Yake is an unsupervised keyword extractor driven by document statistics:
// term casing, position, frequency, context spread and sentence spread.
// Lower scores are better.
type Yake struct {
	stops  ingest.StopChecker
	maxN   int
	window int
}

// NewYake creates an extractor for n-grams of up to three words.
func NewYake(stops ingest.StopChecker) *Yake {
	return &Yake{stops: stops, maxN: 3, window: 1}
}

type yakeTerm struct {
	tf        int
	upper     int
	acronym   int
	sentences map[int]bool
	left      map[string]bool
	right     map[string]bool
	leftN     int
	rightN    int
	score     float64
}

type yakeWord struct {
	text  string
	lower string
	stop  bool
}

// Extract returns up to topN keyword phrases of text, best first.
func (y *Yake) Extract(text string, topN int) []string {
	sentences := y.sentenceWords(text)
	terms := map[string]*yakeTerm{}
	var order []string

	for si, words := range sentences {
		for wi, w := range words {
			t, ok := terms[w.lower]
			if !ok {
				t = &yakeTerm{sentences: map[int]bool{}, left: map[string]bool{}, right: map[string]bool{}}
				terms[w.lower] = t
				order = append(order, w.lower)
			}
			t.tf++
			t.sentences[si] = true
			if isAcronym(w.text) {
				t.acronym++
			} else if startsUpper(w.text) && wi > 0 {
				t.upper++
			}
			for k := 1; k <= y.window; k++ {
				if wi-k >= 0 && !words[wi-k].stop {
					t.left[words[wi-k].lower] = true
					t.leftN++
				}
				if wi+k < len(words) && !words[wi+k].stop {
					t.right[words[wi+k].lower] = true
					t.rightN++
				}
			}
		}
	}
	if len(terms) == 0 {
		return nil
	}

	y.scoreTerms(terms, order, sentences)

	type candidate struct {
		phrase string
		score  float64
	}
	var cands []candidate
	counts := map[string]int{}
	var phraseOrder []string
	words := map[string][]yakeWord{}

	for _, sent := range sentences {
		for i := range sent {
			for n := 1; n <= y.maxN && i+n <= len(sent); n++ {
				gram := sent[i : i+n]
				if gram[0].stop || gram[n-1].stop {
					continue
				}
				key := joinLower(gram)
				if counts[key] == 0 {
					phraseOrder = append(phraseOrder, key)
					words[key] = gram
				}
				counts[key]++
			}
		}
	}

	for _, key := range phraseOrder {
		prod, sum := 1.0, 0.0
		for _, w := range words[key] {
			if w.stop {
				continue
			}
			s := terms[w.lower].score
			prod *= s
			sum += s
		}
		cands = append(cands, candidate{phrase: key, score: prod / (float64(counts[key]) * (1 + sum))})
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score < cands[j].score })
	if topN >= 0 && len(cands) > topN {
		cands = cands[:topN]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.phrase
	}
	return out
}

func (y *Yake) scoreTerms(terms map[string]*yakeTerm, order []string, sentences [][]yakeWord) {
	var tfs []float64
	maxTF := 0.0
	for _, key := range order {
		t := terms[key]
		if y.isStop(key) {
			continue
		}
		tfs = append(tfs, float64(t.tf))
		if float64(t.tf) > maxTF {
			maxTF = float64(t.tf)
		}
	}
	mean, std := meanStd(tfs)

	positions := map[string][]int{}
	for si, words := range sentences {
		for _, w := range words {
			positions[w.lower] = append(positions[w.lower], si)
		}
	}

	for _, key := range order {
		t := terms[key]
		if y.isStop(key) || maxTF == 0 {
			t.score = 1
			continue
		}
		tf := float64(t.tf)
		caseF := math.Max(float64(t.upper), float64(t.acronym)) / (1 + math.Log(tf))
		posF := math.Log(math.Log(3 + median(positions[key])))
		freqF := tf / (mean + std)
		var dl, dr float64
		if t.leftN > 0 {
			dl = float64(len(t.left)) / float64(t.leftN)
		}
		if t.rightN > 0 {
			dr = float64(len(t.right)) / float64(t.rightN)
		}
		relF := 1 + (dl+dr)*tf/maxTF
		sentF := float64(len(t.sentences)) / float64(len(sentences))
		t.score = relF * posF / (caseF + freqF/relF + sentF/relF)
	}
}

// sentenceWords splits text into sentences of words. Punctuation inside a
// sentence ends a word but is otherwise ignored.
func (y *Yake) sentenceWords(text string) [][]yakeWord {
	var out [][]yakeWord
	for _, s := range ingest.SplitSentences(text) {
		var words []yakeWord
		for _, f := range strings.FieldsFunc(s, func(r rune) bool {
			return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-')
		}) {
			f = strings.Trim(f, "-")
			if f == "" {
				continue
			}
			lower := strings.ToLower(f)
			words = append(words, yakeWord{text: f, lower: lower, stop: y.isStop(lower) || isNumber(lower)})
		}
		if len(words) > 0 {
			out = append(out, words)
		}
	}
	return out
}

func (y *Yake) isStop(w string) bool {
	return y.stops != nil && y.stops.IsStop(w)
}

func joinLower(words []yakeWord) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.lower
	}
	return strings.Join(parts, " ")
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

func median(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]int(nil), xs...)
	sort.Ints(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return float64(s[mid])
	}
	return float64(s[mid-1]+s[mid]) / 2
}

func isAcronym(w string) bool {
	letters := 0
	for _, r := range w {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters > 1
}

func startsUpper(w string) bool {
	for _, r := range w {
		return unicode.IsUpper(r)
	}
	return false
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}
