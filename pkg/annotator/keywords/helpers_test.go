package keywords

import (
	"context"
	"errors"
	"strings"

	"github.com/cognicore/annotator/pkg/annotator/embed"
)

type stopSet map[string]bool

func (s stopSet) IsStop(token string) bool { return s[token] }

// lowerLemmatizer treats the lower-cased words of a phrase as its lemmas.
type lowerLemmatizer struct{}

func (lowerLemmatizer) Lemmatise(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// axisEncoder maps text mentioning "сеть" to the x axis and anything else to y.
type axisEncoder struct{ fail bool }

func (a axisEncoder) Encode(_ context.Context, sentences []string) ([]embed.Vector, error) {
	if a.fail {
		return nil, errors.New("encoder offline")
	}
	out := make([]embed.Vector, len(sentences))
	for i, s := range sentences {
		if strings.Contains(s, "сеть") {
			out[i] = embed.Vector{1, 0}
		} else {
			out[i] = embed.Vector{0, 1}
		}
	}
	return out, nil
}

func (axisEncoder) Dimensions() int { return 2 }
