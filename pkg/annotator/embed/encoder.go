package embed

import (
	"context"
	"sync"
)

// Encoder turns sentences into unit-length embeddings of a fixed dimension.
type Encoder interface {
	Encode(ctx context.Context, sentences []string) ([]Vector, error)
	Dimensions() int
}

// Lazy defers building an encoder until the first call. Construction runs at
// most once and the result, including a failure, is shared by every caller.
type Lazy struct {
	factory func() (Encoder, error)
	dims    int

	once sync.Once
	enc  Encoder
	err  error
}

// NewLazy wraps factory. dims is reported before the encoder exists.
func NewLazy(dims int, factory func() (Encoder, error)) *Lazy {
	return &Lazy{factory: factory, dims: dims}
}

func (l *Lazy) get() (Encoder, error) {
	l.once.Do(func() {
		l.enc, l.err = l.factory()
	})
	return l.enc, l.err
}

// Encode builds the encoder if needed and delegates to it.
func (l *Lazy) Encode(ctx context.Context, sentences []string) ([]Vector, error) {
	enc, err := l.get()
	if err != nil {
		return nil, err
	}
	return enc.Encode(ctx, sentences)
}

// Dimensions returns the configured dimension.
func (l *Lazy) Dimensions() int {
	return l.dims
}
