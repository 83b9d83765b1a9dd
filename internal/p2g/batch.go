package p2g

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/hindinames/internal/p2g/phoneme"
)

// Result pairs an input word with its rendering. Err is set when the phoneme
// source could not pronounce the word; Hindi is then empty.
type Result struct {
	Word  string `json:"word"`
	Hindi string `json:"hindi,omitempty"`
	Err   string `json:"error,omitempty"`
}

// RenderAll renders words concurrently with at most workers renders in
// flight (workers <= 0 means unbounded). Results keep the input order.
//
// Words the source does not know ([phoneme.ErrUnknownWord]) are reported in
// their Result and do not abort the batch. Any other source error cancels
// the remaining work and is returned.
func (e *Engine) RenderAll(ctx context.Context, words []string, workers int) ([]Result, error) {
	results := make([]Result, len(words))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, w := range words {
		g.Go(func() error {
			hi, err := e.Render(gctx, w)
			results[i] = Result{Word: w, Hindi: hi}
			if err != nil {
				if errors.Is(err, phoneme.ErrUnknownWord) {
					results[i].Err = err.Error()
					return nil
				}
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
