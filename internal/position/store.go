// Package position persists the open-position book between scan cycles.
package position

import (
	"context"

	"BreakoutSentinel/internal/model"
)

// Store loads and saves the whole book. Save replaces the stored book
// atomically: readers see either the old or the new book, never a mix.
type Store interface {
	Load(ctx context.Context) (model.Book, error)
	Save(ctx context.Context, book model.Book) error
}

// Normalizer completes records written by older versions. See model.Position.Normalize.
type Normalizer struct {
	StopPct   float64
	TargetPct float64
}

func (n Normalizer) apply(book model.Book) model.Book {
	for ticker, pos := range book {
		pos.Normalize(ticker, n.StopPct, n.TargetPct)
		book[ticker] = pos
	}
	return book
}
