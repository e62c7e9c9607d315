// Package sources defines the contract shared by every index publisher
// adapter and the coverage fallback applied to scraped series.
package sources

import (
	"context"
	"errors"
	"fmt"
)

// ErrInsufficientCoverage signals that an adapter extracted fewer
// observations than its coverage threshold allows.
var ErrInsufficientCoverage = errors.New("extracted observations below coverage threshold")

// RawObservation is one data point as published, before normalization.
// Date keeps the publisher's own formatting; Value is the locale-formatted
// figure. Order of a raw series is whatever the publisher emitted.
type RawObservation struct {
	Date  string
	Value string
}

// Source fetches up to limit raw observations from one publisher. Adapters
// perform exactly one outbound request per call, carry their own bounded
// timeout, and do not retry; retry policy belongs to the caller.
type Source interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]RawObservation, error)
}

// FetchError is the typed failure raised by adapters on network errors or
// non-success responses. Series identifies the publisher series involved.
type FetchError struct {
	Series string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Series, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
