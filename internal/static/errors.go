package static

import (
	"errors"
	"fmt"
)

// FetchError reports a failed dataset fetch: a transport error, or a response
// whose status is not 2xx (StatusCode set, Err nil).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// errNoSnapshot is the cache-side cause when the store has nothing for the dataset.
var errNoSnapshot = errors.New("no cached dataset")

// DataUnavailableError is returned by Load when neither a fresh fetch nor the
// cached fallback produced a dataset.
type DataUnavailableError struct {
	FetchErr error
	CacheErr error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("dataset unavailable: %v; cache fallback: %v", e.FetchErr, e.CacheErr)
}

func (e *DataUnavailableError) Unwrap() []error {
	return []error{e.FetchErr, e.CacheErr}
}
