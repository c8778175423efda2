package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrNoActiveSession  = fmt.Errorf("no active session: %w", ErrNotFound)
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrNoIngredients    = errors.New("no ingredients to process")
	ErrUnconfirmed      = errors.New("ingredients still need confirmation")
	ErrEmptyRequest     = errors.New("no ingredient lines to consolidate")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrFinalized        = errors.New("session is finalized")
)

// FetchReason classifies why a page could not be retrieved.
type FetchReason string

const (
	FetchPaywall      FetchReason = "paywall"
	FetchNotFound     FetchReason = "notFound"
	FetchHTTPError    FetchReason = "httpError"
	FetchConnectError FetchReason = "connectError"
	FetchTimeout      FetchReason = "timeout"
)

// FetchError is returned when a recipe page cannot be downloaded.
type FetchError struct {
	Reason FetchReason
	URL    string
	Status int // HTTP status, 0 for transport failures
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Reason {
	case FetchPaywall:
		return fmt.Sprintf("%s appears to be behind a paywall or requires login (%d); save the page HTML and use --html", e.URL, e.Status)
	case FetchNotFound:
		return fmt.Sprintf("page not found (404): %s", e.URL)
	case FetchHTTPError:
		return fmt.Sprintf("HTTP %d error fetching %s", e.Status, e.URL)
	case FetchTimeout:
		return fmt.Sprintf("request to %s timed out", e.URL)
	default:
		return fmt.Sprintf("could not connect to %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// ScrapeError is returned when a page has no recognizable recipe.
type ScrapeError struct {
	URL    string
	Reason string
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("could not parse recipe from %s: %s", e.URL, e.Reason)
}

// ProcessingError means the language model's reply could not be turned
// into ingredients. Raw holds the reply verbatim for diagnostics.
type ProcessingError struct {
	Raw string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("failed to parse model response: %v", e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// IndexError reports a user-supplied index outside [0, Len).
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range (have %d)", e.Index+1, e.Len)
}

func (e *IndexError) Is(target error) bool { return target == ErrIndexOutOfRange }

// ConfigError reports a missing required setting.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not set", e.Key)
}
