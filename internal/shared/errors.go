package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Input errors
	ErrInputNotFound = fmt.Errorf("input file not found")
	ErrNoLinks       = fmt.Errorf("no links found in input")

	// Tool errors
	ErrToolFailed  = fmt.Errorf("download tool failed")
	ErrToolTimeout = fmt.Errorf("download tool timed out")

	// Reconciliation errors
	ErrMetadataMissing = fmt.Errorf("no metadata for playlist")
	ErrNoPlaylistDir   = fmt.Errorf("playlist directory not found")

	// API errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrUnknownLinkKind  = fmt.Errorf("unknown link kind")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
)
