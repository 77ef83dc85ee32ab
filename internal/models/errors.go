package models

import "errors"

var (
	// ErrUpstreamUnavailable is returned when the fares source cannot be reached
	// or answers with a non-success status.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUnparseableDate is returned when a fare timestamp matches none of the accepted layouts.
	ErrUnparseableDate = errors.New("unparseable date")

	// ErrInvalidRequest is returned for a search that fails validation, before
	// any upstream call is made.
	ErrInvalidRequest = errors.New("invalid search request")
)
