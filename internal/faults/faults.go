// Package faults defines the error classes shared across the transcript
// pipeline. Callers match on them with errors.Is; the HTTP layer maps them
// to status codes.
package faults

import "errors"

var (
	// ErrNotFound means no captions exist for the video, or the requested
	// language has no matching track.
	ErrNotFound = errors.New("transcript not found")

	// ErrParse means the watch page HTML or a caption payload did not have
	// the expected structure.
	ErrParse = errors.New("failed to parse transcript")

	// ErrBlocked means YouTube refused the request (rate limit, captcha,
	// consent interstitial).
	ErrBlocked = errors.New("youtube blocked the request")

	// ErrAuth means the authenticated caption download was forbidden.
	// This is the only error that triggers the public fallback path.
	ErrAuth = errors.New("caption download not authorized")

	// ErrUnimplemented marks the translation path, which exists but is
	// deliberately not implemented.
	ErrUnimplemented = errors.New("not implemented")
)
