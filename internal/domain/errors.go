package domain

import "errors"

var (
	ErrInvalidKey      = errors.New("invalid key")
	ErrInvalidContent  = errors.New("invalid content")
	ErrUpstream        = errors.New("upstream error")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrFollowerTimeout = errors.New("timed out waiting for in-flight fetch")
)
