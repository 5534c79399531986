package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrRateLimited         = errors.New("rate limited")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNoCredentials       = errors.New("venue credentials not configured")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrFetchExhausted      = errors.New("retry attempts exhausted")
	ErrLoopRunning         = errors.New("loop already running")
	ErrLoopNotRunning      = errors.New("loop not running")
)
