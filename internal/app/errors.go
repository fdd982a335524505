package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrSeedNotFound           = errors.New("seed track not found")
	ErrRecommendationNotFound = errors.New("recommendation not found")
	ErrNotStarted             = errors.New("service not started")
)
