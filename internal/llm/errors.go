package llm

import (
	"errors"
)

// Typed failures the inference capability can surface. Callers decide whether
// a failure is fatal (rule inference) or a partial result (per-batch
// categorization).
var (
	ErrRateLimited     = errors.New("llm: rate limited")
	ErrUnavailable     = errors.New("llm: service unavailable")
	ErrInvalidArgument = errors.New("llm: invalid argument")
	ErrEmptyResponse   = errors.New("llm: empty response")
)
