package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	MatchFetchTimeout  = 30 * time.Second
)

const (
	DefaultConcurrency = 3
	DefaultTaskTimeout = 30 * time.Minute
	DefaultMatchLimit  = 5
	TaskUnwindGrace    = 5 * time.Second
)

const (
	HTTPMaxConnsPerHost     = 16
	HTTPReadTimeout         = 10 * time.Second
	HTTPWriteTimeout        = 10 * time.Second
	HTTPMaxIdleConnDuration = 1 * time.Minute
)

const (
	DefaultRequestsPerSecond = 2.0
	RequestBurst             = 4
)

const (
	BreakerMaxRequests    = 3
	BreakerInterval       = 1 * time.Minute
	BreakerOpenTimeout    = 30 * time.Second
	BreakerMinRequests    = 5
	BreakerFailureRatio   = 0.6
	BreakerMaxConsecutive = 10
)

const (
	ShutdownTimeout = 15 * time.Second
)
