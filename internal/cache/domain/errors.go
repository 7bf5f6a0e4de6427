package domain

import (
	"github.com/tradeware/securecore/internal/errors"
)

// Cache operation error definitions.
var (
	// ErrStoreUnavailable indicates the backing cache store is unreachable.
	//
	// The cache engine never surfaces this error to callers of Get/Set/GetOrSet;
	// it is counted in statistics and the operation degrades to a miss or a
	// failed write. It is returned from Connect so the application can decide
	// whether to log the degradation.
	ErrStoreUnavailable = errors.Wrap(errors.ErrUnavailable, "cache store unavailable")
)
