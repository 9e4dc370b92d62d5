package limits

import "errors"

var (
	ErrFailedToLoadLimits   = errors.New("failed to load feature limit records")
	ErrTierNotDefined       = errors.New("no feature limit record defined for tier")
	ErrInvalidConfiguration = errors.New("invalid feature limit configuration")
)
