package campaign

import "errors"

var (
	ErrInvalidTarget     = errors.New("target must be more than 0")
	ErrInvalidDeadline   = errors.New("deadline can't be in the past")
	ErrInvalidCap        = errors.New("max per wallet must be more than 0")
	ErrUnauthorized      = errors.New("caller is not authorized")
	ErrCampaignClosed    = errors.New("cannot fund after deadline")
	ErrWalletCapExceeded = errors.New("wallet contribution cap exceeded")
	ErrTooEarly          = errors.New("cannot claim before deadline")
)
