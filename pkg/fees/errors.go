package fees

import "errors"

var (
	ErrPercentOutOfRange = errors.New("fee percent must be between 0 and 100")
)
