package utils

import "strconv"

// ParseID parses a positive numeric path parameter.
func ParseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, NewValidationError(ReasonInvalidInput, "invalid id "+strconv.Quote(raw))
	}
	return uint(id), nil
}
