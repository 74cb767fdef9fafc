package resample

import "errors"

var (
	// ErrMissingLabel is returned when a record reaches the stratifier with no label.
	ErrMissingLabel = errors.New("record has no label")
	// ErrInvalidLabelDomain is returned when a label falls outside the two-valued domain.
	ErrInvalidLabelDomain = errors.New("label outside binary domain")
	// ErrInvalidRatio is returned for a negative sample ratio.
	ErrInvalidRatio = errors.New("sample ratio must not be negative")
	// ErrEmptyGroup is returned when a group has no records but a nonzero target count.
	ErrEmptyGroup = errors.New("cannot sample from empty group")
)
