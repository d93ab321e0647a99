package feeledger

import "errors"

var (
	ErrMissingComponent   = errors.New("every item must have a fee component selected")
	ErrDuplicateComponent = errors.New("the same fee component appears more than once")
	ErrNegativeAmount     = errors.New("item amount cannot be negative")
	ErrEmptyTemplate      = errors.New("template must contain at least one item")
	ErrNonPositiveAmount  = errors.New("template item amounts must be positive")
)
