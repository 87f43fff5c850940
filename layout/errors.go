package layout

import (
	"errors"
	"fmt"
)

// 使用错误属于调用方的编程错误，不应重试。
var (
	ErrAlreadyPrepared = errors.New("element already prepared")
	ErrNotPrepared     = errors.New("element not prepared")
	ErrInvalidArgument = errors.New("invalid argument")
)

// UsageError 记录触发使用错误的操作与元素 ID。
type UsageError struct {
	Op  string
	ID  string
	Err error
}

func (e *UsageError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *UsageError) Unwrap() error { return e.Err }

func usageError(op, id string, err error) error {
	return &UsageError{Op: op, ID: id, Err: err}
}

// MeasurementError wraps a failure of the font measurement collaborator.
type MeasurementError struct {
	Font FontSpec
	Err  error
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("measure text with font %s: %v", e.Font, e.Err)
}

func (e *MeasurementError) Unwrap() error { return e.Err }
