package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLogType  = errors.New("invalid log type")
	ErrEmptyCategory   = errors.New("category is empty")
	ErrEmptyTitle      = errors.New("title is empty")
	ErrNoCartOwner     = errors.New("cart has no owner")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSKU    = errors.New("sku already exists")
)

// ValidationError 入参非法，未触达存储
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError 存储层失败，不自动重试
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Reason: err.Error(), Err: err}
}

func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation 供 handler 映射返回码
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
