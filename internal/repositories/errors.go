package repositories

import "errors"

var (
	ErrNotFound       = errors.New("record not found")
	ErrStatusConflict = errors.New("document status changed concurrently")
)
