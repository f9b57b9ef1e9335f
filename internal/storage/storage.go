// Package storage содержит ошибки, общие для всех реализаций хранилищ.
package storage

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrNoTextIndex - у хранилища нет полнотекстового индекса, нужен запасной поиск
	ErrNoTextIndex = errors.New("text index is not available")
)
