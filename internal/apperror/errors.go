// Package apperror описывает ошибки, которые видит клиент API.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidState
	KindInvalidCredential
	KindInvalidInput
)

var kindCodes = map[Kind]string{
	KindInternal:          "INTERNAL_SERVER_ERROR",
	KindUnauthenticated:   "UNAUTHENTICATED",
	KindForbidden:         "FORBIDDEN",
	KindNotFound:          "NOT_FOUND",
	KindConflict:          "CONFLICT",
	KindInvalidState:      "INVALID_STATE",
	KindInvalidCredential: "INVALID_CREDENTIAL",
	KindInvalidInput:      "BAD_USER_INPUT",
}

func (k Kind) String() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindInternal]
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error возвращает только сообщение: причина внутренних ошибок клиенту не отдается
func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Extensions попадает в поле "extensions" ответа GraphQL
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code": e.Kind.String(),
	}
}

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap превращает неожиданную ошибку в Internal. Ошибки apperror возвращаются как есть.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

func Unauthenticated(message string) error   { return New(KindUnauthenticated, message) }
func Forbidden(message string) error         { return New(KindForbidden, message) }
func NotFound(message string) error          { return New(KindNotFound, message) }
func Conflict(message string) error          { return New(KindConflict, message) }
func InvalidState(message string) error      { return New(KindInvalidState, message) }
func InvalidCredential(message string) error { return New(KindInvalidCredential, message) }
func InvalidInput(message string) error      { return New(KindInvalidInput, message) }

// KindOf возвращает вид ошибки; для посторонних ошибок - KindInternal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
