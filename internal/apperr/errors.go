// Package apperr define os erros de domínio que voltam para o cliente.
package apperr

import (
	"errors"
	"fmt"
)

// Códigos de erro enviados no payload de "error".
const (
	CodeMatchNotFound   = "MATCH_NOT_FOUND"
	CodeMatchFull       = "MATCH_FULL"
	CodeAlreadyAdmitted = "ALREADY_ADMITTED"
	CodeAlreadyJoined   = "ALREADY_JOINED"
	CodeAlreadyInMatch  = "ALREADY_IN_MATCH"
	CodeInvalidPayload  = "INVALID_PAYLOAD"
	CodeUnknownEvent    = "UNKNOWN_EVENT"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError é um erro esperado e recuperável, identificado pelo Code.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is compara apenas o código, então errors.Is(err, ErrMatchFull) funciona
// mesmo quando o erro carrega Details.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// WithDetails devolve uma cópia, os sentinelas abaixo nunca são alterados.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Erros pré-definidos.
var (
	ErrMatchNotFound   = New(CodeMatchNotFound, "match not found")
	ErrMatchFull       = New(CodeMatchFull, "Game is full")
	ErrAlreadyAdmitted = New(CodeAlreadyAdmitted, "Player already in this game.")
	ErrAlreadyJoined   = New(CodeAlreadyJoined, "player already joined this match")
	ErrAlreadyInMatch  = New(CodeAlreadyInMatch, "player is already in another match")
	ErrInvalidPayload  = New(CodeInvalidPayload, "invalid payload")
	ErrUnknownEvent    = New(CodeUnknownEvent, "unknown event")
)

// CodeOf extrai o código de qualquer erro; erros desconhecidos viram CodeInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
