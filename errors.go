package treeq

import (
	"errors"
	"fmt"
)

// ErrorCode classifies query failures so callers can branch on the
// failure class instead of matching message text.
type ErrorCode uint8

const (
	CodeInvalidSyntax ErrorCode = iota + 1
	CodeExecution
	CodeType
	CodeIndexOutOfBounds
	CodeKeyNotFound
	CodeDivisionByZero
	CodeFunctionNotFound
	CodeInvalidArgument
)

var errorPrefixes = map[ErrorCode]string{
	CodeInvalidSyntax:    "invalid query syntax",
	CodeExecution:        "query execution failed",
	CodeType:             "type error",
	CodeIndexOutOfBounds: "index out of bounds",
	CodeKeyNotFound:      "key not found",
	CodeDivisionByZero:   "division by zero",
	CodeFunctionNotFound: "function not found",
	CodeInvalidArgument:  "invalid argument",
}

// Error is the error type returned by all query operations.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	prefix := errorPrefixes[e.Code]
	if e.Message == "" {
		return prefix
	}
	return prefix + ": " + e.Message
}

// IsCode reports whether err is a query Error carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Code == code
}

func errSyntax(format string, args ...any) error {
	return &Error{Code: CodeInvalidSyntax, Message: fmt.Sprintf(format, args...)}
}

func errExec(format string, args ...any) error {
	return &Error{Code: CodeExecution, Message: fmt.Sprintf(format, args...)}
}

func errType(format string, args ...any) error {
	return &Error{Code: CodeType, Message: fmt.Sprintf(format, args...)}
}

func errIndex(format string, args ...any) error {
	return &Error{Code: CodeIndexOutOfBounds, Message: fmt.Sprintf(format, args...)}
}

func errKey(format string, args ...any) error {
	return &Error{Code: CodeKeyNotFound, Message: fmt.Sprintf(format, args...)}
}

func errDivZero() error {
	return &Error{Code: CodeDivisionByZero}
}

func errFunc(name string) error {
	return &Error{Code: CodeFunctionNotFound, Message: name}
}

func errArg(format string, args ...any) error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}
