// Package errors defines the error taxonomy used across ctxhelpr.
package errors

import "fmt"

// ErrorCode classifies an error for callers that need to branch on kind
// without string matching (MCP tool handlers, CLI exit codes).
type ErrorCode string

const (
	CodeConfig      ErrorCode = "config_error"
	CodeStorage     ErrorCode = "storage_error"
	CodeParse       ErrorCode = "parse_error"
	CodeIO          ErrorCode = "io_error"
	CodeNotIndexed  ErrorCode = "not_indexed"
	CodeSymbolNotFound ErrorCode = "symbol_not_found"
	CodeConcurrency ErrorCode = "concurrency_error"
	CodeInvalidParam ErrorCode = "invalid_parameter"
	CodeInternal    ErrorCode = "internal_error"
)

// CtxError is the structured error type surfaced by core operations.
// It always carries a code, a human message, and optionally the
// underlying cause and a suggested fix for the caller.
type CtxError struct {
	Code        ErrorCode
	Message     string
	Field       string // offending field/parameter, when applicable
	SuggestedFix string
	Cause       error
}

func (e *CtxError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CtxError) Unwrap() error { return e.Cause }

// NewConfigError wraps a configuration loading/validation failure.
func NewConfigError(message string, cause error) *CtxError {
	return &CtxError{Code: CodeConfig, Message: message, Cause: cause}
}

// NewStorageError wraps a SQL/migration/schema failure. Always fatal for
// the enclosing operation; the caller's transaction must roll back.
func NewStorageError(message string, cause error) *CtxError {
	return &CtxError{Code: CodeStorage, Message: message, Cause: cause}
}

// NewParseError wraps a tree-sitter grammar or parse failure for a single
// file. The caller should log at warn and skip the file.
func NewParseError(path string, cause error) *CtxError {
	return &CtxError{Code: CodeParse, Message: "failed to parse " + path, Cause: cause}
}

// NewIOError wraps a file read/stat/canonicalize failure.
func NewIOError(path string, cause error) *CtxError {
	return &CtxError{Code: CodeIO, Message: "io failure at " + path, Cause: cause}
}

// NewNotIndexedError signals a query reached a repo with no populated index.
func NewNotIndexedError(repoPath string) *CtxError {
	return &CtxError{
		Code:         CodeNotIndexed,
		Message:      "repository is not indexed: " + repoPath,
		SuggestedFix: "indexing has been started in the background; retry shortly",
	}
}

// NewSymbolNotFoundError signals get_symbol_detail received an unknown id.
func NewSymbolNotFoundError(symbolID int64) *CtxError {
	return &CtxError{Code: CodeSymbolNotFound, Message: fmt.Sprintf("symbol %d not found", symbolID)}
}

// NewConcurrencyError signals a repo is already being indexed.
func NewConcurrencyError(repoPath string) *CtxError {
	return &CtxError{
		Code:         CodeConcurrency,
		Message:      "already indexing: " + repoPath,
		SuggestedFix: "wait for the in-flight index to complete and retry",
	}
}

// NewInvalidParameterError signals a tool call received a bad/missing param.
func NewInvalidParameterError(field, detail string) *CtxError {
	msg := "invalid parameter: " + field
	if detail != "" {
		msg += ": " + detail
	}
	return &CtxError{Code: CodeInvalidParam, Field: field, Message: msg}
}

// NewInternalError wraps any residual error a tool handler must not panic on.
func NewInternalError(message string, cause error) *CtxError {
	return &CtxError{Code: CodeInternal, Message: message, Cause: cause}
}

// Code extracts the ErrorCode from err if it is (or wraps) a *CtxError.
func Code(err error) (ErrorCode, bool) {
	var ce *CtxError
	if As(err, &ce) {
		return ce.Code, true
	}
	return "", false
}

// As is a tiny local alias to errors.As to avoid importing the stdlib
// "errors" package under the same name as this package.
func As(err error, target **CtxError) bool {
	for err != nil {
		if ce, ok := err.(*CtxError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
