// Package errors provides structured error types for the Think Bot application.
// These errors provide context about what operation failed and where.
package errors

import (
	"errors"
	"fmt"
)

// Op describes an operation, usually as "package.function".
type Op string

// Kind categorizes the type of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalid
	KindPermission
	KindIO
	KindNetwork
	KindConfig
	KindStorage
	KindLLM
	KindExtract
	KindSync
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalid:
		return "invalid"
	case KindPermission:
		return "permission denied"
	case KindIO:
		return "I/O error"
	case KindNetwork:
		return "network error"
	case KindConfig:
		return "configuration error"
	case KindStorage:
		return "storage error"
	case KindLLM:
		return "llm error"
	case KindExtract:
		return "extraction error"
	case KindSync:
		return "sync error"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error is the structured error type for Think Bot.
type Error struct {
	Op      Op     // Operation that failed
	Kind    Kind   // Category of error
	Err     error  // Underlying error
	Context string // Additional context
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Context, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error. Arguments can be:
// - Op: the operation name
// - Kind: the error kind
// - string: context message
// - error: the underlying error
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case string:
			e.Context = a
		case error:
			e.Err = a
		}
	}
	if e.Err == nil {
		e.Err = errors.New(e.Context)
		e.Context = ""
	}
	return e
}

// Is reports whether err is of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetKind returns the Kind of an error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Config errors
func ConfigLoadFailed(path string, err error) error {
	return E(Op("config.Load"), KindConfig, fmt.Sprintf("failed to load config from %s", path), err)
}

func ConfigSaveFailed(path string, err error) error {
	return E(Op("config.Save"), KindConfig, fmt.Sprintf("failed to save config to %s", path), err)
}

func ConfigInvalid(reason string) error {
	return E(Op("config.Validate"), KindInvalid, reason)
}

func ImportInvalid(reason string) error {
	return E(Op("config.Import"), KindInvalid, reason)
}

// Model errors
func ModelNotFound(id string) error {
	return E(Op("settings.GetModel"), KindNotFound, fmt.Sprintf("model %s not found", id))
}

func ModelIncomplete(name string) error {
	return E(Op("settings.Validate"), KindInvalid, fmt.Sprintf("model %q is missing required fields", name))
}

// Storage errors
func StorageOpenFailed(path string, err error) error {
	return E(Op("storage.Open"), KindStorage, fmt.Sprintf("failed to open cache store at %s", path), err)
}

func KeyNotFound(key string) error {
	return E(Op("storage.Get"), KindNotFound, fmt.Sprintf("key %s not found", key))
}

// LLM errors
func BranchRequestFailed(branchID string, err error) error {
	return E(Op("llm.Request"), KindLLM, fmt.Sprintf("request failed for branch %s", branchID), err)
}

func BranchNotStreaming(branchID string) error {
	return E(Op("llm.Cancel"), KindNotFound, fmt.Sprintf("no in-flight request for branch %s", branchID))
}

// Extraction errors
func ExtractFailed(method, url string, err error) error {
	return E(Op("extract.Load"), KindExtract, fmt.Sprintf("%s extraction failed for %s", method, url), err)
}

func PageRestricted(url string) error {
	return E(Op("extract.Load"), KindPermission, fmt.Sprintf("page %s cannot be accessed", url))
}

// Sync errors
func SyncConnectionFailed(endpoint string, err error) error {
	return E(Op("sync.TestConnection"), KindSync, fmt.Sprintf("failed to reach %s", endpoint), err)
}

func SyncInFlight() error {
	return E(Op("sync.Run"), KindSync, "a sync operation is already in flight")
}
