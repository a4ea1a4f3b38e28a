// Package qerr defines the closed set of error kinds the catalogue core can
// raise, per the error handling design: parse errors, container format
// mismatches, section overflow, missing sections, signature collapse,
// progress overrun, and selftest assertions.
//
// Fatal kinds are wrapped with github.com/pkg/errors so a stack trace is
// attached at the point of origin. Local recovery (expectId divergence,
// depreciation burst-shrinking) never produces an error value; it is
// modelled as plain control flow in the packages that need it.
package qerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error for callers that branch on error category
// (e.g. a CLI deciding exit codes) without string-matching messages.
type Kind int

const (
	// KindParse marks a malformed tree or transform name. Fatal; callers
	// never recover mid-parse.
	KindParse Kind = iota
	// KindContainerFormat marks a magic/version/slots/length mismatch on
	// container open.
	KindContainerFormat
	// KindSectionOverflow marks a section whose element count exceeded
	// its allocated capacity.
	KindSectionOverflow
	// KindMissingSection marks an operation that needs a section the
	// open container does not carry.
	KindMissingSection
	// KindSignatureCollapse marks a depreciation pass that would leave a
	// KEY-flagged signature with no members.
	KindSignatureCollapse
	// KindProgressOverrun marks encountered progress exceeding the
	// precomputed ceiling; non-fatal.
	KindProgressOverrun
	// KindSelftest marks a failed invariant check.
	KindSelftest
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindContainerFormat:
		return "container-format"
	case KindSectionOverflow:
		return "section-overflow"
	case KindMissingSection:
		return "missing-section"
	case KindSignatureCollapse:
		return "signature-collapse"
	case KindProgressOverrun:
		return "progress-overrun"
	case KindSelftest:
		return "selftest"
	default:
		return "unknown"
	}
}

// Fatal returns whether errors of this kind must abort the caller rather
// than being logged and continued, per the error handling design.
func (k Kind) Fatal() bool {
	return k != KindProgressOverrun
}

// Error is a qntf error: a Kind, a human message and optional structured
// fields, with a stack trace captured at construction.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a fatal-by-default Error of the given kind, with a stack
// trace attached via github.com/pkg/errors.
func New(kind Kind, message string, fields map[string]any) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Fields:  fields,
		cause:   errors.New(message),
	}
}

// Wrap attaches kind and fields to an existing error while preserving the
// original cause for errors.Is/As and for the stack trace.
func Wrap(kind Kind, cause error, fields map[string]any) *Error {
	return &Error{
		Kind:    kind,
		Message: cause.Error(),
		Fields:  fields,
		cause:   errors.WithStack(cause),
	}
}

// SelftestDiagnostic is the structured JSON body required by the error
// handling design for a failed selftest assertion.
type SelftestDiagnostic struct {
	Line       int    `json:"line"`
	Function   string `json:"function"`
	Expected   string `json:"expected"`
	Encountered string `json:"encountered"`
	Offending  string `json:"offending,omitempty"`
}

// Selftest builds a KindSelftest Error carrying a SelftestDiagnostic in
// its Fields, ready for the CLI's JSON encoder to serialise verbatim.
func Selftest(d SelftestDiagnostic) *Error {
	return New(KindSelftest, fmt.Sprintf("selftest assertion failed in %s", d.Function), map[string]any{
		"diagnostic": d,
	})
}
