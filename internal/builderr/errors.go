// Package builderr defines the error taxonomy shared by every stage of the
// build pipeline. Each concrete failure is a Kind that belongs to exactly one
// category, and both can be matched with errors.Is.
package builderr

import (
	"errors"
	"fmt"
	"strings"
)

// Categories.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrResolution     = errors.New("resolution error")
	ErrComposition    = errors.New("composition error")
	ErrImage          = errors.New("image error")
	ErrDelegatedBuild = errors.New("delegated build failure")
)

// Kind is a specific failure condition within a category.
type Kind struct {
	name     string
	category error
}

func (k *Kind) Error() string { return k.name }

// Category returns the category sentinel this kind belongs to.
func (k *Kind) Category() error { return k.category }

// Is lets errors.Is match a kind against its category as well as itself.
func (k *Kind) Is(target error) bool {
	return target == k.category
}

func newKind(name string, category error) *Kind {
	return &Kind{name: name, category: category}
}

// Kinds.
var (
	ErrMissingModule           = newKind("missing module", ErrConfiguration)
	ErrMalformedDeclaration    = newKind("malformed declaration", ErrConfiguration)
	ErrCycleDetected           = newKind("cycle detected", ErrResolution)
	ErrUnknownModule           = newKind("unknown module", ErrResolution)
	ErrMissingTemplate         = newKind("missing template", ErrComposition)
	ErrMissingMarker           = newKind("missing insertion marker", ErrComposition)
	ErrUnresolvedPlaceholder   = newKind("unresolved placeholder", ErrComposition)
	ErrDuplicateHeaderConflict = newKind("duplicate header conflict", ErrComposition)
	ErrOversizedBinary         = newKind("oversized binary", ErrImage)
	ErrMalformedAddressWidth   = newKind("malformed address width", ErrImage)
	ErrMalformedImage          = newKind("malformed image", ErrImage)
	ErrSubBuildFailed          = newKind("sub-build failed", ErrDelegatedBuild)
)

// Error is a classified failure with enough context to diagnose it without
// re-running the build.
type Error struct {
	Kind   *Kind
	Stage  string
	Module string
	Path   string
	Err    error
}

// New creates a classified error. Detail is optional and formatted with args.
func New(kind *Kind, stage string, detail string, args ...any) *Error {
	e := &Error{Kind: kind, Stage: stage}
	if detail != "" {
		e.Err = fmt.Errorf(detail, args...)
	}
	return e
}

// WithModule attaches a module name to the error.
func (e *Error) WithModule(name string) *Error {
	e.Module = name
	return e
}

// WithPath attaches a file path to the error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Stage != "" {
		b.WriteString(e.Stage)
		b.WriteString(": ")
	}
	if e.Module != "" {
		fmt.Fprintf(&b, "module %q: ", e.Module)
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the kind of the first classified error in err's chain, or nil.
func KindOf(err error) *Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return nil
}
