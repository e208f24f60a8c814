package blockie

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MalformedTemplateError represents unbalanced or ambiguous tags found while parsing
type MalformedTemplateError struct {
	Message string
	Tag     string
	Line    int
	Column  int
}

func (e *MalformedTemplateError) Error() string {
	near := ""
	if e.Tag != "" {
		near = fmt.Sprintf(" near '%s'", e.Tag)
	}
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("template error at line %d, column %d%s: %s", e.Line, e.Column, near, e.Message)
	} else if e.Line > 0 {
		return fmt.Sprintf("template error at line %d%s: %s", e.Line, near, e.Message)
	}
	return fmt.Sprintf("template error%s: %s", near, e.Message)
}

// NewMalformedTemplateError creates a new template error with position information
func NewMalformedTemplateError(message, tag string, line, column int) error {
	return &MalformedTemplateError{
		Message: message,
		Tag:     tag,
		Line:    line,
		Column:  column,
	}
}

// VariantIndexError represents a variant selector outside the variants of a block
type VariantIndexError struct {
	Block string
	Index int
	Count int
}

func (e *VariantIndexError) Error() string {
	return fmt.Sprintf("variant index %d out of range for block '%s' (%d variants)", e.Index, blockLabel(e.Block), e.Count)
}

// VariableArityMismatchError represents broadcast sequences that cannot be paired
// position by position.
type VariableArityMismatchError struct {
	Block    string
	Lengths  map[string]int
	Position int // ancestor repetition ordinal, -1 when the sequences are zipped
}

func (e *VariableArityMismatchError) Error() string {
	names := make([]string, 0, len(e.Lengths))
	for name := range e.Lengths {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, e.Lengths[name]))
	}
	if e.Position >= 0 {
		return fmt.Sprintf("sequence too short for repetition %d in block '%s': %s",
			e.Position, blockLabel(e.Block), strings.Join(parts, ", "))
	}
	return fmt.Sprintf("sequence lengths differ in block '%s': %s", blockLabel(e.Block), strings.Join(parts, ", "))
}

// UnknownTagReferenceError represents a data key that names no tag of the block
type UnknownTagReferenceError struct {
	Block string
	Name  string
}

func (e *UnknownTagReferenceError) Error() string {
	return fmt.Sprintf("block '%s' has no tag named '%s'", e.BlockLabel(), e.Name)
}

// BlockLabel returns the block path, or <root> for the top-level block.
func (e *UnknownTagReferenceError) BlockLabel() string {
	return blockLabel(e.Block)
}

// ValueKindError represents a fill value of a kind that is not valid where it is used
type ValueKindError struct {
	Name string
	Kind Kind
	Want string
}

func (e *ValueKindError) Error() string {
	return fmt.Sprintf("value for '%s' is a %s, want %s", e.Name, e.Kind, e.Want)
}

// FillError wraps a fill-time error with the path of the block being filled
type FillError struct {
	Path  string
	Cause error
}

func (e *FillError) Error() string {
	return fmt.Sprintf("fill error in '%s': %v", e.Path, e.Cause)
}

func (e *FillError) Unwrap() error {
	return e.Cause
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Errors returns the collected errors in the order they were added
func (m *MultiError) Errors() []error {
	return m.errors
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.errors
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// IsMalformedTemplateError checks if an error is a template error
func IsMalformedTemplateError(err error) bool {
	var target *MalformedTemplateError
	return errors.As(err, &target)
}

// IsVariantIndexError checks if an error is a variant index error
func IsVariantIndexError(err error) bool {
	var target *VariantIndexError
	return errors.As(err, &target)
}

// IsVariableArityMismatchError checks if an error is a broadcast arity error
func IsVariableArityMismatchError(err error) bool {
	var target *VariableArityMismatchError
	return errors.As(err, &target)
}

// IsUnknownTagReferenceError checks if an error is an unknown reference error
func IsUnknownTagReferenceError(err error) bool {
	var target *UnknownTagReferenceError
	return errors.As(err, &target)
}

// IsValueKindError checks if an error is a value kind error
func IsValueKindError(err error) bool {
	var target *ValueKindError
	return errors.As(err, &target)
}

func blockLabel(name string) string {
	if name == "" {
		return "<root>"
	}
	return name
}
