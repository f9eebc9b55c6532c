package schema

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// SchemaKey holds messages from checks that span several fields.
const SchemaKey = "_schema"

// Messages maps a field name, or a decimal list index, to either a
// []string of messages or a nested Messages.
type Messages map[string]any

// ValidationError is returned when data does not satisfy a schema. It
// carries every violation found, not just the first.
type ValidationError struct {
	Messages Messages
}

// Error renders the violations sorted by path, e.g.
// "observable.type: Missing data for required field.; valid_time: ...".
func (e *ValidationError) Error() string {
	issues := e.Issues()
	parts := make([]string, 0, len(issues))
	for _, is := range issues {
		parts = append(parts, is.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Issue is one flattened violation.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Issues flattens the nested messages into dotted paths, sorted so that
// list indexes compare numerically.
func (e *ValidationError) Issues() []Issue {
	var out []Issue
	flatten("", e.Messages, &out)
	return out
}

func flatten(prefix string, m Messages, out *[]Issue) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := m[k].(type) {
		case []string:
			for _, msg := range v {
				*out = append(*out, Issue{Path: path, Message: msg})
			}
		case Messages:
			flatten(path, v, out)
		default:
			*out = append(*out, Issue{Path: path, Message: fmt.Sprint(v)})
		}
	}
}

func compareKeys(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai - bi
	}
	return strings.Compare(a, b)
}

// InvalidError reports that a single value is invalid.
type InvalidError struct {
	Messages []string
}

// Invalid returns an *InvalidError with the given messages.
func Invalid(msgs ...string) error {
	return &InvalidError{Messages: msgs}
}

func (e *InvalidError) Error() string {
	return strings.Join(e.Messages, " ")
}

// detail converts an error into the value stored under a field key:
// nested Messages for a *ValidationError, a message list otherwise.
func detail(err error) any {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Messages
	}
	var ierr *InvalidError
	if errors.As(err, &ierr) {
		return slices.Clone(ierr.Messages)
	}
	return []string{err.Error()}
}

// SchemaError reports a malformed schema or kind declaration.
type SchemaError struct {
	Name    string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %q: %s", e.Name, e.Message)
}

// Standard messages.
const (
	MsgUnknownField = "Unknown field."
	MsgRequired     = "Missing data for required field."
	MsgNull         = "Field may not be null."
	MsgBlank        = "Field may not be blank."
	MsgString       = "Not a valid string."
	MsgInteger      = "Not a valid integer."
	MsgBoolean      = "Not a valid boolean."
	MsgList         = "Not a valid list."
	MsgMapping      = "Not a valid mapping type."
	MsgDateTime     = "Not a valid datetime."
	MsgInputType    = "Invalid input type."
)
