package models

import "fmt"

// ValidationError reports malformed or incomplete data crossing the
// wire/record boundary. Field is the dotted path of the offending field
// (e.g. "sourceContext.source").
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid resource: %s", e.Reason)
	}
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// missingField builds the ValidationError for an absent required field.
func missingField(path string) *ValidationError {
	return &ValidationError{Field: path, Reason: "required field is missing"}
}
