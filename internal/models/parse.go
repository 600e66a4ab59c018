// Package models defines the typed resource schema for the Jules API:
// sources, sessions, activities, and their nested payloads, plus the
// parse/serialize rules between wire JSON and validated records.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// validator is implemented by records that check their own required fields.
type validator interface {
	Validate() error
}

// decode unmarshals wire JSON into v and normalizes decoding failures into
// ValidationErrors carrying the offending field path. Unknown keys are
// ignored; that is the wire contract.
func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{
				Field:  typeErr.Field,
				Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}
		}
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return vErr
		}
		return &ValidationError{Reason: err.Error()}
	}
	if val, ok := v.(validator); ok {
		return val.Validate()
	}
	return nil
}

// ParseSource parses and validates a wire source object.
func ParseSource(data []byte) (*Source, error) {
	var s Source
	if err := decode(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseSourceList parses one page of the list-sources response.
func ParseSourceList(data []byte) (*SourceList, error) {
	var l SourceList
	if err := decode(data, &l); err != nil {
		return nil, err
	}
	for i := range l.Sources {
		if err := l.Sources[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

// ParseSession parses and validates a wire session object.
func ParseSession(data []byte) (*Session, error) {
	var s Session
	if err := decode(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseSessionList parses one page of the list-sessions response. List pages
// are not re-validated per element: the remote omits prompt on some summary
// views, and a list call must not fail on one degraded item.
func ParseSessionList(data []byte) (*SessionList, error) {
	var l SessionList
	if err := decode(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ParseActivity parses and validates a wire activity object.
func ParseActivity(data []byte) (*Activity, error) {
	var a Activity
	if err := decode(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ParseActivityList parses one page of the list-activities response.
func ParseActivityList(data []byte) (*ActivityList, error) {
	var l ActivityList
	if err := decode(data, &l); err != nil {
		return nil, err
	}
	for i := range l.Activities {
		if err := l.Activities[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

// ParseCreateSessionRequest parses and validates a session-creation body.
func ParseCreateSessionRequest(data []byte) (*CreateSessionRequest, error) {
	var r CreateSessionRequest
	if err := decode(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// MergePage appends a new page's items to the accumulated sequence,
// preserving order. Used by callers that auto-paginate.
func MergePage[T any](existing, page []T) []T {
	return append(existing, page...)
}
