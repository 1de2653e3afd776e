// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bankid-cz/bankid-go/jwt"
)

// Event is a single change notification pushed by the provider.
type Event struct {
	Sub               string   `json:"sub"`
	OriginalEventAt   string   `json:"original_event_at"`
	AffectedClaims    []string `json:"affected_claims"`
	Type              string   `json:"type"`
	AffectedClientIDs []string `json:"affected_client_ids"`
}

// UnmarshalJSON accepts original_event_at as either a string or a number.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	var raw struct {
		plain
		OriginalEventAt json.RawMessage `json:"original_event_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event(raw.plain)
	at := bytes.TrimSpace(raw.OriginalEventAt)
	switch {
	case len(at) == 0 || bytes.Equal(at, []byte("null")):
	case at[0] == '"':
		if err := json.Unmarshal(at, &e.OriginalEventAt); err != nil {
			return err
		}
	default:
		var n json.Number
		if err := json.Unmarshal(at, &n); err != nil {
			return fmt.Errorf("original_event_at: %w", err)
		}
		e.OriginalEventAt = n.String()
	}
	return nil
}

// eventsFromToken maps the events claim of a verified notification token. A
// missing or non-array claim means the token is not a notification.
func eventsFromToken(tok *jwt.Token) ([]Event, error) {
	var claims struct {
		Events json.RawMessage `json:"events"`
	}
	if err := tok.DecodeClaims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedNotification, err)
	}
	raw := bytes.TrimSpace(claims.Events)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrMalformedNotification
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedNotification, err)
	}
	events := make([]Event, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("event %d is not an object: %w", i, ErrMalformedNotification)
		}
		var e Event
		if err := json.Unmarshal(item, &e); err != nil {
			return nil, fmt.Errorf("event %d: %w: %w", i, ErrMalformedNotification, err)
		}
		events = append(events, e)
	}
	return events, nil
}
