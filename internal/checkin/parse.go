// Package checkin turns a scanned QR payload into an attendance registration.
package checkin

import (
	"encoding/json"
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidCode is returned when a payload carries no activity id.
var ErrInvalidCode = errors.New("qr code does not identify an activity")

// idKeys are the query and JSON keys that may carry the activity id, in precedence order.
var idKeys = []string{"palestraId", "atividadeId", "id"}

// ParseActivityID extracts the activity id from a scanned payload. Accepted forms:
// a bare UUID, a URL with one of idKeys in its query or a UUID as its last
// path segment, or a JSON object with one of idKeys.
func ParseActivityID(payload string) (uuid.UUID, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return uuid.Nil, ErrInvalidCode
	}
	if id, err := uuid.Parse(payload); err == nil {
		return nonNil(id)
	}
	if strings.HasPrefix(payload, "{") {
		return fromJSON(payload)
	}
	if u, err := url.Parse(payload); err == nil && (u.Scheme != "" || u.RawQuery != "") {
		return fromURL(u)
	}
	return uuid.Nil, ErrInvalidCode
}

func fromJSON(payload string) (uuid.UUID, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return uuid.Nil, ErrInvalidCode
	}
	for _, k := range idKeys {
		if s, ok := fields[k].(string); ok {
			if id, err := uuid.Parse(s); err == nil {
				return nonNil(id)
			}
		}
	}
	return uuid.Nil, ErrInvalidCode
}

func fromURL(u *url.URL) (uuid.UUID, error) {
	q := u.Query()
	for _, k := range idKeys {
		if v := q.Get(k); v != "" {
			if id, err := uuid.Parse(v); err == nil {
				return nonNil(id)
			}
		}
	}
	if last := path.Base(u.Path); last != "" && last != "/" && last != "." {
		if id, err := uuid.Parse(last); err == nil {
			return nonNil(id)
		}
	}
	return uuid.Nil, ErrInvalidCode
}

func nonNil(id uuid.UUID) (uuid.UUID, error) {
	if id == uuid.Nil {
		return uuid.Nil, ErrInvalidCode
	}
	return id, nil
}
