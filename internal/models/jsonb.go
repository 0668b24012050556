package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// The list types below are stored as JSONB arrays.

type RatingSummaries []RatingSummary

type UserComments []UserComment

type UserRatings []UserRating

type Comments []Comment

func (s RatingSummaries) Value() (driver.Value, error) { return marshalList(s, len(s)) }
func (s *RatingSummaries) Scan(src interface{}) error { return scanList(src, s) }

func (c UserComments) Value() (driver.Value, error) { return marshalList(c, len(c)) }
func (c *UserComments) Scan(src interface{}) error { return scanList(src, c) }

func (u UserRatings) Value() (driver.Value, error) { return marshalList(u, len(u)) }
func (u *UserRatings) Scan(src interface{}) error { return scanList(src, u) }

func (c Comments) Value() (driver.Value, error) { return marshalList(c, len(c)) }
func (c *Comments) Scan(src interface{}) error { return scanList(src, c) }

// marshalList returns a string, lib/pq would send []byte as bytea.
func marshalList(v interface{}, n int) (driver.Value, error) {
	if n == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error encoding JSONB column: %w", err)
	}
	return string(data), nil
}

func scanList(src interface{}, dst interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		data = []byte("[]")
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", src)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("error decoding JSONB column: %w", err)
	}
	return nil
}
