package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Int64Array maps a Postgres bigint[] column onto a Go slice.
type Int64Array []int64

func (a *Int64Array) Scan(src any) error {
	if src == nil {
		*a = Int64Array{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return a.parseFromString(v)
	case []byte:
		return a.parseFromString(string(v))
	default:
		return fmt.Errorf("Int64Array: unsupported Scan type %T", src)
	}
}

func (a Int64Array) Value() (driver.Value, error) {
	// Postgres array literal: {1,2}
	if len(a) == 0 {
		return "{}", nil
	}
	parts := make([]string, 0, len(a))
	for _, id := range a {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// Contains reports whether the array holds the given id.
func (a Int64Array) Contains(id int64) bool {
	for _, candidate := range a {
		if candidate == id {
			return true
		}
	}
	return false
}

func (a *Int64Array) parseFromString(s string) error {
	s = strings.TrimSpace(s)
	if s == "{}" || s == "" {
		*a = Int64Array{}
		return nil
	}
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if strings.TrimSpace(s) == "" {
		*a = Int64Array{}
		return nil
	}

	raw := strings.Split(s, ",")
	out := make([]int64, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(strings.Trim(r, `"`))
		id, err := strconv.ParseInt(r, 10, 64)
		if err != nil {
			return fmt.Errorf("Int64Array: parse %q: %w", r, err)
		}
		out = append(out, id)
	}
	*a = Int64Array(out)
	return nil
}
