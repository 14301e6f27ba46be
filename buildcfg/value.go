package buildcfg

import "strings"

// Value is a single configuration attribute value: either a
// scalar string or a set of strings. The zero Value is the
// empty scalar.
type Value struct {
	members []string
	scalar  string
	multi   bool
}

// String returns a scalar Value.
func String(s string) Value {
	return Value{scalar: s}
}

// Set returns a multi-valued Value with the given members.
func Set(members ...string) Value {
	return Value{members: members, multi: true}
}

// Scalar returns the scalar string and true if the value is
// scalar.
func (v Value) Scalar() (string, bool) {
	if v.multi {
		return "", false
	}

	return v.scalar, true
}

// Members returns the member list and true if the value is
// multi-valued.
func (v Value) Members() ([]string, bool) {
	if !v.multi {
		return nil, false
	}

	return v.members, true
}

// Contains reports whether s is a member of a multi-valued
// value. It is always false for scalars.
func (v Value) Contains(s string) bool {
	if !v.multi {
		return false
	}

	for _, member := range v.members {
		if member == s {
			return true
		}
	}

	return false
}

// ParseValue converts a raw attribute string into a Value.
// Comma-separated strings become sets, anything else stays a
// scalar. This mirrors how build systems encode multi-valued
// configuration in environment variables.
func ParseValue(raw string) Value {
	if strings.Contains(raw, ",") {
		return Set(strings.Split(raw, ",")...)
	}

	return String(raw)
}
