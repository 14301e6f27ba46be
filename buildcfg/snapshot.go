package buildcfg

import (
	"errors"
	"fmt"
	"strings"
)

// Namespace is the fixed root segment under which all
// configuration attributes are addressed in templates, as in
// "cfg.feature".
const Namespace = "cfg"

// ErrUnknownAttribute is matched by errors.Is for attribute
// paths that do not resolve against a snapshot.
var ErrUnknownAttribute = errors.New("unknown attribute")

// UnknownAttributeError reports a dotted attribute path that
// is absent from the snapshot. A missing attribute is always a
// hard error rather than an implicit false, since it usually
// signals a typo in the template.
type UnknownAttributeError struct {
	Path string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("unknown attribute %q", e.Path)
}

func (e *UnknownAttributeError) Is(target error) bool {
	return target == ErrUnknownAttribute
}

// Resolver is the lookup capability the template evaluator
// depends on. It resolves a dotted attribute path such as
// "cfg.feature" to a Value, or fails with an error matching
// ErrUnknownAttribute.
type Resolver interface {
	Resolve(path string) (Value, error)
}

// Snapshot is an immutable set of configuration attributes
// under the "cfg" namespace. It is constructed once per
// invocation and never mutated afterward, so it is safe to
// share across renders.
type Snapshot struct {
	attrs map[string]Value
}

// NewSnapshot merges attribute maps into a snapshot. Later
// sources override earlier ones key by key.
func NewSnapshot(sources ...map[string]Value) *Snapshot {
	attrs := make(map[string]Value)

	for _, src := range sources {
		for name, val := range src {
			attrs[name] = val
		}
	}

	return &Snapshot{attrs: attrs}
}

// Resolve implements Resolver. Only two-segment paths rooted
// at the "cfg" namespace resolve; everything else fails with
// an UnknownAttributeError carrying the full path.
func (s *Snapshot) Resolve(path string) (Value, error) {
	root, attr, ok := strings.Cut(path, ".")
	if !ok || root != Namespace || strings.Contains(attr, ".") {
		return Value{}, &UnknownAttributeError{Path: path}
	}

	val, found := s.attrs[attr]
	if !found {
		return Value{}, &UnknownAttributeError{Path: path}
	}

	return val, nil
}

// Len returns the number of attributes in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.attrs)
}
