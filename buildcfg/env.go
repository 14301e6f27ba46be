package buildcfg

import (
	"os"
	"strings"
)

// FromEnviron scans the process environment for variables
// starting with prefix and converts them into attributes. See
// ParseEnviron for the conversion rules.
func FromEnviron(prefix string) map[string]Value {
	return ParseEnviron(os.Environ(), prefix)
}

// ParseEnviron converts "KEY=VALUE" environment entries into
// attributes. Entries not starting with prefix are skipped.
// The prefix is stripped and the remaining name lowercased, so
// with prefix "CARGO_CFG_" the entry "CARGO_CFG_FEATURE=alloc,net"
// becomes the attribute "feature" holding the set {alloc, net}.
// Comma-separated values become sets, others scalars.
func ParseEnviron(
	environ []string,
	prefix string,
) map[string]Value {
	attrs := make(map[string]Value)

	if prefix == "" {
		return attrs
	}

	for _, entry := range environ {
		name, raw, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}

		attr, found := strings.CutPrefix(name, prefix)
		if !found || attr == "" {
			continue
		}

		attrs[strings.ToLower(attr)] = ParseValue(raw)
	}

	return attrs
}
