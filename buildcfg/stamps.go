package buildcfg

import (
	"fmt"
	"os"
	"strings"

	"github.com/valyala/fasttemplate"
)

// LoadStamps reads workspace status files and merges them into
// a single stamp map. Each line is "KEY VALUE" with the first
// space as delimiter. Lines without a space are silently
// skipped. Later files override earlier ones.
func LoadStamps(
	infoFiles []string,
) (map[string]interface{}, error) {
	const errCtx = "loading stamps"

	stamps := make(map[string]interface{})

	for _, sf := range infoFiles {
		content, err := os.ReadFile(sf) //nolint:gosec // paths from CLI flags
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		for _, line := range strings.Split(
			string(content), "\n",
		) {
			parts := strings.SplitN(line, " ", 2)
			if len(parts) == 2 {
				stamps[parts[0]] = parts[1]
			}
		}
	}

	return stamps, nil
}

// ParseAssignments turns "name=value" attribute assignments
// into attributes. Values may reference workspace status
// variables with single-brace {VAR} placeholders, substituted
// from stamps before conversion; unknown placeholders are
// preserved as-is. Comma-separated values become sets, like
// environment-derived attributes.
func ParseAssignments(
	assignments []string,
	stamps map[string]interface{},
) (map[string]Value, error) {
	const errCtx = "parsing assignments"

	attrs := make(map[string]Value, len(assignments))

	for _, as := range assignments {
		name, raw, ok := strings.Cut(as, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf(
				"%s: assignment must be name=value, got %q",
				errCtx, as,
			)
		}

		if len(stamps) > 0 {
			raw = fasttemplate.ExecuteStringStd(
				raw, "{", "}", stamps,
			)
		}

		attrs[name] = ParseValue(raw)
	}

	return attrs, nil
}
