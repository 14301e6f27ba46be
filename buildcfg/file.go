package buildcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// LoadFile reads a configuration snapshot file and converts it
// into attributes. The format is chosen by extension: .json is
// decoded as JSON, anything else as YAML. The file must hold a
// single mapping of attribute name to either a string (scalar)
// or a list of strings (set), e.g.
//
//	feature: [alloc, net]
//	target_arch: riscv32
func LoadFile(path string) (map[string]Value, error) {
	const errCtx = "loading config file"

	content, err := os.ReadFile(path) //nolint:gosec // paths from CLI flags
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var raw map[string]interface{}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(content, &raw)
	} else {
		err = yaml.Unmarshal(content, &raw)
	}

	if err != nil {
		return nil, fmt.Errorf(
			"%s: decoding %s: %w", errCtx, path, err,
		)
	}

	attrs := make(map[string]Value, len(raw))

	for name, val := range raw {
		converted, err := convertAttr(val)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: attribute %q in %s: %w",
				errCtx, name, path, err,
			)
		}

		attrs[name] = converted
	}

	return attrs, nil
}

// convertAttr maps a decoded YAML/JSON value onto the
// scalar-or-set attribute model.
func convertAttr(val interface{}) (Value, error) {
	switch typed := val.(type) {
	case string:
		return String(typed), nil
	case []interface{}:
		members := make([]string, 0, len(typed))

		for _, item := range typed {
			member, ok := item.(string)
			if !ok {
				return Value{}, fmt.Errorf(
					"set member must be a string, got %T",
					item,
				)
			}

			members = append(members, member)
		}

		return Set(members...), nil
	default:
		return Value{}, fmt.Errorf(
			"must be a string or list of strings, got %T",
			val,
		)
	}
}
