// Binary minilink expands a conditional linker-script template
// against a build configuration snapshot assembled from
// environment variables, snapshot files and explicit attribute
// assignments.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/byte4ever/minilink/buildcfg"
	"github.com/byte4ever/minilink/template"
)

type arrayFlags []string

func (af *arrayFlags) String() string {
	return ""
}

func (af *arrayFlags) Set(value string) error {
	*af = append(*af, value)
	return nil
}

func run() error {
	const errCtx = "minilink"

	var (
		contextFiles   arrayFlags
		assignments    arrayFlags
		stampInfoFiles arrayFlags
	)

	var (
		tpl          string
		output       string
		envPrefix    string
		trimBlocks   bool
		lstripBlocks bool
	)

	flag.Var(
		&contextFiles,
		"context",
		"YAML or JSON configuration snapshot file (repeatable)",
	)

	flag.Var(
		&assignments,
		"set",
		"attribute in name=value format (repeatable)",
	)

	flag.Var(
		&stampInfoFiles,
		"stamp-info-file",
		"path to workspace status file (repeatable)",
	)

	flag.StringVar(
		&tpl, "template", "",
		"input template file path (stdin if empty)",
	)

	flag.StringVar(
		&output, "output", "",
		"output file path (stdout if empty)",
	)

	flag.StringVar(
		&envPrefix, "env-prefix", "",
		"environment variable prefix to scan for"+
			" attributes (disabled if empty)",
	)

	flag.BoolVar(
		&trimBlocks, "trim-blocks", true,
		"drop the first newline after a directive tag",
	)

	flag.BoolVar(
		&lstripBlocks, "lstrip-blocks", true,
		"drop indentation before a directive tag on its own line",
	)

	flag.Parse()

	snapshot, err := buildSnapshot(
		envPrefix, contextFiles, assignments,
		stampInfoFiles,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	en := template.Engine{
		TrimBlocks:   trimBlocks,
		LstripBlocks: lstripBlocks,
	}

	if err := en.ExpandFile(tpl, output, snapshot); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// buildSnapshot materializes the configuration snapshot from
// all sources. Environment attributes come first, snapshot
// files next, explicit assignments last, each layer overriding
// the previous one.
func buildSnapshot(
	envPrefix string,
	contextFiles []string,
	assignments []string,
	stampInfoFiles []string,
) (*buildcfg.Snapshot, error) {
	const errCtx = "building snapshot"

	sources := []map[string]buildcfg.Value{}

	if envPrefix != "" {
		sources = append(
			sources, buildcfg.FromEnviron(envPrefix),
		)
	}

	for _, cf := range contextFiles {
		attrs, err := buildcfg.LoadFile(cf)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		sources = append(sources, attrs)
	}

	if len(assignments) > 0 {
		stamps, err := buildcfg.LoadStamps(stampInfoFiles)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		attrs, err := buildcfg.ParseAssignments(
			assignments, stamps,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		sources = append(sources, attrs)
	}

	return buildcfg.NewSnapshot(sources...), nil
}

func main() {
	if err := run(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
