package template

import (
	"io"
	"os"
	"path/filepath"

	"github.com/byte4ever/minilink/buildcfg"
	"github.com/byte4ever/minilink/digest"
)

// Engine holds whitespace handling options for parsing. The
// zero Engine preserves template text outside markers byte for
// byte, which is what the worked examples in the tests assume.
type Engine struct {
	// TrimBlocks drops the first newline after a directive
	// tag.
	TrimBlocks bool

	// LstripBlocks drops spaces and tabs preceding a
	// directive tag on its own line.
	LstripBlocks bool
}

// Parse builds a reusable document tree from template source.
func (en Engine) Parse(src string) (*Document, error) {
	doc, err := parse(&lexer{
		src:          src,
		trimBlocks:   en.TrimBlocks,
		lstripBlocks: en.LstripBlocks,
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Render parses src and renders it against the snapshot in one
// call.
func (en Engine) Render(
	src string,
	res buildcfg.Resolver,
) (string, error) {
	doc, err := en.Parse(src)
	if err != nil {
		return "", err
	}

	return doc.Render(res)
}

// Parse builds a document with default whitespace handling.
func Parse(src string) (*Document, error) {
	return Engine{}.Parse(src)
}

// Render renders src with default whitespace handling.
func Render(
	src string,
	res buildcfg.Resolver,
) (string, error) {
	return Engine{}.Render(src, res)
}

// ExpandFile reads the template at inPath (stdin when empty),
// renders it against the snapshot, and writes the result to
// outPath (stdout when empty). The render is fully buffered
// and the output file is written to a temporary sibling and
// renamed into place, so a failed render never leaves a
// partial artifact. When the destination already holds the
// exact rendered content it is left untouched, preserving its
// timestamp for build-system up-to-date checks.
func (en Engine) ExpandFile(
	inPath string,
	outPath string,
	res buildcfg.Resolver,
) error {
	src, err := readTemplate(inPath)
	if err != nil {
		return err
	}

	rendered, err := en.Render(src, res)
	if err != nil {
		return err
	}

	return writeOutput(outPath, rendered)
}

// readTemplate reads the template source from a file path, or
// from stdin when the path is empty.
func readTemplate(inPath string) (string, error) {
	if inPath == "" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", &Error{
				Kind:   ErrIO,
				Detail: "reading stdin",
				Cause:  err,
			}
		}

		return string(content), nil
	}

	content, err := os.ReadFile(inPath) //nolint:gosec // paths from CLI flags
	if err != nil {
		return "", &Error{
			Kind:   ErrIO,
			Detail: "reading template",
			Cause:  err,
		}
	}

	return string(content), nil
}

// writeOutput writes rendered text to outPath atomically, or
// to stdout when outPath is empty.
func writeOutput(outPath string, rendered string) error {
	if outPath == "" {
		if _, err := os.Stdout.WriteString(
			rendered,
		); err != nil {
			return &Error{
				Kind:   ErrIO,
				Detail: "writing to stdout",
				Cause:  err,
			}
		}

		return nil
	}

	existing, err := digest.File(outPath)
	if err == nil && existing != "" &&
		existing == digest.Bytes([]byte(rendered)) {
		return nil
	}

	tmp, err := os.CreateTemp(
		filepath.Dir(outPath),
		filepath.Base(outPath)+".tmp.*",
	)
	if err != nil {
		return &Error{
			Kind:   ErrIO,
			Detail: "creating temporary output",
			Cause:  err,
		}
	}

	if _, err := tmp.WriteString(rendered); err != nil {
		_ = tmp.Close()          //nolint:errcheck // cleanup path
		_ = os.Remove(tmp.Name()) //nolint:errcheck // cleanup path

		return &Error{
			Kind:   ErrIO,
			Detail: "writing output",
			Cause:  err,
		}
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name()) //nolint:errcheck // cleanup path

		return &Error{
			Kind:   ErrIO,
			Detail: "closing output",
			Cause:  err,
		}
	}

	if err := os.Rename(tmp.Name(), outPath); err != nil {
		_ = os.Remove(tmp.Name()) //nolint:errcheck // cleanup path

		return &Error{
			Kind:   ErrIO,
			Detail: "replacing output",
			Cause:  err,
		}
	}

	return nil
}
