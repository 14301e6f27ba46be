package template

import (
	"strconv"
	"strings"
)

// Directive and interpolation markers are fixed; templates in
// the wild depend on them byte for byte.
const (
	dirOpen    = "{%"
	dirClose   = "%}"
	interpOpen = "{{"
	interpEnd  = "}}"
)

type directiveKind int

const (
	dirIf directiveKind = iota
	dirElif
	dirElse
	dirEndif
)

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenDirective
	tokenInterp
)

// token is one lexical element of a template: a literal text
// run, a {% ... %} directive, or a {{ ... }} interpolation.
// offset is the byte offset of the token start (the marker for
// directives and interpolations); payloadOffset locates the
// trimmed payload within the source for expression errors.
type token struct {
	text          string
	kind          tokenKind
	dir           directiveKind
	offset        int
	payloadOffset int
}

// lexer splits template source into tokens. It is a pull
// lexer: the parser calls next until ok is false.
type lexer struct {
	src          string
	pos          int
	trimBlocks   bool
	lstripBlocks bool
}

// next returns the next token. ok is false at end of input.
func (lx *lexer) next() (tok token, ok bool, err *Error) {
	if lx.pos >= len(lx.src) {
		return token{}, false, nil
	}

	marker := lx.nextMarker()

	if marker > lx.pos {
		text := lx.text(marker)
		lx.pos = marker

		// Stripping may consume the whole segment, e.g. an
		// indented directive on its own line.
		if text != "" {
			return token{
				kind:   tokenText,
				text:   text,
				offset: marker - len(text),
			}, true, nil
		}
	}

	if lx.pos >= len(lx.src) {
		return token{}, false, nil
	}

	if strings.HasPrefix(lx.src[lx.pos:], dirOpen) {
		return lx.directive()
	}

	return lx.interp()
}

// nextMarker returns the offset of the nearest marker at or
// after the current position, or len(src) if none remains.
func (lx *lexer) nextMarker() int {
	marker := len(lx.src)

	if idx := strings.Index(
		lx.src[lx.pos:], dirOpen,
	); idx >= 0 && lx.pos+idx < marker {
		marker = lx.pos + idx
	}

	if idx := strings.Index(
		lx.src[lx.pos:], interpOpen,
	); idx >= 0 && lx.pos+idx < marker {
		marker = lx.pos + idx
	}

	return marker
}

// text returns the literal run from the current position up to
// marker, applying lstrip-blocks: when the upcoming marker is
// a directive preceded on its line only by spaces and tabs,
// that indentation is dropped.
func (lx *lexer) text(marker int) string {
	end := marker

	if lx.lstripBlocks &&
		strings.HasPrefix(lx.src[marker:], dirOpen) {
		idx := marker
		for idx > lx.pos &&
			(lx.src[idx-1] == ' ' || lx.src[idx-1] == '\t') {
			idx--
		}

		if idx < marker &&
			(idx == 0 || lx.src[idx-1] == '\n') {
			end = idx
		}
	}

	return lx.src[lx.pos:end]
}

// directive lexes one {% ... %} tag.
func (lx *lexer) directive() (token, bool, *Error) {
	open := lx.pos

	closeAt := scanMarkerEnd(
		lx.src, open+len(dirOpen), dirClose,
	)
	if closeAt < 0 {
		return token{}, false, newError(
			ErrMalformedDirective, lx.src, open,
			"missing closing %}",
		)
	}

	inner := lx.src[open+len(dirOpen) : closeAt]

	trimmed := strings.TrimLeft(inner, " \t\r\n")
	kwOffset := open + len(dirOpen) + len(inner) - len(trimmed)

	keyword := trimmed
	rest := ""

	if idx := strings.IndexAny(keyword, " \t\r\n"); idx >= 0 {
		keyword, rest = trimmed[:idx], trimmed[idx:]
	}

	payload := strings.TrimLeft(rest, " \t\r\n")
	payloadOffset := kwOffset + len(trimmed) - len(payload)
	payload = strings.TrimRight(payload, " \t\r\n")

	tok := token{
		kind:          tokenDirective,
		text:          payload,
		offset:        open,
		payloadOffset: payloadOffset,
	}

	switch keyword {
	case "if":
		tok.dir = dirIf
	case "elif":
		tok.dir = dirElif
	case "else":
		tok.dir = dirElse
	case "endif":
		tok.dir = dirEndif
	default:
		return token{}, false, newError(
			ErrMalformedDirective, lx.src, open,
			"unknown directive "+strconv.Quote(keyword),
		)
	}

	switch tok.dir {
	case dirIf, dirElif:
		if payload == "" {
			return token{}, false, newError(
				ErrMalformedDirective, lx.src, open,
				keyword+" directive requires a predicate",
			)
		}
	case dirElse, dirEndif:
		if payload != "" {
			return token{}, false, newError(
				ErrMalformedDirective, lx.src, open,
				keyword+" directive takes no arguments",
			)
		}
	}

	lx.pos = closeAt + len(dirClose)

	if lx.trimBlocks {
		lx.skipNewline()
	}

	return tok, true, nil
}

// interp lexes one {{ ... }} tag.
func (lx *lexer) interp() (token, bool, *Error) {
	open := lx.pos

	closeAt := scanMarkerEnd(
		lx.src, open+len(interpOpen), interpEnd,
	)
	if closeAt < 0 {
		return token{}, false, newError(
			ErrMalformedDirective, lx.src, open,
			"missing closing }}",
		)
	}

	inner := lx.src[open+len(interpOpen) : closeAt]

	payload := strings.TrimLeft(inner, " \t\r\n")
	payloadOffset := open + len(interpOpen) +
		len(inner) - len(payload)
	payload = strings.TrimRight(payload, " \t\r\n")

	lx.pos = closeAt + len(interpEnd)

	return token{
		kind:          tokenInterp,
		text:          payload,
		offset:        open,
		payloadOffset: payloadOffset,
	}, true, nil
}

// skipNewline consumes a single newline (LF or CRLF) directly
// after a directive tag, implementing trim-blocks.
func (lx *lexer) skipNewline() {
	if strings.HasPrefix(lx.src[lx.pos:], "\r\n") {
		lx.pos += 2
		return
	}

	if strings.HasPrefix(lx.src[lx.pos:], "\n") {
		lx.pos++
	}
}

// scanMarkerEnd finds the closing marker starting at from,
// skipping over double-quoted string literals so a close
// sequence inside a quoted payload argument does not terminate
// the tag. Returns -1 if the marker is never closed.
func scanMarkerEnd(src string, from int, closing string) int {
	idx := from

	for idx+len(closing) <= len(src) {
		if src[idx] == '"' {
			after := skipQuoted(src, idx)
			if after < 0 {
				return -1
			}

			idx = after

			continue
		}

		if src[idx:idx+len(closing)] == closing {
			return idx
		}

		idx++
	}

	return -1
}

// skipQuoted returns the index just past a double-quoted
// string starting at open, honoring backslash escapes, or -1
// when unterminated.
func skipQuoted(src string, open int) int {
	idx := open + 1

	for idx < len(src) {
		switch src[idx] {
		case '\\':
			idx += 2
		case '"':
			return idx + 1
		default:
			idx++
		}
	}

	return -1
}
