package template

import (
	"strconv"
	"strings"
)

// Predicate expressions form a closed grammar: boolean
// combinators over function calls, dotted attribute paths and
// quoted string literals. The variants below are the whole
// language; there is deliberately no open-ended dispatch.
type expr interface {
	isExpr()
}

type orExpr struct {
	lhs expr
	rhs expr
}

type andExpr struct {
	lhs expr
	rhs expr
}

type notExpr struct {
	operand expr
}

type callExpr struct {
	name   string
	args   []expr
	offset int
}

type identExpr struct {
	path   string
	offset int
}

type stringExpr struct {
	value  string
	offset int
}

func (orExpr) isExpr()     {}
func (andExpr) isExpr()    {}
func (notExpr) isExpr()    {}
func (callExpr) isExpr()   {}
func (identExpr) isExpr()  {}
func (stringExpr) isExpr() {}

type exprTokenKind int

const (
	exprIdent exprTokenKind = iota
	exprString
	exprLParen
	exprRParen
	exprComma
	exprEnd
)

// exprToken is one lexical element of a predicate payload.
// offset is absolute within the template source so expression
// errors locate the fault in the full template.
type exprToken struct {
	text   string
	kind   exprTokenKind
	offset int
}

// parseExpr parses a predicate payload into an expression
// tree. base is the payload's absolute offset within src.
func parseExpr(
	payload string,
	base int,
	src string,
) (expr, *Error) {
	tokens, err := lexExpr(payload, base, src)
	if err != nil {
		return nil, err
	}

	ep := &exprParser{tokens: tokens, src: src}

	parsed, err := ep.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := ep.peek(); tok.kind != exprEnd {
		return nil, newError(
			ErrExpressionSyntax, src, tok.offset,
			"trailing tokens after expression",
		)
	}

	return parsed, nil
}

// lexExpr tokenizes a predicate payload.
func lexExpr(
	payload string,
	base int,
	src string,
) ([]exprToken, *Error) {
	var tokens []exprToken

	idx := 0

	for idx < len(payload) {
		ch := payload[idx]

		switch {
		case ch == ' ' || ch == '\t' ||
			ch == '\r' || ch == '\n':
			idx++

		case ch == '(':
			tokens = append(tokens, exprToken{
				kind: exprLParen, offset: base + idx,
			})
			idx++

		case ch == ')':
			tokens = append(tokens, exprToken{
				kind: exprRParen, offset: base + idx,
			})
			idx++

		case ch == ',':
			tokens = append(tokens, exprToken{
				kind: exprComma, offset: base + idx,
			})
			idx++

		case ch == '"':
			value, width, err := lexString(
				payload[idx:], base+idx, src,
			)
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, exprToken{
				kind:   exprString,
				text:   value,
				offset: base + idx,
			})
			idx += width

		case isIdentStart(ch):
			start := idx
			for idx < len(payload) &&
				isIdentByte(payload[idx]) {
				idx++
			}

			path := payload[start:idx]
			if !validPath(path) {
				return nil, newError(
					ErrExpressionSyntax, src, base+start,
					"malformed attribute path "+
						strconv.Quote(path),
				)
			}

			tokens = append(tokens, exprToken{
				kind:   exprIdent,
				text:   path,
				offset: base + start,
			})

		default:
			return nil, newError(
				ErrExpressionSyntax, src, base+idx,
				"unexpected character "+
					strconv.QuoteRune(rune(ch)),
			)
		}
	}

	tokens = append(tokens, exprToken{
		kind: exprEnd, offset: base + len(payload),
	})

	return tokens, nil
}

// lexString decodes a double-quoted literal at the start of
// payload, returning the decoded value and the number of
// source bytes consumed.
func lexString(
	payload string,
	abs int,
	src string,
) (string, int, *Error) {
	var sb strings.Builder

	idx := 1

	for idx < len(payload) {
		ch := payload[idx]

		switch ch {
		case '"':
			return sb.String(), idx + 1, nil

		case '\\':
			if idx+1 >= len(payload) {
				return "", 0, newError(
					ErrExpressionSyntax, src, abs,
					"unterminated string literal",
				)
			}

			esc := payload[idx+1]

			switch esc {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				return "", 0, newError(
					ErrExpressionSyntax, src, abs+idx,
					"unknown escape sequence \\"+
						string(esc),
				)
			}

			idx += 2

		default:
			sb.WriteByte(ch)
			idx++
		}
	}

	return "", 0, newError(
		ErrExpressionSyntax, src, abs,
		"unterminated string literal",
	)
}

func isIdentStart(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z')
}

func isIdentByte(ch byte) bool {
	return isIdentStart(ch) || ch == '.' ||
		(ch >= '0' && ch <= '9')
}

// validPath checks that every dot-separated segment of a path
// is a well-formed identifier.
func validPath(path string) bool {
	for _, segment := range strings.Split(path, ".") {
		if segment == "" || !isIdentStart(segment[0]) {
			return false
		}
	}

	return true
}

// exprParser is a recursive-descent parser over the token
// slice. Precedence, loosest first: or, and, not.
type exprParser struct {
	tokens []exprToken
	src    string
	pos    int
}

func (ep *exprParser) peek() exprToken {
	return ep.tokens[ep.pos]
}

func (ep *exprParser) advance() exprToken {
	tok := ep.tokens[ep.pos]
	ep.pos++

	return tok
}

// atKeyword reports whether the next token is the given bare
// keyword.
func (ep *exprParser) atKeyword(kw string) bool {
	tok := ep.peek()

	return tok.kind == exprIdent && tok.text == kw
}

func (ep *exprParser) parseOr() (expr, *Error) {
	lhs, err := ep.parseAnd()
	if err != nil {
		return nil, err
	}

	for ep.atKeyword("or") {
		ep.advance()

		rhs, err := ep.parseAnd()
		if err != nil {
			return nil, err
		}

		lhs = orExpr{lhs: lhs, rhs: rhs}
	}

	return lhs, nil
}

func (ep *exprParser) parseAnd() (expr, *Error) {
	lhs, err := ep.parseNot()
	if err != nil {
		return nil, err
	}

	for ep.atKeyword("and") {
		ep.advance()

		rhs, err := ep.parseNot()
		if err != nil {
			return nil, err
		}

		lhs = andExpr{lhs: lhs, rhs: rhs}
	}

	return lhs, nil
}

func (ep *exprParser) parseNot() (expr, *Error) {
	if ep.atKeyword("not") {
		ep.advance()

		operand, err := ep.parseNot()
		if err != nil {
			return nil, err
		}

		return notExpr{operand: operand}, nil
	}

	return ep.parsePrimary()
}

func (ep *exprParser) parsePrimary() (expr, *Error) {
	tok := ep.peek()

	switch tok.kind {
	case exprLParen:
		ep.advance()

		inner, err := ep.parseOr()
		if err != nil {
			return nil, err
		}

		if ep.peek().kind != exprRParen {
			return nil, newError(
				ErrExpressionSyntax, ep.src,
				ep.peek().offset,
				"missing closing parenthesis",
			)
		}

		ep.advance()

		return inner, nil

	case exprString:
		ep.advance()

		return stringExpr{
			value:  tok.text,
			offset: tok.offset,
		}, nil

	case exprIdent:
		return ep.parseIdentOrCall()

	default:
		return nil, newError(
			ErrExpressionSyntax, ep.src, tok.offset,
			"expected expression",
		)
	}
}

// parseIdentOrCall disambiguates a bare attribute path from a
// function call. Any identifier followed by a parenthesis is
// treated as a call; whether the function exists is decided at
// evaluation time.
func (ep *exprParser) parseIdentOrCall() (expr, *Error) {
	tok := ep.advance()

	switch tok.text {
	case "and", "or", "not":
		return nil, newError(
			ErrExpressionSyntax, ep.src, tok.offset,
			"unexpected keyword "+strconv.Quote(tok.text),
		)
	}

	if ep.peek().kind != exprLParen {
		return identExpr{
			path:   tok.text,
			offset: tok.offset,
		}, nil
	}

	ep.advance()

	call := callExpr{name: tok.text, offset: tok.offset}

	if ep.peek().kind == exprRParen {
		ep.advance()

		return call, nil
	}

	for {
		arg, err := ep.parseOr()
		if err != nil {
			return nil, err
		}

		call.args = append(call.args, arg)

		next := ep.peek()

		if next.kind == exprComma {
			ep.advance()

			continue
		}

		if next.kind == exprRParen {
			ep.advance()

			return call, nil
		}

		return nil, newError(
			ErrExpressionSyntax, ep.src, next.offset,
			"expected comma or closing parenthesis",
		)
	}
}
