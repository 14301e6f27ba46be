package template

import (
	"strconv"
	"strings"

	"github.com/byte4ever/minilink/buildcfg"
)

// Render walks the document against a configuration snapshot
// and returns the surviving text. Branch predicates are
// evaluated in declared order and evaluation stops at the
// first true branch: predicates after it, and everything
// inside unselected branches, are never evaluated, so an
// unknown attribute referenced only in a dead branch cannot
// fail the render. Rendering is deterministic; the same
// document and snapshot always produce byte-identical output.
func (doc *Document) Render(
	res buildcfg.Resolver,
) (string, error) {
	var sb strings.Builder

	if err := doc.render(&sb, res); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func (doc *Document) render(
	sb *strings.Builder,
	res buildcfg.Resolver,
) *Error {
	for _, nd := range doc.nodes {
		switch typed := nd.(type) {
		case literalNode:
			sb.WriteString(typed.text)

		case interpNode:
			if err := doc.renderInterp(
				sb, typed, res,
			); err != nil {
				return err
			}

		case conditionalNode:
			if err := doc.renderConditional(
				sb, typed, res,
			); err != nil {
				return err
			}
		}
	}

	return nil
}

// renderConditional selects at most one branch: the first
// whose predicate is true, else the else branch when present,
// else nothing.
func (doc *Document) renderConditional(
	sb *strings.Builder,
	cond conditionalNode,
	res buildcfg.Resolver,
) *Error {
	for _, br := range cond.branches {
		taken, err := evalPredicate(br.cond, doc.src, res)
		if err != nil {
			return err
		}

		if taken {
			return br.body.render(sb, res)
		}
	}

	if cond.elseDoc != nil {
		return cond.elseDoc.render(sb, res)
	}

	return nil
}

// renderInterp substitutes a scalar attribute value in place
// of a {{ cfg.attr }} tag.
func (doc *Document) renderInterp(
	sb *strings.Builder,
	interp interpNode,
	res buildcfg.Resolver,
) *Error {
	val, err := resolvePath(interp.path, doc.src, res)
	if err != nil {
		return err
	}

	scalar, ok := val.Scalar()
	if !ok {
		return newError(
			ErrTypeMismatch, doc.src, interp.path.offset,
			"attribute "+strconv.Quote(interp.path.path)+
				" is not a scalar",
		)
	}

	sb.WriteString(scalar)

	return nil
}
