package template

// Document is a parsed template: an ordered tree of literal
// spans, conditional blocks and interpolations. It is built
// once by Parse, never mutated afterward, and may be rendered
// any number of times against different snapshots.
type Document struct {
	src   string
	nodes []node
}

// node is the closed set of document tree variants.
type node interface {
	isNode()
}

type literalNode struct {
	text string
}

type interpNode struct {
	path   identExpr
	offset int
}

type branch struct {
	cond expr
	body *Document
}

type conditionalNode struct {
	branches []branch
	elseDoc  *Document
}

func (literalNode) isNode()     {}
func (interpNode) isNode()      {}
func (conditionalNode) isNode() {}

// frame accumulates one in-progress conditional while its
// endif is still outstanding.
type frame struct {
	branches   []branch
	elseNodes  []node
	cur        []node
	cond       expr
	openOffset int
	seenElse   bool
}

// parse consumes the lexer's token stream and builds the
// document tree, validating structural well-formedness.
func parse(lx *lexer) (*Document, error) {
	root := []node{}

	var stack []*frame

	// sink returns the node accumulator currently receiving
	// parsed nodes: the innermost open branch, or the root.
	sink := func() *[]node {
		if len(stack) == 0 {
			return &root
		}

		return &stack[len(stack)-1].cur
	}

	for {
		tok, ok, lexErr := lx.next()
		if lexErr != nil {
			return nil, lexErr
		}

		if !ok {
			break
		}

		switch tok.kind {
		case tokenText:
			*sink() = append(*sink(), literalNode{
				text: tok.text,
			})

		case tokenInterp:
			parsed, err := parseExpr(
				tok.text, tok.payloadOffset, lx.src,
			)
			if err != nil {
				return nil, err
			}

			path, isPath := parsed.(identExpr)
			if !isPath {
				return nil, newError(
					ErrExpressionSyntax, lx.src,
					tok.payloadOffset,
					"interpolation must be a single attribute path",
				)
			}

			*sink() = append(*sink(), interpNode{
				path:   path,
				offset: tok.offset,
			})

		case tokenDirective:
			if err := applyDirective(
				lx.src, &stack, &root, tok,
			); err != nil {
				return nil, err
			}
		}
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]

		return nil, newError(
			ErrUnterminatedConditional, lx.src,
			top.openOffset,
			"if directive is never closed",
		)
	}

	return &Document{src: lx.src, nodes: root}, nil
}

// applyDirective advances the frame stack for one directive
// token.
func applyDirective(
	src string,
	stack *[]*frame,
	root *[]node,
	tok token,
) *Error {
	switch tok.dir {
	case dirIf:
		cond, err := parseExpr(
			tok.text, tok.payloadOffset, src,
		)
		if err != nil {
			return err
		}

		*stack = append(*stack, &frame{
			cond:       cond,
			openOffset: tok.offset,
		})

		return nil

	case dirElif:
		if len(*stack) == 0 {
			return newError(
				ErrUnmatchedDirective, src, tok.offset,
				"elif without open if",
			)
		}

		top := (*stack)[len(*stack)-1]
		if top.seenElse {
			return newError(
				ErrElseIfAfterElse, src, tok.offset,
				"elif after the else branch",
			)
		}

		cond, err := parseExpr(
			tok.text, tok.payloadOffset, src,
		)
		if err != nil {
			return err
		}

		top.closeBranch(src)
		top.cond = cond

		return nil

	case dirElse:
		if len(*stack) == 0 {
			return newError(
				ErrUnmatchedDirective, src, tok.offset,
				"else without open if",
			)
		}

		top := (*stack)[len(*stack)-1]
		if top.seenElse {
			return newError(
				ErrDuplicateElse, src, tok.offset,
				"second else in conditional",
			)
		}

		top.closeBranch(src)
		top.seenElse = true

		return nil

	case dirEndif:
		if len(*stack) == 0 {
			return newError(
				ErrUnmatchedDirective, src, tok.offset,
				"endif without open if",
			)
		}

		top := (*stack)[len(*stack)-1]
		*stack = (*stack)[:len(*stack)-1]

		top.closeBranch(src)

		done := conditionalNode{branches: top.branches}
		if top.seenElse {
			done.elseDoc = &Document{
				src:   src,
				nodes: top.elseNodes,
			}
		}

		if len(*stack) == 0 {
			*root = append(*root, done)
		} else {
			parent := (*stack)[len(*stack)-1]
			parent.cur = append(parent.cur, done)
		}

		return nil
	}

	return nil
}

// closeBranch finalizes the nodes accumulated since the last
// if/elif/else into the proper slot.
func (fr *frame) closeBranch(src string) {
	if fr.seenElse {
		fr.elseNodes = fr.cur
		fr.cur = nil

		return
	}

	fr.branches = append(fr.branches, branch{
		cond: fr.cond,
		body: &Document{src: src, nodes: fr.cur},
	})
	fr.cond = nil
	fr.cur = nil
}
