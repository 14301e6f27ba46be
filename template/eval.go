package template

import (
	"strconv"

	"github.com/byte4ever/minilink/buildcfg"
)

// The recognized predicate functions form a fixed set. Adding
// one means extending evalCall, not registering a plugin.
//
//	contains(cfg.attr, "x") — membership in a multi-valued attribute
//	equals(cfg.attr, "x")   — string equality on a scalar attribute

// evalPredicate evaluates an expression in boolean position.
// Evaluation is pure: it only reads the resolver.
func evalPredicate(
	parsed expr,
	src string,
	res buildcfg.Resolver,
) (bool, *Error) {
	switch typed := parsed.(type) {
	case orExpr:
		lhs, err := evalPredicate(typed.lhs, src, res)
		if err != nil {
			return false, err
		}

		if lhs {
			return true, nil
		}

		return evalPredicate(typed.rhs, src, res)

	case andExpr:
		lhs, err := evalPredicate(typed.lhs, src, res)
		if err != nil {
			return false, err
		}

		if !lhs {
			return false, nil
		}

		return evalPredicate(typed.rhs, src, res)

	case notExpr:
		inner, err := evalPredicate(typed.operand, src, res)
		if err != nil {
			return false, err
		}

		return !inner, nil

	case callExpr:
		return evalCall(typed, src, res)

	case identExpr:
		return false, newError(
			ErrTypeMismatch, src, typed.offset,
			"attribute path "+strconv.Quote(typed.path)+
				" is not a boolean; use contains or equals",
		)

	case stringExpr:
		return false, newError(
			ErrTypeMismatch, src, typed.offset,
			"string literal is not a boolean",
		)
	}

	// Unreachable: the variant set is closed.
	return false, newError(
		ErrExpressionSyntax, src, 0,
		"unsupported expression",
	)
}

// evalCall dispatches a function call by name.
func evalCall(
	call callExpr,
	src string,
	res buildcfg.Resolver,
) (bool, *Error) {
	switch call.name {
	case "contains":
		return evalContains(call, src, res)
	case "equals":
		return evalEquals(call, src, res)
	}

	return false, newError(
		ErrUnknownFunction, src, call.offset,
		"unknown function "+strconv.Quote(call.name),
	)
}

// evalContains tests membership of a literal in a multi-valued
// attribute: contains(cfg.feature, "alloc").
func evalContains(
	call callExpr,
	src string,
	res buildcfg.Resolver,
) (bool, *Error) {
	path, val, err := resolveAttrArg(call, src, res)
	if err != nil {
		return false, err
	}

	members, ok := val.Members()
	if !ok {
		return false, newError(
			ErrTypeMismatch, src, call.args[0].(identExpr).offset,
			"attribute "+strconv.Quote(path)+
				" is not multi-valued",
		)
	}

	needle, err := evalScalarArg(call.args[1], src, res)
	if err != nil {
		return false, err
	}

	for _, member := range members {
		if member == needle {
			return true, nil
		}
	}

	return false, nil
}

// evalEquals compares a scalar attribute against a literal:
// equals(cfg.target_arch, "riscv32").
func evalEquals(
	call callExpr,
	src string,
	res buildcfg.Resolver,
) (bool, *Error) {
	path, val, err := resolveAttrArg(call, src, res)
	if err != nil {
		return false, err
	}

	scalar, ok := val.Scalar()
	if !ok {
		return false, newError(
			ErrTypeMismatch, src, call.args[0].(identExpr).offset,
			"attribute "+strconv.Quote(path)+
				" is not a scalar",
		)
	}

	want, err := evalScalarArg(call.args[1], src, res)
	if err != nil {
		return false, err
	}

	return scalar == want, nil
}

// resolveAttrArg checks the common shape of the recognized
// functions (exactly two arguments, the first an attribute
// path) and resolves the path against the snapshot.
func resolveAttrArg(
	call callExpr,
	src string,
	res buildcfg.Resolver,
) (string, buildcfg.Value, *Error) {
	if len(call.args) != 2 {
		return "", buildcfg.Value{}, newError(
			ErrTypeMismatch, src, call.offset,
			call.name+" takes exactly two arguments",
		)
	}

	path, ok := call.args[0].(identExpr)
	if !ok {
		return "", buildcfg.Value{}, newError(
			ErrTypeMismatch, src, call.offset,
			"first argument of "+call.name+
				" must be an attribute path",
		)
	}

	val, err := resolvePath(path, src, res)
	if err != nil {
		return "", buildcfg.Value{}, err
	}

	return path.path, val, nil
}

// evalScalarArg evaluates a function argument that must yield
// a single string: a quoted literal or a scalar attribute.
func evalScalarArg(
	arg expr,
	src string,
	res buildcfg.Resolver,
) (string, *Error) {
	switch typed := arg.(type) {
	case stringExpr:
		return typed.value, nil

	case identExpr:
		val, err := resolvePath(typed, src, res)
		if err != nil {
			return "", err
		}

		scalar, ok := val.Scalar()
		if !ok {
			return "", newError(
				ErrTypeMismatch, src, typed.offset,
				"attribute "+strconv.Quote(typed.path)+
					" is not a scalar",
			)
		}

		return scalar, nil
	}

	return "", newError(
		ErrTypeMismatch, src, argOffset(arg),
		"argument must be an attribute path or string literal",
	)
}

// resolvePath looks a dotted path up in the snapshot, mapping
// resolution failures onto the unknown-attribute kind.
func resolvePath(
	path identExpr,
	src string,
	res buildcfg.Resolver,
) (buildcfg.Value, *Error) {
	val, err := res.Resolve(path.path)
	if err != nil {
		return buildcfg.Value{}, newError(
			ErrUnknownAttribute, src, path.offset,
			strconv.Quote(path.path),
		)
	}

	return val, nil
}

// argOffset extracts a source offset from any expression
// variant for error reporting.
func argOffset(parsed expr) int {
	switch typed := parsed.(type) {
	case callExpr:
		return typed.offset
	case identExpr:
		return typed.offset
	case stringExpr:
		return typed.offset
	}

	return 0
}
