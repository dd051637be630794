package extensibility

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
)

// ErrBadExpression is wrapped by every parse failure.
var ErrBadExpression = errors.New("bad guard expression")

// ExpressionGuardResolver compiles guard names of the form "Field op value",
// "Field" or "!Field" against the machine context. Field is an exported
// struct field, a niladic method with one result, or a map key. Supported
// operators are ==, !=, <, <=, > and >=. Values are true, false, nil,
// numbers, or strings (optionally double-quoted).
type ExpressionGuardResolver struct{}

// NewExpressionGuardResolver creates a new ExpressionGuardResolver.
func NewExpressionGuardResolver() *ExpressionGuardResolver {
	return &ExpressionGuardResolver{}
}

var _ core.GuardResolver = (*ExpressionGuardResolver)(nil)

type guardExpr struct {
	field  string
	op     string
	lit    string
	negate bool
}

// Resolve parses expr once; the returned guard evaluates it per event.
func (r *ExpressionGuardResolver) Resolve(expr string) (core.GuardFunc, error) {
	ge, err := parseGuard(expr)
	if err != nil {
		return nil, err
	}
	return func(ctx any, _ primitives.Event) (bool, error) {
		v, err := lookup(ctx, ge.field)
		if err != nil {
			return false, err
		}
		if ge.op == "" {
			b, ok := v.(bool)
			if !ok {
				return false, fmt.Errorf("%s is %T, not bool", ge.field, v)
			}
			return b != ge.negate, nil
		}
		return compare(v, ge.op, ge.lit)
	}, nil
}

func parseGuard(expr string) (guardExpr, error) {
	parts := strings.Fields(expr)
	switch len(parts) {
	case 1:
		f := parts[0]
		neg := strings.HasPrefix(f, "!")
		f = strings.TrimPrefix(f, "!")
		if !isIdent(f) {
			return guardExpr{}, fmt.Errorf("%w: %q", ErrBadExpression, expr)
		}
		return guardExpr{field: f, negate: neg}, nil
	case 3:
		switch parts[1] {
		case "==", "!=", "<", "<=", ">", ">=":
		default:
			return guardExpr{}, fmt.Errorf("%w: unknown operator %q in %q", ErrBadExpression, parts[1], expr)
		}
		if !isIdent(parts[0]) {
			return guardExpr{}, fmt.Errorf("%w: %q", ErrBadExpression, expr)
		}
		return guardExpr{field: parts[0], op: parts[1], lit: strings.Trim(parts[2], `"`)}, nil
	}
	return guardExpr{}, fmt.Errorf("%w: %q", ErrBadExpression, expr)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func lookup(ctx any, name string) (any, error) {
	v := reflect.ValueOf(ctx)
	if !v.IsValid() {
		return nil, fmt.Errorf("no context to read %s from", name)
	}
	if m := v.MethodByName(name); m.IsValid() && m.Type().NumIn() == 0 && m.Type().NumOut() == 1 {
		return m.Call(nil)[0].Interface(), nil
	}
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("nil context reading %s", name)
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		f := v.FieldByName(name)
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String {
			f := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
			if f.IsValid() {
				return f.Interface(), nil
			}
			return nil, nil
		}
	}
	return nil, fmt.Errorf("context %T has no field %s", ctx, name)
}

func compare(v any, op, lit string) (bool, error) {
	switch lit {
	case "nil":
		isNil := v == nil
		if rv := reflect.ValueOf(v); !isNil && canBeNil(rv.Kind()) {
			isNil = rv.IsNil()
		}
		return equality(op, isNil)
	case "true", "false":
		b, ok := v.(bool)
		if !ok {
			return false, fmt.Errorf("%T compared with %s", v, lit)
		}
		return equality(op, b == (lit == "true"))
	}

	if x, ok := toFloat(v); ok {
		y, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a number", ErrBadExpression, lit)
		}
		switch op {
		case "<":
			return x < y, nil
		case "<=":
			return x <= y, nil
		case ">":
			return x > y, nil
		case ">=":
			return x >= y, nil
		}
		return equality(op, x == y)
	}

	s := fmt.Sprint(v)
	switch op {
	case "<":
		return s < lit, nil
	case "<=":
		return s <= lit, nil
	case ">":
		return s > lit, nil
	case ">=":
		return s >= lit, nil
	}
	return equality(op, s == lit)
}

func equality(op string, eq bool) (bool, error) {
	switch op {
	case "==":
		return eq, nil
	case "!=":
		return !eq, nil
	}
	return false, fmt.Errorf("%w: operator %s needs numbers or strings", ErrBadExpression, op)
}

func canBeNil(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
