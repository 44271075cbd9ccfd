package fizz

func isNumeric(v Value) bool {
	return v.Kind() == KindInt || v.Kind() == KindFloat
}

// combine applies intOp when both operands are ints, or floatOp
// (after widening) otherwise — any int/float mix produces a float.
func combine(a, b Value, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) (Value, error) {
	if !isNumeric(a) {
		return None, newErr(TypeError, "expected a number, got %s", a.Kind())
	}
	if !isNumeric(b) {
		return None, newErr(TypeError, "expected a number, got %s", b.Kind())
	}
	if a.Kind() == KindInt && b.Kind() == KindInt {
		return Int(intOp(a.AsInt(), b.AsInt())), nil
	}
	return Float(floatOp(a.AsFloat(), b.AsFloat())), nil
}

func foldNumeric(args []Value, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) (Value, error) {
	acc := args[0]
	if !isNumeric(acc) {
		return None, newErr(TypeError, "expected a number, got %s", acc.Kind())
	}
	for _, v := range args[1:] {
		var err error
		acc, err = combine(acc, v, intOp, floatOp)
		if err != nil {
			return None, err
		}
	}
	return acc, nil
}

func negate(v Value) (Value, error) {
	switch v.Kind() {
	case KindInt:
		return Int(-v.AsInt()), nil
	case KindFloat:
		return Float(-v.AsFloat()), nil
	default:
		return None, newErr(TypeError, "expected a number, got %s", v.Kind())
	}
}

func divide(a, b Value) (Value, error) {
	if !isNumeric(a) {
		return None, newErr(TypeError, "expected a number, got %s", a.Kind())
	}
	if !isNumeric(b) {
		return None, newErr(TypeError, "expected a number, got %s", b.Kind())
	}
	if b.AsFloat() == 0 {
		return None, newErr(RuntimeError, "division by zero")
	}
	if a.Kind() == KindInt && b.Kind() == KindInt && a.AsInt()%b.AsInt() == 0 {
		return Int(a.AsInt() / b.AsInt()), nil
	}
	return Float(a.AsFloat() / b.AsFloat()), nil
}

func compareNumeric(a, b Value) (int, error) {
	if !isNumeric(a) {
		return 0, newErr(TypeError, "expected a number, got %s", a.Kind())
	}
	if !isNumeric(b) {
		return 0, newErr(TypeError, "expected a number, got %s", b.Kind())
	}
	af, bf := a.AsFloat(), b.AsFloat()
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	default:
		return 0, nil
	}
}

// chainCompare reports whether pred holds for every adjacent pair in
// args; 0 or 1 arguments are trivially true, matching `(< )` and
// `(< 0)` both evaluating to true.
func chainCompare(args []Value, pred func(int) bool) (Value, error) {
	for i := 0; i+1 < len(args); i++ {
		c, err := compareNumeric(args[i], args[i+1])
		if err != nil {
			return None, err
		}
		if !pred(c) {
			return False, nil
		}
	}
	return True, nil
}
