package memstore

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/rabinkaspal/mongodb-aggregation/errs"
)

// evalExpr evaluates an aggregation expression against one document.
// vars holds $map bindings ($$name references).
func evalExpr(expr interface{}, doc bson.M, vars map[string]interface{}) (interface{}, error) {
	switch e := expr.(type) {
	case string:
		if strings.HasPrefix(e, "$$") {
			return resolveVar(e[2:], vars)
		}
		if strings.HasPrefix(e, "$") {
			v, _ := getPath(doc, e[1:])
			return v, nil
		}
		return e, nil
	case bson.D, bson.M, map[string]interface{}:
		m, _ := asM(e)
		if len(m) == 1 {
			for op, operand := range m {
				if strings.HasPrefix(op, "$") {
					return evalOperator(op, operand, doc, vars)
				}
			}
		}
		// Composite document, e.g. a compound group key or a $push shape.
		out := make(bson.M, len(m))
		for k, v := range m {
			val, err := evalExpr(v, doc, vars)
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	case bson.A:
		return evalList([]interface{}(e), doc, vars)
	case []interface{}:
		return evalList(e, doc, vars)
	}
	return expr, nil
}

func resolveVar(ref string, vars map[string]interface{}) (interface{}, error) {
	name, rest, hasRest := strings.Cut(ref, ".")
	v, ok := vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown variable $$%s", errs.ErrQuery, name)
	}
	if !hasRest {
		return v, nil
	}
	out, _ := getPath(v, rest)
	return out, nil
}

func evalList(exprs []interface{}, doc bson.M, vars map[string]interface{}) ([]interface{}, error) {
	out := make([]interface{}, 0, len(exprs))
	for _, e := range exprs {
		v, err := evalExpr(e, doc, vars)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func evalOperator(op string, operand interface{}, doc bson.M, vars map[string]interface{}) (interface{}, error) {
	switch op {
	case "$multiply":
		nums, ok, err := evalNumbers(op, operand, doc, vars)
		if err != nil || !ok {
			return nil, err
		}
		product := 1.0
		for _, n := range nums {
			product *= n
		}
		return product, nil

	case "$add":
		nums, ok, err := evalNumbers(op, operand, doc, vars)
		if err != nil || !ok {
			return nil, err
		}
		var sum float64
		for _, n := range nums {
			sum += n
		}
		return sum, nil

	case "$divide":
		nums, ok, err := evalNumbers(op, operand, doc, vars)
		if err != nil || !ok {
			return nil, err
		}
		if len(nums) != 2 {
			return nil, fmt.Errorf("%w: $divide takes two operands", errs.ErrQuery)
		}
		if nums[1] == 0 {
			return nil, fmt.Errorf("%w: $divide by zero", errs.ErrQuery)
		}
		return nums[0] / nums[1], nil

	case "$subtract":
		nums, ok, err := evalNumbers(op, operand, doc, vars)
		if err != nil || !ok {
			return nil, err
		}
		if len(nums) != 2 {
			return nil, fmt.Errorf("%w: $subtract takes two operands", errs.ErrQuery)
		}
		return nums[0] - nums[1], nil

	case "$gt", "$gte", "$lt", "$lte", "$eq", "$ne":
		args, ok := asArray(operand)
		if !ok || len(args) != 2 {
			return nil, fmt.Errorf("%w: %s takes two operands", errs.ErrQuery, op)
		}
		a, err := evalExpr(args[0], doc, vars)
		if err != nil {
			return nil, err
		}
		b, err := evalExpr(args[1], doc, vars)
		if err != nil {
			return nil, err
		}
		if op == "$eq" {
			return looseEqual(a, b), nil
		}
		if op == "$ne" {
			return !looseEqual(a, b), nil
		}
		c, comparable := compareValues(a, b)
		if !comparable {
			return false, nil
		}
		switch op {
		case "$gt":
			return c > 0, nil
		case "$gte":
			return c >= 0, nil
		case "$lt":
			return c < 0, nil
		default:
			return c <= 0, nil
		}

	case "$concat":
		args, ok := asArray(operand)
		if !ok {
			return nil, fmt.Errorf("%w: $concat takes an array", errs.ErrQuery)
		}
		var sb strings.Builder
		for _, arg := range args {
			v, err := evalExpr(arg, doc, vars)
			if err != nil {
				return nil, err
			}
			if v == nil {
				return nil, nil
			}
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: $concat operand is not a string", errs.ErrQuery)
			}
			sb.WriteString(s)
		}
		return sb.String(), nil

	case "$size":
		v, err := evalExpr(operand, doc, vars)
		if err != nil {
			return nil, err
		}
		arr, ok := asArray(v)
		if !ok {
			return nil, fmt.Errorf("%w: $size operand is not an array", errs.ErrQuery)
		}
		return len(arr), nil

	case "$avg", "$sum", "$min", "$max":
		return evalArrayAccumulator(op, operand, doc, vars)

	case "$slice":
		args, ok := asArray(operand)
		if !ok || len(args) < 2 || len(args) > 3 {
			return nil, fmt.Errorf("%w: $slice takes two or three operands", errs.ErrQuery)
		}
		v, err := evalExpr(args[0], doc, vars)
		if err != nil {
			return nil, err
		}
		arr, ok := asArray(v)
		if !ok {
			return nil, fmt.Errorf("%w: $slice operand is not an array", errs.ErrQuery)
		}
		start, count := 0, 0
		if len(args) == 2 {
			n, _ := toFloat(args[1])
			count = int(n)
			if count < 0 {
				// A lone negative count takes elements from the tail.
				start = len(arr) + count
				count = -count
			}
		} else {
			s, _ := toFloat(args[1])
			n, _ := toFloat(args[2])
			start, count = int(s), int(n)
			if count < 0 {
				return nil, fmt.Errorf("%w: $slice count must not be negative when a position is given", errs.ErrQuery)
			}
			if start < 0 {
				start = len(arr) + start
			}
		}
		if start < 0 {
			start = 0
		}
		if start > len(arr) {
			start = len(arr)
		}
		end := start + count
		if end > len(arr) {
			end = len(arr)
		}
		return arr[start:end], nil

	case "$map":
		spec, ok := asM(operand)
		if !ok {
			return nil, fmt.Errorf("%w: $map takes a document", errs.ErrQuery)
		}
		input, err := evalExpr(spec["input"], doc, vars)
		if err != nil {
			return nil, err
		}
		arr, ok := asArray(input)
		if !ok {
			return nil, fmt.Errorf("%w: $map input is not an array", errs.ErrQuery)
		}
		name, _ := spec["as"].(string)
		if name == "" {
			name = "this"
		}
		out := make([]interface{}, 0, len(arr))
		for _, el := range arr {
			scope := make(map[string]interface{}, len(vars)+1)
			for k, v := range vars {
				scope[k] = v
			}
			scope[name] = el
			v, err := evalExpr(spec["in"], doc, scope)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case "$cond":
		var condIf, condThen, condElse interface{}
		if spec, ok := asM(operand); ok {
			condIf, condThen, condElse = spec["if"], spec["then"], spec["else"]
		} else if args, ok := asArray(operand); ok && len(args) == 3 {
			condIf, condThen, condElse = args[0], args[1], args[2]
		} else {
			return nil, fmt.Errorf("%w: malformed $cond", errs.ErrQuery)
		}
		v, err := evalExpr(condIf, doc, vars)
		if err != nil {
			return nil, err
		}
		if truthy(v) {
			return evalExpr(condThen, doc, vars)
		}
		return evalExpr(condElse, doc, vars)
	}

	return nil, fmt.Errorf("%w: unsupported operator %q", errs.ErrQuery, op)
}

// evalNumbers resolves an arithmetic operand list. A nil operand (a
// missing field on the server) makes the whole expression nil rather
// than an error, so ok is false without err being set.
func evalNumbers(op string, operand interface{}, doc bson.M, vars map[string]interface{}) ([]float64, bool, error) {
	args, ok := asArray(operand)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s takes an array", errs.ErrQuery, op)
	}
	nums := make([]float64, 0, len(args))
	for _, arg := range args {
		v, err := evalExpr(arg, doc, vars)
		if err != nil {
			return nil, false, err
		}
		if v == nil {
			return nil, false, nil
		}
		n, ok := toFloat(v)
		if !ok {
			return nil, false, fmt.Errorf("%w: %s operand is not numeric", errs.ErrQuery, op)
		}
		nums = append(nums, n)
	}
	return nums, true, nil
}

// evalArrayAccumulator handles $avg/$sum/$min/$max in expression position,
// where the operand resolves to an array (possibly a fanned-out path like
// "$reviews.rating"). Non-numeric elements are ignored, as on the server.
func evalArrayAccumulator(op string, operand interface{}, doc bson.M, vars map[string]interface{}) (interface{}, error) {
	v, err := evalExpr(operand, doc, vars)
	if err != nil {
		return nil, err
	}
	arr, ok := asArray(v)
	if !ok {
		arr = []interface{}{v}
	}
	nums := make([]float64, 0, len(arr))
	for _, el := range arr {
		if n, ok := toFloat(el); ok {
			nums = append(nums, n)
		}
	}
	switch op {
	case "$sum":
		var sum float64
		for _, n := range nums {
			sum += n
		}
		return sum, nil
	case "$avg":
		if len(nums) == 0 {
			return nil, nil
		}
		var sum float64
		for _, n := range nums {
			sum += n
		}
		return sum / float64(len(nums)), nil
	}
	if len(nums) == 0 {
		return nil, nil
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if (op == "$min" && n < best) || (op == "$max" && n > best) {
			best = n
		}
	}
	return best, nil
}

// matchFilter evaluates a $match filter document against one record.
func matchFilter(doc bson.M, filter bson.M) (bool, error) {
	for key, cond := range filter {
		actual, found := getPath(doc, key)
		if condDoc, ok := asM(cond); ok && isOperatorDoc(condDoc) {
			for op, want := range condDoc {
				ok, err := matchOperator(op, actual, want)
				if err != nil {
					return false, err
				}
				if !ok {
					return false, nil
				}
			}
			continue
		}
		if !found {
			if cond == nil {
				continue
			}
			return false, nil
		}
		if !equalOrContains(actual, cond) {
			return false, nil
		}
	}
	return true, nil
}

func isOperatorDoc(m bson.M) bool {
	for k := range m {
		return strings.HasPrefix(k, "$")
	}
	return false
}

// equalOrContains implements equality matching: an array field matches
// when any element equals the queried value.
func equalOrContains(actual, want interface{}) bool {
	if looseEqual(actual, want) {
		return true
	}
	if arr, ok := asArray(actual); ok {
		for _, el := range arr {
			if looseEqual(el, want) {
				return true
			}
		}
	}
	return false
}

func matchOperator(op string, actual, want interface{}) (bool, error) {
	switch op {
	case "$eq":
		return equalOrContains(actual, want), nil
	case "$ne":
		return !equalOrContains(actual, want), nil
	case "$gt", "$gte", "$lt", "$lte":
		c, comparable := compareValues(actual, want)
		if !comparable || actual == nil {
			return false, nil
		}
		switch op {
		case "$gt":
			return c > 0, nil
		case "$gte":
			return c >= 0, nil
		case "$lt":
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	case "$in", "$nin":
		set, ok := asArray(want)
		if !ok {
			return false, fmt.Errorf("%w: %s takes an array", errs.ErrQuery, op)
		}
		hit := false
		for _, el := range set {
			if equalOrContains(actual, el) {
				hit = true
				break
			}
		}
		if op == "$in" {
			return hit, nil
		}
		return !hit, nil
	}
	return false, fmt.Errorf("%w: unsupported match operator %q", errs.ErrQuery, op)
}
