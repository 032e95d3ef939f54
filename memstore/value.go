package memstore

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// asM normalizes document-shaped values to bson.M. Key order is lost,
// which only matters for $sort specs; those are handled separately.
func asM(v interface{}) (bson.M, bool) {
	switch doc := v.(type) {
	case bson.M:
		return doc, true
	case bson.D:
		m := make(bson.M, len(doc))
		for _, e := range doc {
			m[e.Key] = e.Value
		}
		return m, true
	case map[string]interface{}:
		return bson.M(doc), true
	}
	return nil, false
}

func asArray(v interface{}) ([]interface{}, bool) {
	switch arr := v.(type) {
	case bson.A:
		return []interface{}(arr), true
	case []interface{}:
		return arr, true
	case []bson.M:
		out := make([]interface{}, len(arr))
		for i, el := range arr {
			out[i] = el
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if v != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// compareValues orders two values the way the server does within one
// type family: numbers loosely across int widths, then strings, times,
// object ids and bools. Mixed families are not comparable.
func compareValues(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Before(bv):
				return -1, true
			case av.After(bv):
				return 1, true
			}
			return 0, true
		}
	case primitive.DateTime:
		if bv, ok := b.(primitive.DateTime); ok {
			switch {
			case av < bv:
				return -1, true
			case av > bv:
				return 1, true
			}
			return 0, true
		}
	case primitive.ObjectID:
		if bv, ok := b.(primitive.ObjectID); ok {
			return bytes.Compare(av[:], bv[:]), true
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, true
			case !av:
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

func looseEqual(a, b interface{}) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// keyString renders a group key to a canonical string so composite keys
// hash consistently regardless of map iteration order.
func keyString(v interface{}) string {
	if m, ok := asM(v); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteString("{")
		for _, k := range keys {
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(keyString(m[k]))
			sb.WriteString(";")
		}
		sb.WriteString("}")
		return sb.String()
	}
	switch k := v.(type) {
	case nil:
		return "null"
	case primitive.ObjectID:
		return "oid:" + k.Hex()
	case time.Time:
		return "ts:" + k.UTC().Format(time.RFC3339Nano)
	}
	if f, ok := toFloat(v); ok {
		return fmt.Sprintf("num:%v", f)
	}
	return fmt.Sprintf("%T:%v", v, v)
}

// getPath resolves a dotted path against a document. A path that crosses
// an array fans out and collects the resolved values, matching server
// behavior for expressions like "$reviews.rating".
func getPath(v interface{}, path string) (interface{}, bool) {
	return walkPath(v, strings.Split(path, "."))
}

func walkPath(v interface{}, parts []string) (interface{}, bool) {
	if len(parts) == 0 {
		return v, true
	}
	if m, ok := asM(v); ok {
		next, ok := m[parts[0]]
		if !ok {
			return nil, false
		}
		return walkPath(next, parts[1:])
	}
	if arr, ok := asArray(v); ok {
		out := make([]interface{}, 0, len(arr))
		for _, el := range arr {
			if found, ok := walkPath(el, parts); ok {
				out = append(out, found)
			}
		}
		return out, true
	}
	return nil, false
}

// setPath writes val at a dotted path, creating intermediate documents.
func setPath(doc bson.M, path string, val interface{}) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := doc[part].(bson.M)
		if !ok {
			next = bson.M{}
			doc[part] = next
		}
		doc = next
	}
	doc[parts[len(parts)-1]] = val
}

func cloneDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}
