package delta

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// match is one concrete binding of a rule path against a document. parent is
// the enclosing JSON object, kept for sibling lookups (band sources, upper
// bounds, provenance placeholders).
type match struct {
	path   string
	value  any
	exists bool
	parent map[string]any
}

// lookupPath walks a dotted path through nested JSON objects. It does not
// support wildcards; it is used against prior state and directive paths where
// the path is always concrete.
func lookupPath(doc any, dotted string) (any, bool) {
	cur := doc
	if dotted == "" {
		return cur, true
	}
	for _, seg := range strings.Split(dotted, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// expandPath resolves a rule path (with "*" and "[]" wildcards) against a
// domain document. A match with exists=false is produced when the immediate
// parent exists but the leaf does not, so required-field checks fire without
// inventing findings for wholly absent subtrees.
func expandPath(doc any, path string) []match {
	if path == "" {
		return []match{{path: "", value: doc, exists: true}}
	}
	return expandSegments(doc, strings.Split(path, "."), "", nil)
}

func expandSegments(cur any, segments []string, prefix string, parent map[string]any) []match {
	seg := segments[0]
	rest := segments[1:]
	eachElem := strings.HasSuffix(seg, "[]")
	seg = strings.TrimSuffix(seg, "[]")

	obj, ok := cur.(map[string]any)
	if !ok {
		return nil
	}

	var bound []match
	if seg == "*" {
		for key, val := range obj {
			bound = append(bound, match{path: joinPath(prefix, key), value: val, exists: true, parent: obj})
		}
	} else {
		val, exists := obj[seg]
		bound = append(bound, match{path: joinPath(prefix, seg), value: val, exists: exists, parent: obj})
	}

	var out []match
	for _, b := range bound {
		if !b.exists {
			if len(rest) == 0 && !eachElem {
				out = append(out, b)
			}
			// A missing intermediate object makes deeper rules vacuous;
			// the rule for the object itself reports the absence.
			continue
		}
		if eachElem {
			arr, ok := b.value.([]any)
			if !ok {
				// Element rules do not fire on non-arrays; the array
				// rule itself reports the type mismatch.
				continue
			}
			for i, elem := range arr {
				elemPath := fmt.Sprintf("%s[%d]", b.path, i)
				if len(rest) == 0 {
					out = append(out, match{path: elemPath, value: elem, exists: true, parent: b.parent})
				} else {
					out = append(out, expandSegments(elem, rest, elemPath, nil)...)
				}
			}
			continue
		}
		if len(rest) == 0 {
			out = append(out, b)
			continue
		}
		out = append(out, expandSegments(b.value, rest, b.path, nil)...)
	}
	return out
}

func joinPath(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	if seg == "" {
		return prefix
	}
	return prefix + "." + seg
}

// asInt64 extracts an integer from a decoded JSON value. Deltas are decoded
// with json.Number, but float64 is accepted for callers that unmarshal with
// the default decoder.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case float64:
		i := int64(n)
		if float64(i) != n {
			return 0, false
		}
		return i, true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// renderValue formats a JSON value for finding output.
func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
