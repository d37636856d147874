package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Path is a parsed dot-separated field path such as "arrayWithObjects.item".
type Path []string

// ParsePath splits s on '.'. Empty paths and empty segments are rejected.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("empty field path")
	}
	segs := strings.Split(s, ".")
	for i, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("field path %q has an empty segment at position %d", s, i)
		}
	}
	return Path(segs), nil
}

// MustParsePath is like ParsePath but panics on error.
// Use only in tests or with literal paths.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the dotted form of the path.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// arrayIndex reports whether seg is a plain decimal array index.
func arrayIndex(seg string) (int, bool) {
	if seg == "" || len(seg) > 9 {
		return 0, false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Resolve returns every value addressed by p under root.
//
// Object segments step into keys. When an array is met with segments still
// left, a numeric segment indexes into it, and every element is additionally
// searched with the same remaining segments ("fan-out"). An element reached
// only through fan-out is never itself a result, so "tags" addresses the
// tags array and not its members.
//
// Resolution is existential: a condition on p holds when it holds for any
// resolved value.
func Resolve(root IRValue, p Path) []IRValue {
	var out []IRValue
	resolve(root, p, &out)
	return out
}

func resolve(v IRValue, p Path, out *[]IRValue) {
	if len(p) == 0 {
		*out = append(*out, v)
		return
	}

	switch val := v.(type) {
	case IRObject:
		if child, ok := val[p[0]]; ok {
			resolve(child, p[1:], out)
		}
	case IRArray:
		if idx, ok := arrayIndex(p[0]); ok && idx < len(val) {
			resolve(val[idx], p[1:], out)
		}
		for _, elem := range val {
			resolve(elem, p, out)
		}
	}
}

// Lookup returns the single value at p without fan-out. Object segments are
// keys (numeric or not) and array segments must be indexes.
func Lookup(root IRValue, p Path) (IRValue, bool) {
	cur := root
	for _, seg := range p {
		switch val := cur.(type) {
		case IRObject:
			child, ok := val[seg]
			if !ok {
				return nil, false
			}
			cur = child
		case IRArray:
			idx, ok := arrayIndex(seg)
			if !ok || idx >= len(val) {
				return nil, false
			}
			cur = val[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// SetPath assigns v at p inside obj, creating intermediate objects as
// needed. Numeric segments may address existing array elements.
func SetPath(obj IRObject, p Path, v IRValue) error {
	if len(p) == 0 {
		return fmt.Errorf("empty field path")
	}

	var cur IRValue = obj
	for i, seg := range p {
		last := i == len(p)-1
		switch val := cur.(type) {
		case IRObject:
			if last {
				val[seg] = v
				return nil
			}
			next, ok := val[seg]
			if !ok {
				next = IRObject{}
				val[seg] = next
			}
			cur = next
		case IRArray:
			idx, ok := arrayIndex(seg)
			if !ok || idx >= len(val) {
				return fmt.Errorf("cannot set %q: segment %q is not an index into an array of length %d", p, seg, len(val))
			}
			if last {
				val[idx] = v
				return nil
			}
			cur = val[idx]
		default:
			return fmt.Errorf("cannot set %q: %q is a %s", p, Path(p[:i]), TypeName(cur))
		}
	}
	return nil
}

// DeletePath removes the key addressed by p. It reports whether anything
// was removed.
func DeletePath(obj IRObject, p Path) bool {
	if len(p) == 0 {
		return false
	}
	parent, ok := Lookup(obj, p[:len(p)-1])
	if !ok {
		return false
	}
	o, isObj := parent.(IRObject)
	if !isObj {
		return false
	}
	if _, exists := o[p[len(p)-1]]; !exists {
		return false
	}
	delete(o, p[len(p)-1])
	return true
}

// treeToken is one step of an SQLite json_tree fullkey.
type treeToken struct {
	key   string
	index int
	isIdx bool
}

// parseTreeKey splits an SQLite json_tree fullkey such as
// `$.arrayWithObjects[1]."odd.key"` into its steps. SQLite quotes every
// label that is not a letter followed by letters and digits, and copies the
// key's JSON escapes into the quoted label verbatim, so a key x"y appears
// as `."x\"y"`. Quoted labels are decoded back to the key.
func parseTreeKey(fullkey string) ([]treeToken, bool) {
	if !strings.HasPrefix(fullkey, "$") {
		return nil, false
	}
	s := fullkey[1:]
	var toks []treeToken
	for len(s) > 0 {
		switch s[0] {
		case '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return nil, false
			}
			n, err := strconv.Atoi(s[1:end])
			if err != nil {
				return nil, false
			}
			toks = append(toks, treeToken{index: n, isIdx: true})
			s = s[end+1:]
		case '.':
			s = s[1:]
			if strings.HasPrefix(s, `"`) {
				end := closingQuote(s)
				if end < 0 {
					return nil, false
				}
				var key string
				if err := json.Unmarshal([]byte(s[:end+1]), &key); err != nil {
					return nil, false
				}
				toks = append(toks, treeToken{key: key})
				s = s[end+1:]
				continue
			}
			end := strings.IndexAny(s, ".[")
			if end < 0 {
				end = len(s)
			}
			toks = append(toks, treeToken{key: s[:end]})
			s = s[end:]
		default:
			return nil, false
		}
	}
	return toks, true
}

// closingQuote returns the index of the unescaped quote that ends the quoted
// label at the start of s.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// PathMatchesTreeKey reports whether the json_tree node at fullkey is one of
// the values Resolve would return for p. It is registered as the SQLite
// function sv_path_match so that SQL and Go evaluation agree.
func PathMatchesTreeKey(fullkey string, p Path) bool {
	toks, ok := parseTreeKey(fullkey)
	if !ok {
		return false
	}
	return matchTokens(toks, p)
}

// LookupMatchesTreeKey reports whether the json_tree node at fullkey is the
// value Lookup returns for p. Sort keys use it, registered as the SQLite
// function sv_key_match, so a numeric segment addresses an array element or
// an object key exactly as it does in Go.
func LookupMatchesTreeKey(fullkey string, p Path) bool {
	toks, ok := parseTreeKey(fullkey)
	if !ok || len(toks) != len(p) {
		return false
	}
	for i, tok := range toks {
		if !tok.isIdx {
			if p[i] != tok.key {
				return false
			}
			continue
		}
		if idx, isIdx := arrayIndex(p[i]); !isIdx || idx != tok.index {
			return false
		}
	}
	return true
}

func matchTokens(toks []treeToken, p Path) bool {
	if len(toks) == 0 {
		return len(p) == 0
	}
	tok := toks[0]
	if !tok.isIdx {
		return len(p) > 0 && p[0] == tok.key && matchTokens(toks[1:], p[1:])
	}
	if len(p) > 0 {
		if idx, ok := arrayIndex(p[0]); ok && idx == tok.index && matchTokens(toks[1:], p[1:]) {
			return true
		}
	}
	// fan-out step: only valid when something still follows the element
	return len(p) > 0 && len(toks) > 1 && matchTokens(toks[1:], p)
}
