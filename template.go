package jolt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ampRef is a parsed '&' capture reference: up ancestor levels, idx selects
// the captured part at that level (0 = the full matched key, 1..n the star
// groups).
type ampRef struct {
	up  int
	idx int
}

// atRef is a parsed '@' value reference: up ancestor levels, then an optional
// dotted walk from that source node.
type atRef struct {
	up   int
	path []string
}

// parseAmpRef parses an ampersand reference starting at s[i] (which must be
// '&'). Accepted forms: "&", "&2", "&(2)", "&(2,1)". Returns the reference
// and the index just past it.
func parseAmpRef(s string, i int) (ampRef, int, error) {
	i++ // consume '&'
	if i >= len(s) {
		return ampRef{}, i, nil
	}
	if s[i] == '(' {
		end := strings.IndexByte(s[i:], ')')
		if end < 0 {
			return ampRef{}, 0, fmt.Errorf("unbalanced parens in %q", s)
		}
		body := s[i+1 : i+end]
		next := i + end + 1
		up, idx := body, "0"
		if comma := strings.IndexByte(body, ','); comma >= 0 {
			up, idx = body[:comma], body[comma+1:]
		}
		u, err := strconv.Atoi(up)
		if err != nil || u < 0 {
			return ampRef{}, 0, fmt.Errorf("non-numeric level in '&(%s)'", body)
		}
		x, err := strconv.Atoi(idx)
		if err != nil || x < 0 {
			return ampRef{}, 0, fmt.Errorf("non-numeric capture index in '&(%s)'", body)
		}
		return ampRef{up: u, idx: x}, next, nil
	}
	// Shorthand "&2": consume the digit run.
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return ampRef{}, i, nil
	}
	u, err := strconv.Atoi(s[i:j])
	if err != nil {
		return ampRef{}, 0, fmt.Errorf("bad '&' level in %q", s)
	}
	return ampRef{up: u}, j, nil
}

// parseAtRef parses a value reference starting at s[i] (which must be '@').
// Only the parenthesized form "@(n)" / "@(n,path)" is accepted; the dotted
// path may itself contain escaped dots.
func parseAtRef(s string, i int) (atRef, int, error) {
	i++
	if i >= len(s) || s[i] != '(' {
		return atRef{}, 0, fmt.Errorf("'@' reference requires the form '@(level,path)' in %q", s)
	}
	end := matchingParen(s, i)
	if end < 0 {
		return atRef{}, 0, fmt.Errorf("unbalanced parens in %q", s)
	}
	body := s[i+1 : end]
	next := end + 1

	up, rest := body, ""
	if comma := strings.IndexByte(body, ','); comma >= 0 {
		up, rest = body[:comma], body[comma+1:]
	}
	u, err := strconv.Atoi(up)
	if err != nil || u < 0 {
		return atRef{}, 0, fmt.Errorf("non-numeric level in '@(%s)'", body)
	}
	ref := atRef{up: u}
	if rest != "" {
		ref.path = splitEscaped(rest)
	}
	return ref, next, nil
}

// matchingParen returns the index of the ')' closing the '(' at s[open],
// or -1.
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		case '\\':
			i++
		}
	}
	return -1
}

// splitEscaped splits a dotted path on unescaped dots, unescaping each
// segment. Backslash makes the next character literal, so keys containing
// dots or token specials can be addressed.
func splitEscaped(s string) []string {
	var segs []string
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '.':
			segs = append(segs, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	segs = append(segs, b.String())
	return segs
}

// Template segment kinds. A key segment resolves to a string at transform
// time and addresses an object member, or an array index when the resolved
// string is purely numeric. Index and append segments come from bracket
// notation.
type segKind uint8

const (
	segKey segKind = iota
	segIndex
	segAppend
)

type partKind uint8

const (
	partLiteral partKind = iota
	partAmp
	partAt
)

// templatePart is one fragment of a key segment: a literal run, an '&'
// capture splice, or an '@' value splice.
type templatePart struct {
	kind partKind
	lit  string
	amp  ampRef
	at   atRef
}

// templateSeg is one resolved-path step of an output template.
type templateSeg struct {
	kind  segKind
	parts []templatePart // segKey
	index int            // segIndex with a fixed index
	amp   ampRef         // segIndex resolved from a capture ('[&1]')
	byAmp bool
}

// pathTemplate is a pre-parsed output-path template. An empty template (from
// the empty string) addresses the output root.
type pathTemplate struct {
	raw  string
	segs []templateSeg
}

// parseTemplate pre-parses an output-path template. depth is the spec level
// of the leaf carrying the template; references may reach up at most to the
// source root.
func parseTemplate(raw string, depth int, specPath string) (*pathTemplate, error) {
	t := &pathTemplate{raw: raw}
	if raw == "" {
		return t, nil
	}

	for _, rawSeg := range splitTemplate(raw) {
		segs, err := parseTemplateSeg(rawSeg, depth, specPath)
		if err != nil {
			return nil, err
		}
		t.segs = append(t.segs, segs...)
	}
	return t, nil
}

// splitTemplate splits a template on unescaped dots, leaving escapes and
// parenthesized token bodies intact for the segment parser.
func splitTemplate(s string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(':
			if end := matchingParen(s, i); end > 0 {
				i = end
			}
		case '.':
			segs = append(segs, s[start:i])
			start = i + 1
		}
	}
	return append(segs, s[start:])
}

// parseTemplateSeg parses one dotted segment, peeling trailing bracket
// groups ("photos[]", "photos[2]", "photos[&1]") into their own segments.
func parseTemplateSeg(raw string, depth int, specPath string) ([]templateSeg, error) {
	// Whole-segment bracket forms first.
	if len(raw) >= 2 && raw[0] == '[' && raw[len(raw)-1] == ']' && !strings.ContainsRune(raw[:len(raw)-1], ']') {
		seg, err := parseBracketSeg(raw[1:len(raw)-1], depth, specPath)
		if err != nil {
			return nil, err
		}
		return []templateSeg{seg}, nil
	}

	// Peel trailing bracket groups off a key segment.
	var trailing []templateSeg
	for {
		open := strings.LastIndexByte(raw, '[')
		if open <= 0 || raw[len(raw)-1] != ']' || isEscapedAt(raw, open) {
			break
		}
		seg, err := parseBracketSeg(raw[open+1:len(raw)-1], depth, specPath)
		if err != nil {
			return nil, err
		}
		trailing = append([]templateSeg{seg}, trailing...)
		raw = raw[:open]
	}

	parts, err := parseSegParts(raw, depth, specPath)
	if err != nil {
		return nil, err
	}
	return append([]templateSeg{{kind: segKey, parts: parts}}, trailing...), nil
}

func isEscapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// parseBracketSeg parses the body of a bracket group: empty for append, a
// number for a fixed index, or an '&' reference resolved at transform time.
func parseBracketSeg(body string, depth int, specPath string) (templateSeg, error) {
	if body == "" {
		return templateSeg{kind: segAppend}, nil
	}
	if body[0] == '&' {
		ref, next, err := parseAmpRef(body, 0)
		if err != nil {
			return templateSeg{}, specErr(specPath, "%v", err)
		}
		if next != len(body) {
			return templateSeg{}, specErr(specPath, "malformed bracket reference %q", body)
		}
		if ref.up > depth {
			return templateSeg{}, specErr(specPath, "'&(%d,%d)' reaches above the spec root", ref.up, ref.idx)
		}
		return templateSeg{kind: segIndex, amp: ref, byAmp: true}, nil
	}
	idx, err := strconv.Atoi(body)
	if err != nil || idx < 0 {
		return templateSeg{}, specErr(specPath, "bad array index %q", body)
	}
	return templateSeg{kind: segIndex, index: idx}, nil
}

// parseSegParts tokenizes one key segment into literal/capture/reference
// parts.
func parseSegParts(raw string, depth int, specPath string) ([]templatePart, error) {
	var parts []templatePart
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, templatePart{kind: partLiteral, lit: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(raw); {
		switch raw[i] {
		case '\\':
			if i+1 >= len(raw) {
				return nil, specErr(specPath, "trailing escape in template %q", raw)
			}
			lit.WriteByte(raw[i+1])
			i += 2
		case '&':
			ref, next, err := parseAmpRef(raw, i)
			if err != nil {
				return nil, specErr(specPath, "%v", err)
			}
			if ref.up > depth {
				return nil, specErr(specPath, "'&(%d,%d)' reaches above the spec root", ref.up, ref.idx)
			}
			flush()
			parts = append(parts, templatePart{kind: partAmp, amp: ref})
			i = next
		case '@':
			ref, next, err := parseAtRef(raw, i)
			if err != nil {
				return nil, specErr(specPath, "%v", err)
			}
			if ref.up > depth {
				return nil, specErr(specPath, "'@(%d,...)' reaches above the spec root", ref.up)
			}
			flush()
			parts = append(parts, templatePart{kind: partAt, at: ref})
			i = next
		case '*':
			return nil, specErr(specPath, "'*' not allowed in output template %q", raw)
		default:
			lit.WriteByte(raw[i])
			i++
		}
	}
	flush()
	return parts, nil
}

// resolvedSeg is a fully-resolved output-path step, ready for the output
// tree builder.
type resolvedSeg struct {
	kind  segKind
	key   string
	index int
}

// resolve materializes the template against the current match context. The
// second return is false when a splice cannot be resolved (missing capture,
// non-scalar '@' value, empty resolved segment); the caller skips the write,
// matching the engine's silent-no-match posture.
func (t *pathTemplate) resolve(ctx *matchContext) ([]resolvedSeg, bool) {
	segs := make([]resolvedSeg, 0, len(t.segs))
	for _, s := range t.segs {
		switch s.kind {
		case segAppend:
			segs = append(segs, resolvedSeg{kind: segAppend})
		case segIndex:
			idx := s.index
			if s.byAmp {
				got, ok := ctx.capture(s.amp.up, s.amp.idx)
				if !ok || !isCanonicalIndex(got) {
					return nil, false
				}
				n, err := strconv.Atoi(got)
				if err != nil {
					return nil, false
				}
				idx = n
			}
			segs = append(segs, resolvedSeg{kind: segIndex, index: idx})
		case segKey:
			key, ok := resolveParts(s.parts, ctx)
			if !ok || key == "" {
				return nil, false
			}
			if n, err := strconv.Atoi(key); err == nil && isCanonicalIndex(key) {
				segs = append(segs, resolvedSeg{kind: segIndex, index: n})
			} else {
				segs = append(segs, resolvedSeg{kind: segKey, key: key})
			}
		}
	}
	return segs, true
}

func resolveParts(parts []templatePart, ctx *matchContext) (string, bool) {
	var b strings.Builder
	for _, p := range parts {
		switch p.kind {
		case partLiteral:
			b.WriteString(p.lit)
		case partAmp:
			got, ok := ctx.capture(p.amp.up, p.amp.idx)
			if !ok {
				return "", false
			}
			b.WriteString(got)
		case partAt:
			val, ok := ctx.lookup(p.at.up, p.at.path)
			if !ok {
				return "", false
			}
			s, ok := scalarString(val)
			if !ok {
				return "", false
			}
			b.WriteString(s)
		}
	}
	return b.String(), true
}

// scalarString renders a scalar JSON value as a path-segment string.
// Containers and nulls have no key form.
func scalarString(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isCanonicalIndex reports whether s is the canonical decimal form of an
// array index. Zero-padded strings such as "01" are treated as object keys,
// otherwise "1" and "01" would collide in the same array slot.
func isCanonicalIndex(s string) bool {
	if !isAllDigits(s) {
		return false
	}
	return len(s) == 1 || s[0] != '0'
}
