package jolt

import (
	"strings"
)

// Pattern kinds for branch keys, in match-tier order. Literal and ampersand
// patterns share the first tier (an ampersand resolves to a literal key at
// match time), affix composites form the second, bare star the third, and the
// deep wildcard the last.
type patternKind uint8

const (
	patternLiteral patternKind = iota
	patternAmp
	patternAffix
	patternStar
	patternDeep
)

// keyPattern is a pre-parsed branch key. Exactly one of the kind-specific
// fields is meaningful.
type keyPattern struct {
	kind    patternKind
	raw     string
	literal string   // patternLiteral: unescaped key
	amp     ampRef   // patternAmp
	parts   []string // patternAffix: fixed fragments around the star groups
}

// parseKeyPattern classifies and pre-parses a raw branch key. depth is the
// branch's level in the spec tree (the root branch has depth 0), used to
// reject ampersand references that reach above the spec root.
func parseKeyPattern(raw string, depth int, specPath string) (*keyPattern, error) {
	if raw == "" {
		return nil, specErr(specPath, "empty key pattern")
	}

	p := &keyPattern{raw: raw}

	if raw == "**" {
		p.kind = patternDeep
		return p, nil
	}

	if raw[0] == '&' {
		ref, next, err := parseAmpRef(raw, 0)
		if err != nil {
			return nil, specErr(specPath, "%v", err)
		}
		if next != len(raw) {
			return nil, specErr(specPath, "'&' reference must be the whole key pattern")
		}
		// Key patterns match before their own level binds, so level 0 is
		// the nearest enclosing match. A reference can reach at most the
		// root frame.
		if ref.up > depth {
			return nil, specErr(specPath, "'&(%d,%d)' reaches above the spec root", ref.up, ref.idx)
		}
		p.kind = patternAmp
		p.amp = ref
		return p, nil
	}

	// Scan for unescaped specials, unescaping literal fragments as we go.
	var frag strings.Builder
	var parts []string
	stars := 0
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '\\':
			if i+1 >= len(raw) {
				return nil, specErr(specPath, "trailing escape in key pattern %q", raw)
			}
			i++
			frag.WriteByte(raw[i])
		case '*':
			parts = append(parts, frag.String())
			frag.Reset()
			stars++
		case '&':
			return nil, specErr(specPath, "'&' reference may not be combined with literals in key pattern %q", raw)
		case '@':
			return nil, specErr(specPath, "'@' reference not allowed in key position (%q)", raw)
		default:
			frag.WriteByte(c)
		}
	}
	parts = append(parts, frag.String())

	switch {
	case stars == 0:
		p.kind = patternLiteral
		p.literal = parts[0]
	case stars == 1 && parts[0] == "" && parts[1] == "":
		p.kind = patternStar
	default:
		p.kind = patternAffix
		p.parts = parts
	}
	return p, nil
}

// matchKey reports whether key matches the pattern and returns the captured
// parts: index 0 is always the full matched key, indices 1..n the star
// groups. ctx supplies ancestor bindings for ampersand patterns. The deep
// wildcard never matches through here; the engine enumerates it separately.
func (p *keyPattern) matchKey(key string, ctx *matchContext) ([]string, bool) {
	switch p.kind {
	case patternLiteral:
		if key == p.literal {
			return []string{key}, true
		}
	case patternAmp:
		want, ok := ctx.capture(p.amp.up, p.amp.idx)
		if ok && want != "" && key == want {
			return []string{key}, true
		}
	case patternStar:
		return []string{key, key}, true
	case patternAffix:
		if groups, ok := matchAffix(p.parts, key); ok {
			return append([]string{key}, groups...), true
		}
	}
	return nil, false
}

// matchAffix matches a key against fixed fragments interleaved with star
// groups. Fragments are matched left to right, middle fragments at their
// first occurrence, the final fragment anchored at the end of the key.
func matchAffix(parts []string, key string) ([]string, bool) {
	if !strings.HasPrefix(key, parts[0]) {
		return nil, false
	}
	rest := key[len(parts[0]):]
	groups := make([]string, 0, len(parts)-1)

	last := len(parts) - 1
	for i := 1; i <= last; i++ {
		part := parts[i]
		if i == last {
			if part == "" {
				groups = append(groups, rest)
				break
			}
			if len(rest) < len(part) || !strings.HasSuffix(rest, part) {
				return nil, false
			}
			groups = append(groups, rest[:len(rest)-len(part)])
			break
		}
		if part == "" {
			// Adjacent stars: the earlier group captures nothing.
			groups = append(groups, "")
			continue
		}
		at := strings.Index(rest, part)
		if at < 0 {
			return nil, false
		}
		groups = append(groups, rest[:at])
		rest = rest[at+len(part):]
	}
	return groups, true
}
