package jolt

import (
	"reflect"
	"testing"
)

func TestParseKeyPatternKinds(t *testing.T) {
	cases := []struct {
		raw  string
		kind patternKind
	}{
		{"user", patternLiteral},
		{"*", patternStar},
		{"**", patternDeep},
		{"&", patternAmp},
		{"&2", patternAmp},
		{"&(1,0)", patternAmp},
		{"foo*", patternAffix},
		{"*bar", patternAffix},
		{"foo*bar", patternAffix},
		{"a*b*c", patternAffix},
		{`\*`, patternLiteral},
		{`\**`, patternAffix},
	}
	for _, tc := range cases {
		p, err := parseKeyPattern(tc.raw, 3, "")
		if err != nil {
			t.Errorf("parseKeyPattern(%q) failed: %v", tc.raw, err)
			continue
		}
		if p.kind != tc.kind {
			t.Errorf("parseKeyPattern(%q): expected kind %d, got %d", tc.raw, tc.kind, p.kind)
		}
	}
}

func TestParseKeyPatternEscapes(t *testing.T) {
	p, err := parseKeyPattern(`a\*b`, 0, "")
	if err != nil {
		t.Fatalf("parseKeyPattern failed: %v", err)
	}
	if p.kind != patternLiteral || p.literal != "a*b" {
		t.Errorf("Expected literal a*b, got kind %d literal %q", p.kind, p.literal)
	}
}

func TestMatchLiteral(t *testing.T) {
	p, _ := parseKeyPattern("user", 0, "")
	ctx := newMatchContext(nil)

	caps, ok := p.matchKey("user", ctx)
	if !ok {
		t.Fatal("Expected literal match")
	}
	if !reflect.DeepEqual(caps, []string{"user"}) {
		t.Errorf("Expected captures [user], got %v", caps)
	}
	if _, ok := p.matchKey("users", ctx); ok {
		t.Error("Expected no match for users")
	}
}

func TestMatchStar(t *testing.T) {
	p, _ := parseKeyPattern("*", 0, "")
	caps, ok := p.matchKey("anything", newMatchContext(nil))
	if !ok {
		t.Fatal("Expected star match")
	}
	if !reflect.DeepEqual(caps, []string{"anything", "anything"}) {
		t.Errorf("Expected full key at both capture indices, got %v", caps)
	}
}

func TestMatchAmp(t *testing.T) {
	p, _ := parseKeyPattern("&(0,0)", 1, "")
	ctx := newMatchContext(nil)
	ctx.push([]string{"ids"}, nil)

	if _, ok := p.matchKey("other", ctx); ok {
		t.Error("Expected no match for non-equal key")
	}
	caps, ok := p.matchKey("ids", ctx)
	if !ok {
		t.Fatal("Expected match for key equal to the parent capture")
	}
	if caps[0] != "ids" {
		t.Errorf("Expected capture ids, got %v", caps)
	}
}

func TestMatchAffix(t *testing.T) {
	cases := []struct {
		pattern string
		key     string
		groups  []string
		ok      bool
	}{
		{"foo*", "foobar", []string{"bar"}, true},
		{"foo*", "foo", []string{""}, true},
		{"foo*", "fo", nil, false},
		{"*bar", "foobar", []string{"foo"}, true},
		{"*bar", "bar", []string{""}, true},
		{"*bar", "baz", nil, false},
		{"foo*bar", "fooXbar", []string{"X"}, true},
		{"foo*bar", "foobar", []string{""}, true},
		{"foo*bar", "fooXbaz", nil, false},
		{"a*b*c", "aXbYc", []string{"X", "Y"}, true},
		{"a*b*c", "abc", []string{"", ""}, true},
		{"a*b*c", "aXc", nil, false},
	}
	for _, tc := range cases {
		p, err := parseKeyPattern(tc.pattern, 0, "")
		if err != nil {
			t.Errorf("parseKeyPattern(%q) failed: %v", tc.pattern, err)
			continue
		}
		caps, ok := p.matchKey(tc.key, newMatchContext(nil))
		if ok != tc.ok {
			t.Errorf("%q vs %q: expected ok=%v, got %v", tc.pattern, tc.key, tc.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		want := append([]string{tc.key}, tc.groups...)
		if !reflect.DeepEqual(caps, want) {
			t.Errorf("%q vs %q: expected captures %v, got %v", tc.pattern, tc.key, want, caps)
		}
	}
}
