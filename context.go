package jolt

// matchFrame records one matched tree level: the captured key parts (index 0
// the full key, 1..n the star groups) and the source value matched there,
// which '@' references walk.
type matchFrame struct {
	captures []string
	node     interface{}
}

// matchContext is the per-call stack of match frames. The base frame holds
// the source root with an empty capture, so references may reach the root
// without special cases. Frames are pushed on descent and popped on return;
// sibling branches never observe each other's frames.
type matchContext struct {
	frames []matchFrame
}

func newMatchContext(root interface{}) *matchContext {
	return &matchContext{frames: []matchFrame{{captures: []string{""}, node: root}}}
}

func (c *matchContext) push(captures []string, node interface{}) {
	c.frames = append(c.frames, matchFrame{captures: captures, node: node})
}

func (c *matchContext) pop() {
	c.frames = c.frames[:len(c.frames)-1]
}

// capture returns the captured part idx bound up levels above the current
// level (0 = the innermost frame).
func (c *matchContext) capture(up, idx int) (string, bool) {
	at := len(c.frames) - 1 - up
	if at < 0 {
		return "", false
	}
	f := c.frames[at]
	if idx >= len(f.captures) {
		return "", false
	}
	return f.captures[idx], true
}

// lookup walks path from the source node up levels above the current level
// and returns the value found there. An empty path yields the node itself.
func (c *matchContext) lookup(up int, path []string) (interface{}, bool) {
	at := len(c.frames) - 1 - up
	if at < 0 {
		return nil, false
	}
	return getPath(c.frames[at].node, path)
}

// getPath walks a parsed tree by dotted-path segments. Numeric segments
// index arrays; anything else addresses object members. Absence is reported,
// not invented.
func getPath(node interface{}, path []string) (interface{}, bool) {
	cur := node
	for _, seg := range path {
		switch n := cur.(type) {
		case map[string]interface{}:
			v, ok := n[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			if !isCanonicalIndex(seg) {
				return nil, false
			}
			idx := 0
			for i := 0; i < len(seg); i++ {
				idx = idx*10 + int(seg[i]-'0')
			}
			if idx >= len(n) {
				return nil, false
			}
			cur = n[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}
