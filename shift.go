package jolt

import (
	"sort"
	"strconv"
	"strings"
)

// apply runs one shift operation over a parsed source document and returns
// the finished output tree. The output tree and context stack are owned by
// this call alone; the compiled spec is only read.
func (op *shiftOp) apply(source interface{}) (interface{}, error) {
	out := newOutputTree()
	ctx := newMatchContext(source)
	if err := shiftWalk(op.root, source, ctx, out); err != nil {
		return nil, err
	}
	return out.result(), nil
}

// shiftWalk recurses over the spec tree and source tree in lockstep. A leaf
// resolves its templates and emits one write per template; a branch matches
// its patterns against the source node's keys in tier order. Shape
// mismatches produce no writes and no errors.
func shiftWalk(node *specNode, source interface{}, ctx *matchContext, out *outputTree) error {
	if node.leaf {
		for _, t := range node.templates {
			segs, ok := t.resolve(ctx)
			if !ok {
				continue
			}
			if err := out.write(segs, source); err != nil {
				return err
			}
		}
		return nil
	}

	keys := nodeKeys(source)
	if keys == nil {
		return nil
	}
	consumed := make(map[string]bool, len(keys))

	// Tier 1: literals and '&' patterns, in spec order.
	for _, e := range node.entries {
		if e.pattern.kind != patternLiteral && e.pattern.kind != patternAmp {
			continue
		}
		for _, key := range keys {
			if consumed[key] {
				continue
			}
			captures, ok := e.pattern.matchKey(key, ctx)
			if !ok {
				continue
			}
			consumed[key] = true
			if err := descend(e.child, source, key, captures, ctx, out); err != nil {
				return err
			}
			break
		}
	}

	// Tier 2: affix composites, in spec order.
	for _, e := range node.entries {
		if e.pattern.kind != patternAffix {
			continue
		}
		for _, key := range keys {
			if consumed[key] {
				continue
			}
			captures, ok := e.pattern.matchKey(key, ctx)
			if !ok {
				continue
			}
			consumed[key] = true
			if err := descend(e.child, source, key, captures, ctx, out); err != nil {
				return err
			}
		}
	}

	// Tier 3: bare star. The first star entry takes every remaining key.
	for _, e := range node.entries {
		if e.pattern.kind != patternStar {
			continue
		}
		for _, key := range keys {
			if consumed[key] {
				continue
			}
			consumed[key] = true
			if err := descend(e.child, source, key, []string{key, key}, ctx, out); err != nil {
				return err
			}
		}
	}

	// Tier 4: deep wildcard over everything the earlier tiers left.
	for _, e := range node.entries {
		if e.pattern.kind != patternDeep {
			continue
		}
		if err := deepWalk(e.child, source, nil, consumed, ctx, out); err != nil {
			return err
		}
	}
	return nil
}

// descend pushes the match frame, recurses into the matched child value, and
// pops on the way out.
func descend(child *specNode, source interface{}, key string, captures []string, ctx *matchContext, out *outputTree) error {
	val := childValue(source, key)
	ctx.push(captures, val)
	err := shiftWalk(child, val, ctx, out)
	ctx.pop()
	return err
}

// deepWalk enumerates every descendant position below source depth-first,
// applying the child spec node at each with the dot-joined relative path as
// the capture. Keys consumed at the origin level are excluded; descendants
// of surviving keys are all visited. The node holding the pattern never
// matches itself: only strict descendants are candidates, so an empty
// relative path is never produced.
func deepWalk(child *specNode, source interface{}, rel []string, consumed map[string]bool, ctx *matchContext, out *outputTree) error {
	for _, key := range nodeKeys(source) {
		if len(rel) == 0 && consumed[key] {
			continue
		}
		val := childValue(source, key)
		path := make([]string, len(rel)+1)
		copy(path, rel)
		path[len(rel)] = key
		joined := strings.Join(path, ".")

		ctx.push([]string{joined, joined}, val)
		err := shiftWalk(child, val, ctx, out)
		ctx.pop()
		if err != nil {
			return err
		}

		if isNode(val) {
			if err := deepWalk(child, val, path, consumed, ctx, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// nodeKeys enumerates the addressable keys of a source node: ascending key
// order for objects (making repeated calls deterministic regardless of map
// iteration), index order for arrays, nil for scalars.
func nodeKeys(source interface{}) []string {
	switch n := source.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	case []interface{}:
		keys := make([]string, len(n))
		for i := range n {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}
	return nil
}

func childValue(source interface{}, key string) interface{} {
	switch n := source.(type) {
	case map[string]interface{}:
		return n[key]
	case []interface{}:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(n) {
			return nil
		}
		return n[idx]
	}
	return nil
}

func isNode(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return true
	}
	return false
}
