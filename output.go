package jolt

import (
	"strconv"
	"strings"
)

// unsetMarker distinguishes "never written" from a written JSON null, so a
// second write at a site holding null still triggers the collision merge.
// Array padding uses it too; finalize converts leftovers to null.
type unsetMarker struct{}

var unsetValue = &unsetMarker{}

// collisionList is the internal form of an output site that has received
// more than one write. It is distinct from a written []interface{} value so
// the merge law can tell "a list someone wrote" from "a list the builder
// made"; finalize flattens it into a plain slice.
type collisionList struct {
	items []interface{}
}

// addWrite appends one write to the collision site, flattening a written
// sequence one level.
func (c *collisionList) addWrite(val interface{}) {
	if seq, ok := val.([]interface{}); ok {
		c.items = append(c.items, seq...)
		return
	}
	c.items = append(c.items, val)
}

// outputTree owns the single mutable result of one transform call. It is
// purely additive: writes create containers on demand and merge terminal
// collisions into sequences in write order, never removing or reordering
// prior data.
type outputTree struct {
	root interface{}
}

func newOutputTree() *outputTree {
	return &outputTree{root: unsetValue}
}

// write applies one write instruction. An empty path addresses the root.
func (t *outputTree) write(segs []resolvedSeg, val interface{}) error {
	return writeSlot(&t.root, segs, val, "")
}

// result finalizes and returns the output document. A tree that received no
// writes is JSON null.
func (t *outputTree) result() interface{} {
	return finalize(t.root)
}

// writeSlot recursively walks the resolved path, materializing containers.
// slot is the location the current segment addresses; done is the resolved
// path walked so far, used for conflict reporting.
func writeSlot(slot *interface{}, segs []resolvedSeg, val interface{}, done string) error {
	if len(segs) == 0 {
		mergeTerminal(slot, val)
		return nil
	}
	seg := segs[0]

	switch seg.kind {
	case segKey:
		m, ok := (*slot).(map[string]interface{})
		if !ok {
			if !isUnset(*slot) {
				return &PathTypeConflictError{Path: joinOutPath(done, seg), Existing: shapeName(*slot)}
			}
			m = make(map[string]interface{})
			*slot = m
		}
		child, ok := m[seg.key]
		if !ok {
			child = unsetValue
		}
		if err := writeSlot(&child, segs[1:], val, joinOutPath(done, seg)); err != nil {
			return err
		}
		m[seg.key] = child
		return nil

	case segIndex:
		arr, ok := (*slot).([]interface{})
		if !ok {
			if !isUnset(*slot) {
				return &PathTypeConflictError{Path: joinOutPath(done, seg), Existing: shapeName(*slot)}
			}
		}
		for len(arr) <= seg.index {
			arr = append(arr, unsetValue)
		}
		child := arr[seg.index]
		if err := writeSlot(&child, segs[1:], val, joinOutPath(done, seg)); err != nil {
			return err
		}
		arr[seg.index] = child
		*slot = arr
		return nil

	case segAppend:
		var arr []interface{}
		switch cur := (*slot).(type) {
		case *unsetMarker:
		case []interface{}:
			arr = cur
		case *collisionList:
			arr = cur.items
		case map[string]interface{}:
			return &PathTypeConflictError{Path: joinOutPath(done, seg), Existing: shapeName(cur)}
		default:
			// Scalar at the append site: wrap it into a one-element
			// sequence before appending.
			arr = []interface{}{cur}
		}
		var child interface{} = unsetValue
		if err := writeSlot(&child, segs[1:], val, joinOutPath(done, seg)); err != nil {
			return err
		}
		*slot = append(arr, child)
		return nil
	}
	return nil
}

// mergeTerminal applies the collision law at a terminal site: the first
// write lands as-is, every later write converts the site to a sequence of
// all writes in order, written sequences flattening one level.
func mergeTerminal(slot *interface{}, val interface{}) {
	switch cur := (*slot).(type) {
	case *unsetMarker:
		*slot = val
	case *collisionList:
		cur.addWrite(val)
	default:
		c := &collisionList{}
		c.addWrite(cur)
		c.addWrite(val)
		*slot = c
	}
}

func isUnset(v interface{}) bool {
	_, ok := v.(*unsetMarker)
	return ok
}

// finalize converts builder-internal values into plain JSON values:
// collision lists become slices, unset padding becomes null.
func finalize(v interface{}) interface{} {
	switch x := v.(type) {
	case *unsetMarker:
		return nil
	case *collisionList:
		out := make([]interface{}, len(x.items))
		for i, it := range x.items {
			out[i] = finalize(it)
		}
		return out
	case map[string]interface{}:
		for k, child := range x {
			x[k] = finalize(child)
		}
		return x
	case []interface{}:
		for i, child := range x {
			x[i] = finalize(child)
		}
		return x
	}
	return v
}

func shapeName(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}:
		return "object"
	case []interface{}, *collisionList:
		return "array"
	case nil:
		return "null"
	}
	return "scalar"
}

func joinOutPath(done string, seg resolvedSeg) string {
	var s string
	switch seg.kind {
	case segKey:
		s = seg.key
	case segIndex:
		s = "[" + strconv.Itoa(seg.index) + "]"
	case segAppend:
		s = "[]"
	}
	if done == "" {
		return s
	}
	if strings.HasPrefix(s, "[") {
		return done + s
	}
	return done + "." + s
}
