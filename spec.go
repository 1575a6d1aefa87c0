package jolt

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// Spec is a compiled transform document: an ordered chain of shift
// operations. A Spec is immutable after Compile and safe for concurrent use
// by any number of Apply calls.
type Spec struct {
	ops []*shiftOp
}

// shiftOp is one compiled shift operation.
type shiftOp struct {
	root *specNode
}

// specNode is a node of the compiled shift tree. A leaf carries the output
// templates for a matched value (none for a null leaf, which matches and
// discards); a branch carries its pattern entries in document order, which
// matching depends on.
type specNode struct {
	leaf      bool
	templates []*pathTemplate
	entries   []*branchEntry
}

type branchEntry struct {
	pattern *keyPattern
	child   *specNode
}

const operationShift = "shift"

// Compile parses and validates a spec document, producing an immutable Spec
// for repeated use. The document is either a single operation object
// {"operation":"shift","spec":{...}}, an array of such objects applied left
// to right, or a bare shift tree.
func Compile(spec []byte) (*Spec, error) {
	if !gjson.ValidBytes(spec) {
		return nil, specErr("", "document is not valid JSON")
	}
	doc := gjson.ParseBytes(spec)

	switch {
	case doc.IsArray():
		s := &Spec{}
		i := 0
		var err error
		doc.ForEach(func(_, entry gjson.Result) bool {
			var op *shiftOp
			op, err = compileOperation(entry, pathIndex("", i))
			if err != nil {
				return false
			}
			s.ops = append(s.ops, op)
			i++
			return true
		})
		if err != nil {
			return nil, err
		}
		if len(s.ops) == 0 {
			return nil, specErr("", "empty operation chain")
		}
		return s, nil

	case doc.IsObject():
		if doc.Get("operation").Exists() {
			op, err := compileOperation(doc, "")
			if err != nil {
				return nil, err
			}
			return &Spec{ops: []*shiftOp{op}}, nil
		}
		// Bare shift tree.
		root, err := compileNode(doc, 0, "")
		if err != nil {
			return nil, err
		}
		return &Spec{ops: []*shiftOp{{root: root}}}, nil
	}
	return nil, specErr("", "top-level document must be an object or an array of operations")
}

// CompileString is like Compile but accepts a string input.
func CompileString(spec string) (*Spec, error) {
	return Compile([]byte(spec))
}

func compileOperation(entry gjson.Result, specPath string) (*shiftOp, error) {
	if !entry.IsObject() {
		return nil, specErr(specPath, "operation entry must be an object")
	}
	opName := entry.Get("operation")
	if !opName.Exists() || opName.Type != gjson.String {
		return nil, specErr(specPath, `operation entry requires a string "operation" member`)
	}
	if opName.String() != operationShift {
		return nil, specErr(specPath, "unsupported operation %q", opName.String())
	}
	tree := entry.Get("spec")
	if !tree.IsObject() {
		return nil, specErr(specPath, `shift operation requires an object "spec" member`)
	}
	root, err := compileNode(tree, 0, joinSpecPath(specPath, "spec"))
	if err != nil {
		return nil, err
	}
	return &shiftOp{root: root}, nil
}

// compileNode builds the shift tree for one branch object. gjson's ForEach
// iterates members in document order, which the matching tiers require;
// encoding/json maps would destroy it.
func compileNode(branch gjson.Result, depth int, specPath string) (*specNode, error) {
	node := &specNode{}
	var err error
	branch.ForEach(func(key, val gjson.Result) bool {
		entryPath := joinSpecPath(specPath, key.String())

		var pat *keyPattern
		pat, err = parseKeyPattern(key.String(), depth, entryPath)
		if err != nil {
			return false
		}

		var child *specNode
		child, err = compileValue(val, depth+1, entryPath)
		if err != nil {
			return false
		}

		node.entries = append(node.entries, &branchEntry{pattern: pat, child: child})
		return true
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// compileValue builds the child node for one branch value: a string or array
// of strings makes a leaf, null a discarding leaf, an object a nested
// branch. Anything else is a syntax error (Scenario: a numeric branch value
// must fail the whole compile).
func compileValue(val gjson.Result, depth int, specPath string) (*specNode, error) {
	switch {
	case val.Type == gjson.String:
		t, err := parseTemplate(val.String(), depth, specPath)
		if err != nil {
			return nil, err
		}
		return &specNode{leaf: true, templates: []*pathTemplate{t}}, nil

	case val.Type == gjson.Null:
		return &specNode{leaf: true}, nil

	case val.IsArray():
		leaf := &specNode{leaf: true}
		var err error
		i := 0
		val.ForEach(func(_, elem gjson.Result) bool {
			if elem.Type != gjson.String {
				err = specErr(pathIndex(specPath, i), "output list elements must be strings, got %s", typeName(elem))
				return false
			}
			var t *pathTemplate
			t, err = parseTemplate(elem.String(), depth, pathIndex(specPath, i))
			if err != nil {
				return false
			}
			leaf.templates = append(leaf.templates, t)
			i++
			return true
		})
		if err != nil {
			return nil, err
		}
		return leaf, nil

	case val.IsObject():
		return compileNode(val, depth, specPath)
	}
	return nil, specErr(specPath, "branch value must be a string, list of strings, or object, got %s", typeName(val))
}

func typeName(r gjson.Result) string {
	switch {
	case r.IsObject():
		return "object"
	case r.IsArray():
		return "array"
	}
	switch r.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	}
	return "unknown"
}

func joinSpecPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func pathIndex(base string, i int) string {
	return joinSpecPath(base, "["+strconv.Itoa(i)+"]")
}
