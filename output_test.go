package jolt

import (
	"errors"
	"reflect"
	"testing"
)

func keySeg(k string) resolvedSeg { return resolvedSeg{kind: segKey, key: k} }
func idxSeg(i int) resolvedSeg    { return resolvedSeg{kind: segIndex, index: i} }
func appendSeg() resolvedSeg      { return resolvedSeg{kind: segAppend} }

func TestOutputSingleWrite(t *testing.T) {
	out := newOutputTree()
	if err := out.write([]resolvedSeg{keySeg("a"), keySeg("b")}, float64(1)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	want := map[string]interface{}{"a": map[string]interface{}{"b": float64(1)}}
	if got := out.result(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOutputNoWrites(t *testing.T) {
	if got := newOutputTree().result(); got != nil {
		t.Errorf("Expected nil result for empty tree, got %v", got)
	}
}

func TestOutputCollisionMerge(t *testing.T) {
	out := newOutputTree()
	path := []resolvedSeg{keySeg("x")}
	for _, v := range []interface{}{float64(1), float64(2), float64(3)} {
		if err := out.write(path, v); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	want := map[string]interface{}{"x": []interface{}{float64(1), float64(2), float64(3)}}
	if got := out.result(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOutputCollisionFlattensSequences(t *testing.T) {
	out := newOutputTree()
	path := []resolvedSeg{keySeg("x")}
	if err := out.write(path, []interface{}{float64(1), float64(2)}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := out.write(path, float64(3)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := out.write(path, []interface{}{float64(4)}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	want := map[string]interface{}{"x": []interface{}{float64(1), float64(2), float64(3), float64(4)}}
	if got := out.result(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOutputWrittenNullCollides(t *testing.T) {
	out := newOutputTree()
	path := []resolvedSeg{keySeg("x")}
	if err := out.write(path, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := out.write(path, float64(2)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	want := map[string]interface{}{"x": []interface{}{nil, float64(2)}}
	if got := out.result(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOutputIndexPadding(t *testing.T) {
	out := newOutputTree()
	if err := out.write([]resolvedSeg{keySeg("arr"), idxSeg(2)}, "v"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	want := map[string]interface{}{"arr": []interface{}{nil, nil, "v"}}
	if got := out.result(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOutputPaddedSlotLaterWrite(t *testing.T) {
	// A padded slot was never written, so a later write lands directly
	// instead of merging with the padding null.
	out := newOutputTree()
	if err := out.write([]resolvedSeg{keySeg("arr"), idxSeg(2)}, "v"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := out.write([]resolvedSeg{keySeg("arr"), idxSeg(0)}, "w"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	want := map[string]interface{}{"arr": []interface{}{"w", nil, "v"}}
	if got := out.result(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOutputAppend(t *testing.T) {
	out := newOutputTree()
	path := []resolvedSeg{keySeg("arr"), appendSeg()}
	for _, v := range []interface{}{"a", "b"} {
		if err := out.write(path, v); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	want := map[string]interface{}{"arr": []interface{}{"a", "b"}}
	if got := out.result(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOutputAppendWrapsScalar(t *testing.T) {
	out := newOutputTree()
	if err := out.write([]resolvedSeg{keySeg("x")}, float64(1)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := out.write([]resolvedSeg{keySeg("x"), appendSeg()}, float64(2)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	want := map[string]interface{}{"x": []interface{}{float64(1), float64(2)}}
	if got := out.result(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOutputRootWrite(t *testing.T) {
	out := newOutputTree()
	if err := out.write(nil, map[string]interface{}{"a": float64(1)}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	want := map[string]interface{}{"a": float64(1)}
	if got := out.result(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestOutputTypeConflicts(t *testing.T) {
	cases := []struct {
		name   string
		first  []resolvedSeg
		second []resolvedSeg
	}{
		{"key into array", []resolvedSeg{keySeg("x"), idxSeg(0)}, []resolvedSeg{keySeg("x"), keySeg("y")}},
		{"index into object", []resolvedSeg{keySeg("x"), keySeg("y")}, []resolvedSeg{keySeg("x"), idxSeg(0)}},
		{"key through scalar", []resolvedSeg{keySeg("x")}, []resolvedSeg{keySeg("x"), keySeg("y")}},
		{"append into object", []resolvedSeg{keySeg("x"), keySeg("y")}, []resolvedSeg{keySeg("x"), appendSeg()}},
	}
	for _, tc := range cases {
		out := newOutputTree()
		if err := out.write(tc.first, "v"); err != nil {
			t.Fatalf("%s: first write failed: %v", tc.name, err)
		}
		err := out.write(tc.second, "w")
		if err == nil {
			t.Errorf("%s: expected conflict", tc.name)
			continue
		}
		if !errors.Is(err, ErrPathTypeConflict) {
			t.Errorf("%s: expected ErrPathTypeConflict, got %v", tc.name, err)
		}
		var perr *PathTypeConflictError
		if !errors.As(err, &perr) || perr.Path == "" {
			t.Errorf("%s: expected a conflict path, got %v", tc.name, err)
		}
	}
}
