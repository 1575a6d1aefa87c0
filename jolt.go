// Package jolt implements declarative JSON-to-JSON shift transformations:
// given a source document and a spec document, it restructures, renames, and
// regroups fields per the spec without imperative per-transformation code.
package jolt

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/tidwall/gjson"
)

// TransformOptions represents additional options for transform operations.
type TransformOptions struct {
	// Pretty formats the result with indentation.
	Pretty bool

	// Indent overrides the indentation unit when Pretty is set.
	Indent string
}

// DefaultTransformOptions provides default settings for transform
// operations.
var DefaultTransformOptions = TransformOptions{
	Pretty: false,
	Indent: "  ",
}

// Transform applies a spec document to a source document and returns the
// result. This is the main entry point for most use cases; callers applying
// one spec to many documents should Compile once and reuse the Spec.
func Transform(source, spec []byte) ([]byte, error) {
	return TransformWithOptions(source, spec, nil)
}

// TransformString is like Transform but accepts and returns strings.
func TransformString(source, spec string) (string, error) {
	out, err := Transform([]byte(source), []byte(spec))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// TransformWithOptions applies a spec document to a source document with
// explicit options.
func TransformWithOptions(source, spec []byte, options *TransformOptions) ([]byte, error) {
	s, err := Compile(spec)
	if err != nil {
		return nil, err
	}
	out, err := s.ApplyBytes(source)
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = &DefaultTransformOptions
	}
	if options.Pretty {
		indent := options.Indent
		if indent == "" {
			indent = DefaultTransformOptions.Indent
		}
		out = PrettyWithOptions(out, &FormatOptions{Indent: indent})
	}
	return out, nil
}

// Apply runs the compiled operation chain over a parsed source value and
// returns the parsed result. The source is read-only to the engine; the
// result may share subtrees with it. Safe for concurrent use.
func (s *Spec) Apply(source interface{}) (interface{}, error) {
	cur := source
	for _, op := range s.ops {
		next, err := op.apply(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// ApplyBytes runs the compiled operation chain over a raw JSON document.
// Object members in the output are marshaled in sorted key order, so
// repeated calls with the same inputs are byte-identical. Numbers decode as
// json.Number and are re-emitted verbatim, so integers beyond float64
// precision survive the round trip.
func (s *Spec) ApplyBytes(source []byte) ([]byte, error) {
	if !gjson.ValidBytes(source) {
		return nil, ErrInvalidJSON
	}
	dec := json.NewDecoder(bytes.NewReader(source))
	dec.UseNumber()
	var src interface{}
	if err := dec.Decode(&src); err != nil {
		return nil, ErrInvalidJSON
	}
	out, err := s.Apply(src)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

//------------------------------------------------------------------------------
// COMPILED-SPEC CACHE
//------------------------------------------------------------------------------

// LRU cache for compiled specs, keyed by content
type lruCache struct {
	capacity int
	items    map[specCacheKey]*Spec
	order    []specCacheKey
	mutex    sync.RWMutex
}

type specCacheKey struct {
	hash uint64
	spec string
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		items:    make(map[specCacheKey]*Spec),
		order:    make([]specCacheKey, 0, capacity),
	}
}

func (c *lruCache) get(key specCacheKey) (*Spec, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if s, ok := c.items[key]; ok {
		return s, true
	}
	return nil, false
}

func (c *lruCache) set(key specCacheKey, s *Spec) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.items[key]; !exists {
		if len(c.items) >= c.capacity {
			// Evict oldest item
			delete(c.items, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, key)
	}
	c.items[key] = s
}

// hashBytes creates a simple FNV-1a hash of a byte slice
func hashBytes(b []byte) uint64 {
	var h uint64 = 14695981039346656037 // FNV offset basis
	for i := 0; i < len(b); i++ {
		h ^= uint64(b[i])
		h *= 1099511628211 // FNV prime
	}
	return h
}

var compiledSpecCache = newLRUCache(256)

// CompileCached is like Compile but memoizes compiled specs by content, for
// callers that receive the same spec document repeatedly. Compiled specs are
// immutable, so sharing across goroutines is safe.
func CompileCached(spec []byte) (*Spec, error) {
	key := specCacheKey{hash: hashBytes(spec), spec: string(spec)}
	if s, ok := compiledSpecCache.get(key); ok {
		return s, nil
	}
	s, err := Compile(spec)
	if err != nil {
		return nil, err
	}
	compiledSpecCache.set(key, s)
	return s, nil
}
