package jolt

import (
	"github.com/tidwall/pretty"
)

// FormatOptions controls result formatting.
type FormatOptions struct {
	// Indent is the indentation unit for pretty output. Empty means minify.
	Indent string

	// SortKeys orders object members lexically.
	SortKeys bool
}

// Pretty formats a JSON document with two-space indentation.
func Pretty(data []byte) []byte {
	return pretty.Pretty(data)
}

// PrettyWithOptions formats a JSON document with custom options. An empty
// indent minifies instead.
func PrettyWithOptions(data []byte, opts *FormatOptions) []byte {
	if opts == nil {
		return pretty.Pretty(data)
	}
	if opts.Indent == "" {
		return pretty.Ugly(data)
	}
	return pretty.PrettyOptions(data, &pretty.Options{
		Indent:   opts.Indent,
		SortKeys: opts.SortKeys,
	})
}

// Ugly removes all unnecessary whitespace.
func Ugly(data []byte) []byte {
	return pretty.Ugly(data)
}
