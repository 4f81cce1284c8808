// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
)

// Output writes command results either as aligned text tables for a
// person at a terminal or as indented JSON for scripts.
type Output struct {
	Writer io.Writer
	JSON   bool
}

// NewOutput returns an Output on stdout. JSON is selected when
// forceJSON is set or stdout is not a terminal.
func NewOutput(forceJSON bool) *Output {
	return &Output{
		Writer: os.Stdout,
		JSON:   forceJSON || !term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// EmitJSON writes value as JSON if the output is in JSON mode and
// reports whether it did. Nil slices are written as [].
func (o *Output) EmitJSON(value any) (bool, error) {
	if !o.JSON {
		return false, nil
	}
	encoder := json.NewEncoder(o.Writer)
	encoder.SetIndent("", "  ")
	return true, encoder.Encode(normalizeNilSlice(value))
}

// Table writes header and rows as tab-aligned columns.
func (o *Output) Table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(o.Writer, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// Printf writes formatted text.
func (o *Output) Printf(format string, args ...any) {
	fmt.Fprintf(o.Writer, format, args...)
}

// normalizeNilSlice returns an empty slice of the same type if value
// is a nil slice, so that JSON serialization produces [] instead of
// null.
func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}
