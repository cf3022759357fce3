// Package format renders tabular CLI output, used by "flowrun config" to
// list the active run configuration. Grounded on the teacher's
// format/format.go table renderer, trimmed to the single-struct case this
// module needs (no colorized row support, since config listing is
// uncolored).
package format

import (
	"fmt"
	"strings"

	"github.com/fatih/structs"
)

// Field is one rendered key/value pair.
type Field struct {
	Key   string
	Value string
}

// StructFields flattens obj's exported fields into Key/Value pairs in
// struct-declaration order, the way "flowrun config" lists the options a run
// resolved from flags, environment, and config file.
func StructFields(obj interface{}) []Field {
	s := structs.New(obj)
	names := s.Names()
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		f := s.Field(name)
		if !f.IsExported() {
			continue
		}
		fields = append(fields, Field{Key: name, Value: fmt.Sprintf("%v", f.Value())})
	}
	return fields
}

// Table renders fields as a two-column, aligned text table.
func Table(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	keyWidth := 0
	for _, f := range fields {
		if len(f.Key) > keyWidth {
			keyWidth = len(f.Key)
		}
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "%-*s  %s\n", keyWidth, f.Key, f.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}
