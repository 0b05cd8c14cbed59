package codegen

import (
	"fmt"
	"sort"
	"strings"
)

// wrapAt is the width past which a call is split one argument per line.
const wrapAt = 100

// source accumulates the statements of one method body and the imports
// they need.
type source struct {
	strings.Builder
	imports map[string]struct{}
}

func newSource() *source {
	return &source{imports: make(map[string]struct{})}
}

func (s *source) use(paths ...string) {
	for _, p := range paths {
		if p != "" {
			s.imports[p] = struct{}{}
		}
	}
}

func (s *source) linef(indent int, format string, args ...any) {
	s.WriteString(strings.Repeat("\t", indent))
	fmt.Fprintf(s, format, args...)
	s.WriteByte('\n')
}

// call writes m.<method>(args...), on one line when it is short enough.
func (s *source) call(indent int, method string, args ...string) {
	line := "m." + method + "(" + strings.Join(args, ", ") + ")"
	if indent*4+len(line) <= wrapAt || len(args) == 0 {
		s.linef(indent, "%s", line)
		return
	}
	s.linef(indent, "m.%s(", method)
	for _, a := range args {
		s.linef(indent+1, "%s,", a)
	}
	s.linef(indent, ")")
}

// writeImports writes the import declaration for paths: standard library
// packages first, then the rest, each group sorted.
func writeImports(b *strings.Builder, paths map[string]struct{}) {
	var std, other []string
	for p := range paths {
		first, _, _ := strings.Cut(p, "/")
		if strings.Contains(first, ".") {
			other = append(other, p)
		} else {
			std = append(std, p)
		}
	}
	sort.Strings(std)
	sort.Strings(other)

	switch {
	case len(std)+len(other) == 0:
		return
	case len(std)+len(other) == 1:
		fmt.Fprintf(b, "import %q\n\n", append(std, other...)[0])
		return
	}
	b.WriteString("import (\n")
	for _, p := range std {
		fmt.Fprintf(b, "\t%q\n", p)
	}
	if len(std) > 0 && len(other) > 0 {
		b.WriteByte('\n')
	}
	for _, p := range other {
		fmt.Fprintf(b, "\t%q\n", p)
	}
	b.WriteString(")\n\n")
}
