package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bblocks/bblocks/pkg/register"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the item name, status and class to node labels.
	// When false, only the identifier is shown.
	Detailed bool
}

func header(buf *bytes.Buffer, name string) {
	fmt.Fprintf(buf, "digraph %q {\n", name)
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
}

// ImportsDOT converts the import structure of reg to Graphviz DOT format.
// Registers are keyed by URL and labelled with their name when they have
// one.
func ImportsDOT(reg *register.Register) string {
	var buf bytes.Buffer
	header(&buf, "imports")

	all := append([]*register.Register{reg}, reg.Imported()...)
	known := make(map[string]bool, len(all))
	for i, r := range all {
		known[r.URL] = true
		attrs := []string{fmt.Sprintf("label=%q", registerLabel(r)), fmt.Sprintf("tooltip=%q", r.URL)}
		if i == 0 {
			attrs = append(attrs, "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", r.URL, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, r := range all {
		for _, u := range r.Imports {
			if !known[u] {
				// Only reachable with SkipImports.
				fmt.Fprintf(&buf, "  %q [style=\"rounded,dotted\", fontcolor=grey40];\n", u)
				known[u] = true
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", r.URL, u)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func registerLabel(r *register.Register) string {
	if r.Name == "" {
		return r.URL
	}
	return r.Name + "\n" + r.URL
}

// DependenciesDOT converts the depends-on relation between the items of reg
// and its imports to Graphviz DOT format.
func DependenciesDOT(reg *register.Register, opts Options) string {
	var buf bytes.Buffer
	header(&buf, "dependencies")

	items := reg.AllItems()
	known := make(map[string]bool, len(items))
	for _, s := range items {
		known[s.ItemIdentifier] = true
		label := itemLabel(s, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", s.ItemIdentifier, strings.Join(itemAttrs(reg, s, label), ", "))
	}

	var missing []string
	var edges bytes.Buffer
	for _, s := range items {
		for _, dep := range s.DependsOn {
			if !known[dep] {
				known[dep] = true
				missing = append(missing, dep)
			}
			fmt.Fprintf(&edges, "  %q -> %q;\n", s.ItemIdentifier, dep)
		}
	}
	for _, id := range missing {
		fmt.Fprintf(&buf, "  %q [style=\"rounded,dotted\", fontcolor=grey40];\n", id)
	}

	buf.WriteString("\n")
	buf.Write(edges.Bytes())
	buf.WriteString("}\n")
	return buf.String()
}

func itemLabel(s *register.Summary, detailed bool) string {
	if !detailed {
		return s.ItemIdentifier
	}
	parts := []string{s.ItemIdentifier}
	if s.Name != "" {
		parts = append(parts, s.Name)
	}
	var meta []string
	if s.Status != "" {
		meta = append(meta, string(s.Status))
	}
	if s.ItemClass != "" {
		meta = append(meta, string(s.ItemClass))
	}
	if len(meta) > 0 {
		parts = append(parts, strings.Join(meta, ", "))
	}
	return strings.Join(parts, "\n")
}

func itemAttrs(reg *register.Register, s *register.Summary, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	style := "rounded,filled"
	if s.Owner() != reg {
		style += ",dashed"
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", s.Owner().URL))
	}
	attrs = append(attrs, fmt.Sprintf("style=%q", style))
	switch s.Status {
	case register.StatusRetired, register.StatusSuperseded:
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	return attrs
}
