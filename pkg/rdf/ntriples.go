package rdf

import (
	"bufio"
	"io"
	"strings"
)

// WriteNTriples writes g to w in N-Triples syntax, one sorted triple per line.
func WriteNTriples(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	for _, t := range g.Triples() {
		if _, err := bw.WriteString(t.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// NTriples returns g in N-Triples syntax.
func (g *Graph) NTriples() string {
	var b strings.Builder
	_ = WriteNTriples(&b, g)
	return b.String()
}
