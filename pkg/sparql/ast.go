package sparql

import "github.com/bblocks/bblocks/pkg/rdf"

type nodeKind uint8

const (
	nodeTerm nodeKind = iota
	nodeVar
	nodeBlank
)

// node is a position in a triple pattern or template.
type node struct {
	kind nodeKind
	term rdf.Term // nodeTerm
	name string   // variable name or blank node label
}

// pattern is a triple pattern. When path is set it replaces p.
type pattern struct {
	s, p, o node
	path    *path
}

type pathKind uint8

const (
	pathLink pathKind = iota
	pathInverse
	pathSeq
	pathAlt
)

// path is a property path. pathInverse has a single sub path.
type path struct {
	kind pathKind
	iri  rdf.Term
	subs []*path
}

// group is a { ... } group graph pattern. Filters apply to the whole group.
type group struct {
	elems   []element
	filters []expr
}

type element interface{ isElement() }

type bgp []pattern

type optionalElem struct{ g *group }

type subgroup struct{ g *group }

type unionElem struct{ branches []*group }

// bindElem is BIND(e AS ?v).
type bindElem struct {
	e expr
	v string
}

// valuesElem is an inline data block. A nil entry in a row is UNDEF.
type valuesElem struct {
	vars []string
	rows [][]*rdf.Term
}

func (bgp) isElement()          {}
func (optionalElem) isElement() {}
func (subgroup) isElement()     {}
func (unionElem) isElement()    {}
func (bindElem) isElement()     {}
func (valuesElem) isElement()   {}

type opKind uint8

const (
	opInsertData opKind = iota
	opDeleteData
	opModify
)

type operation struct {
	kind  opKind
	del   []pattern
	ins   []pattern
	where *group
}
