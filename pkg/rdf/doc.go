// Package rdf provides the in-memory graph used by the semantic uplift
// pipeline once records have been materialized from JSON-LD.
//
// A [Graph] is a set of [Triple] values over comparable [Term] values, so
// triples can be used directly as map keys. Codecs convert between graphs and
// JSON-LD (via json-gold), Turtle and N-Triples (via knakk/rdf).
//
// Blank node labels produced by the parsers are replaced with fresh labels,
// so graphs parsed from different documents can be merged without
// accidental node sharing.
package rdf
