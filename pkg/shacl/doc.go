// Package shacl implements the subset of SHACL used by building block
// shape-check steps and SHACL validation.
//
// Shapes are read from an [rdf.Graph] (usually parsed from Turtle) with
// [Parse] or [ParseTurtle]. Two operations are available on the result:
//
//   - [Shapes.Infer] runs SHACL Advanced Features rules (sh:TripleRule and
//     sh:SPARQLRule) and adds the inferred triples to the data graph.
//   - [Shapes.Validate] checks the data graph against the core constraint
//     components listed below and returns a [Report].
//
// # Supported features
//
// Targets: sh:targetNode, sh:targetClass (following rdfs:subClassOf),
// sh:targetSubjectsOf, sh:targetObjectsOf and implicit class targets.
//
// Paths: predicate IRIs, sh:inversePath and sequence paths.
//
// Constraints: sh:minCount, sh:maxCount, sh:datatype, sh:class,
// sh:nodeKind, sh:hasValue, sh:in, sh:pattern with sh:flags, sh:minLength,
// sh:maxLength, sh:minInclusive, sh:maxInclusive, sh:minExclusive,
// sh:maxExclusive, sh:node and sh:property.
//
// Other SHACL constructs are either ignored (non-validating properties) or
// rejected with an UNSUPPORTED error when they would change results.
package shacl
