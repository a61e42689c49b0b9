// Package sparql evaluates the subset of SPARQL 1.1 used by semantic uplift
// steps and SHACL SPARQL rules against an in-memory [rdf.Graph].
//
// Supported forms:
//
//   - CONSTRUCT { template } WHERE { pattern } and CONSTRUCT WHERE { triples }
//   - INSERT DATA, DELETE DATA, DELETE WHERE and DELETE { } INSERT { } WHERE { }
//     (either template optional), several operations separated by ";"
//   - PREFIX and BASE declarations
//
// Group patterns may contain triple patterns (with ";" and "," abbreviations,
// "a", blank node property lists and collections), nested groups, UNION,
// OPTIONAL, FILTER, BIND and VALUES. Predicates may be property paths built
// from IRIs with sequence (/), alternative (|), inverse (^) and grouping.
//
// Expressions support logical and comparison operators, EXISTS / NOT EXISTS
// and the functions BOUND, IF, COALESCE, isIRI, isURI, isBlank, isLiteral,
// sameTerm, STR, LANG, DATATYPE, IRI, URI, STRDT, STRLANG, STRLEN, SUBSTR,
// UCASE, LCASE, STRSTARTS, STRENDS, CONTAINS, STRBEFORE, STRAFTER, CONCAT,
// REGEX and REPLACE.
//
// Other SPARQL features (SELECT, MINUS, named graphs, path modifiers, ...)
// are rejected with an UNSUPPORTED error; malformed input fails with
// SYNTAX_ERROR.
package sparql
