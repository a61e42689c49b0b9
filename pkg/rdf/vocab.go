package rdf

// Namespaces.
const (
	NSRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	NSXSD  = "http://www.w3.org/2001/XMLSchema#"
	NSSH   = "http://www.w3.org/ns/shacl#"
)

// Frequently used IRIs.
const (
	RDFType       = NSRDF + "type"
	RDFFirst      = NSRDF + "first"
	RDFRest       = NSRDF + "rest"
	RDFNil        = NSRDF + "nil"
	RDFLangString = NSRDF + "langString"

	RDFSSubClassOf = NSRDFS + "subClassOf"

	XSDString  = NSXSD + "string"
	XSDBoolean = NSXSD + "boolean"
	XSDInteger = NSXSD + "integer"
	XSDDecimal = NSXSD + "decimal"
	XSDDouble  = NSXSD + "double"
)
