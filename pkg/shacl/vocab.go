package shacl

import "github.com/bblocks/bblocks/pkg/rdf"

func sh(local string) rdf.Term { return rdf.IRI(rdf.NSSH + local) }

var (
	shNodeShape     = sh("NodeShape")
	shPropertyShape = sh("PropertyShape")

	shTargetNode       = sh("targetNode")
	shTargetClass      = sh("targetClass")
	shTargetSubjectsOf = sh("targetSubjectsOf")
	shTargetObjectsOf  = sh("targetObjectsOf")

	shPath                = sh("path")
	shInversePath         = sh("inversePath")
	shAlternativePath     = sh("alternativePath")
	shZeroOrMorePath      = sh("zeroOrMorePath")
	shOneOrMorePath       = sh("oneOrMorePath")
	shZeroOrOnePath       = sh("zeroOrOnePath")
	shProperty            = sh("property")
	shNode                = sh("node")
	shDeactivated         = sh("deactivated")
	shSeverity            = sh("severity")
	shMessage             = sh("message")
	shViolation           = sh("Violation")
	shMinCount            = sh("minCount")
	shMaxCount            = sh("maxCount")
	shDatatype            = sh("datatype")
	shClass               = sh("class")
	shNodeKind            = sh("nodeKind")
	shHasValue            = sh("hasValue")
	shIn                  = sh("in")
	shPattern             = sh("pattern")
	shFlags               = sh("flags")
	shMinLength           = sh("minLength")
	shMaxLength           = sh("maxLength")
	shMinInclusive        = sh("minInclusive")
	shMaxInclusive        = sh("maxInclusive")
	shMinExclusive        = sh("minExclusive")
	shMaxExclusive        = sh("maxExclusive")
	shIRI                 = sh("IRI")
	shBlankNode           = sh("BlankNode")
	shLiteral             = sh("Literal")
	shBlankNodeOrIRI      = sh("BlankNodeOrIRI")
	shBlankNodeOrLiteral  = sh("BlankNodeOrLiteral")
	shIRIOrLiteral        = sh("IRIOrLiteral")
	shRule                = sh("rule")
	shTripleRule          = sh("TripleRule")
	shSPARQLRule          = sh("SPARQLRule")
	shSubject             = sh("subject")
	shPredicate           = sh("predicate")
	shObject              = sh("object")
	shThis                = sh("this")
	shConstruct           = sh("construct")
	shPrefixes            = sh("prefixes")
	shDeclare             = sh("declare")
	shPrefix              = sh("prefix")
	shNamespace           = sh("namespace")
	shOrder               = sh("order")
	shCondition           = sh("condition")
	shValidationReport    = sh("ValidationReport")
	shValidationResult    = sh("ValidationResult")
	shConforms            = sh("conforms")
	shResult              = sh("result")
	shFocusNode           = sh("focusNode")
	shResultPath          = sh("resultPath")
	shValue               = sh("value")
	shSourceShape         = sh("sourceShape")
	shSourceConstraint    = sh("sourceConstraintComponent")
	shResultSeverity      = sh("resultSeverity")
	shResultMessage       = sh("resultMessage")
	shNot                 = sh("not")
	shAnd                 = sh("and")
	shOr                  = sh("or")
	shXone                = sh("xone")
	shClosed              = sh("closed")
	shQualifiedValueShape = sh("qualifiedValueShape")
	shSparql              = sh("sparql")

	rdfType        = rdf.IRI(rdf.RDFType)
	rdfsClass      = rdf.IRI(rdf.NSRDFS + "Class")
	rdfsSubClassOf = rdf.IRI(rdf.RDFSSubClassOf)
)

// unsupported lists shape properties that would change validation results
// if silently ignored.
var unsupported = []rdf.Term{
	shNot, shAnd, shOr, shXone, shClosed, shQualifiedValueShape, shSparql,
}
