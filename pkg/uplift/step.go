package uplift

import "github.com/bblocks/bblocks/pkg/register"

// Kind is the interpretation of a step's type string.
type Kind int

const (
	KindUnsupported     Kind = iota
	KindSHACL                // shape-check: SHACL rules and validation
	KindSPARQLUpdate         // graph-update
	KindSPARQLConstruct      // graph-reshape
	KindJQ                   // tree-rewrite
)

var kindNames = map[string]Kind{
	"shacl":            KindSHACL,
	"sparql-update":    KindSPARQLUpdate,
	"sparql-construct": KindSPARQLConstruct,
	"jq":               KindJQ,
}

// KindOf maps a step type string to its Kind. Unknown types map to
// KindUnsupported.
func KindOf(stepType string) Kind {
	return kindNames[stepType]
}

func (k Kind) String() string {
	switch k {
	case KindSHACL:
		return "shacl"
	case KindSPARQLUpdate:
		return "sparql-update"
	case KindSPARQLConstruct:
		return "sparql-construct"
	case KindJQ:
		return "jq"
	default:
		return "unsupported"
	}
}

// onTree reports whether the kind operates on tree data (pre stage) rather
// than on graphs (post stage).
func (k Kind) onTree() bool { return k == KindJQ }

// stepsFor returns the steps of b declared for stage, in order.
func stepsFor(b *register.BuildingBlock, stage register.Stage) []register.Step {
	var out []register.Step
	for _, s := range b.SemanticUplift.AdditionalSteps {
		if s.Stage == stage {
			out = append(out, s)
		}
	}
	return out
}
