package validate

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/rdf"
	"github.com/bblocks/bblocks/pkg/register"
	"github.com/bblocks/bblocks/pkg/shacl"
)

// SHACL validates graphs against the SHACL shapes of an item. Shape
// documents are Turtle, fetched through the item's register.
type SHACL struct {
	Logger *log.Logger
}

// ValidateSHACL implements [SHACLValidator]. An item without shapes
// validates trivially.
func (v *SHACL) ValidateSHACL(ctx context.Context, item *register.Summary, data *rdf.Graph) (*Result, error) {
	logger := discard(v.Logger)
	out := &Result{Identifier: item.ItemIdentifier, Type: TypeSHACL, Valid: true}

	sources := item.ResolvedShapes()
	if len(sources) == 0 {
		return out, nil
	}
	reg := item.Owner()
	if reg == nil {
		return nil, bberrors.New(bberrors.ErrCodeConfiguration, "item %s is not attached to a register", item.ItemIdentifier)
	}

	ids := make([]string, 0, len(sources))
	for id := range sources {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	graph := rdf.NewGraph()
	for _, id := range ids {
		for _, u := range sources[id] {
			text, err := reg.ResolveText(ctx, u)
			if err != nil {
				return nil, fmt.Errorf("shapes of %s from %s: %w", id, u, err)
			}
			g, err := rdf.ParseTurtle(text, u)
			if err != nil {
				return nil, fmt.Errorf("shapes of %s from %s: %w", id, u, err)
			}
			graph.AddAll(g)
			logger.Debug("loaded shapes", "source", id, "url", u, "triples", g.Len())
		}
	}

	shapes, err := shacl.Parse(graph)
	if err != nil {
		return nil, fmt.Errorf("shapes of %s: %w", item.ItemIdentifier, err)
	}
	report := shapes.Validate(data)
	out.Valid = report.Conforms
	out.Report = report.Text()
	out.Shapes = report
	if !report.Conforms {
		first := report.Results[0]
		out.Cause = bberrors.New(bberrors.ErrCodeInvalidDocument, "%s: %s", first.Focus, first.Message)
	}
	logger.Debug("SHACL validation", "id", item.ItemIdentifier, "valid", out.Valid, "results", len(report.Results))
	return out, nil
}
