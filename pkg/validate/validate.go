// Package validate checks instance data against the schemas and shapes a
// building block publishes.
//
// Validators are optional capabilities: a [Capabilities] value may leave
// either validator out, in which case asking for that kind of validation
// fails with a CONFIGURATION error at the point of use.
package validate

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/rdf"
	"github.com/bblocks/bblocks/pkg/register"
	"github.com/bblocks/bblocks/pkg/shacl"
)

// Type identifies the kind of validation that produced a [Result].
type Type string

const (
	TypeJSON  Type = "json"
	TypeSHACL Type = "shacl"
)

// Result is the outcome of validating one document against one item.
type Result struct {
	Identifier string `json:"identifier"`
	Type       Type   `json:"type"`
	Valid      bool   `json:"valid"`
	Report     string `json:"report,omitempty"`

	// Cause describes the first failure of an invalid result.
	Cause error `json:"-"`

	// Shapes holds the full SHACL report of SHACL validations.
	Shapes *shacl.Report `json:"-"`
}

// Err returns an INVALID_DOCUMENT error when the result is invalid, nil
// otherwise.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	if r.Cause != nil {
		return bberrors.Wrap(bberrors.ErrCodeInvalidDocument, r.Cause, "%s validation failed for %s", r.Type, r.Identifier)
	}
	return bberrors.New(bberrors.ErrCodeInvalidDocument, "%s validation failed for %s", r.Type, r.Identifier)
}

// JSONValidator validates tree-structured data against an item's JSON schema.
type JSONValidator interface {
	ValidateJSON(ctx context.Context, item *register.Summary, data any) (*Result, error)
}

// SHACLValidator validates a graph against an item's SHACL shapes.
type SHACLValidator interface {
	ValidateSHACL(ctx context.Context, item *register.Summary, data *rdf.Graph) (*Result, error)
}

// Capabilities lists the available validators. Nil fields are missing
// capabilities.
type Capabilities struct {
	JSON  JSONValidator
	SHACL SHACLValidator
}

// Default returns capabilities with both validators.
func Default(logger *log.Logger) Capabilities {
	return Capabilities{
		JSON:  &JSONSchema{Logger: logger},
		SHACL: &SHACL{Logger: logger},
	}
}

// ValidateJSON validates data with the JSON capability.
func (c Capabilities) ValidateJSON(ctx context.Context, item *register.Summary, data any) (*Result, error) {
	if c.JSON == nil {
		return nil, bberrors.New(bberrors.ErrCodeConfiguration, "JSON Schema validation is not available")
	}
	return c.JSON.ValidateJSON(ctx, item, data)
}

// ValidateSHACL validates data with the SHACL capability.
func (c Capabilities) ValidateSHACL(ctx context.Context, item *register.Summary, data *rdf.Graph) (*Result, error) {
	if c.SHACL == nil {
		return nil, bberrors.New(bberrors.ErrCodeConfiguration, "SHACL validation is not available")
	}
	return c.SHACL.ValidateSHACL(ctx, item, data)
}

func discard(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}
