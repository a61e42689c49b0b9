package uplift

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/itchyny/gojq"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/fetch"
	"github.com/bblocks/bblocks/pkg/observability"
	"github.com/bblocks/bblocks/pkg/rdf"
	"github.com/bblocks/bblocks/pkg/register"
	"github.com/bblocks/bblocks/pkg/shacl"
	"github.com/bblocks/bblocks/pkg/sparql"
)

// Options configures a [Pipeline].
type Options struct {
	// Logger receives debug output; every run is tagged with a "run" key.
	Logger *log.Logger

	// Hooks receives step and run events. Nil uses the global
	// observability.Uplift() hooks at the time of each run.
	Hooks observability.UpliftHooks

	// IterateRules repeats SHACL rules until they infer nothing new.
	IterateRules bool
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Pipeline runs semantic uplift. It holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	opts Options
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts.WithDefaults()}
}

// StepStat describes one applied step.
type StepStat struct {
	Stage    register.Stage
	Kind     Kind
	Triples  int // graph size after the step, 0 for tree steps
	Duration time.Duration
}

// Result is the outcome of an uplift run.
type Result struct {
	RunID    string
	Graph    *rdf.Graph
	Steps    []StepStat
	Duration time.Duration
}

// run is the state of a single Uplift call.
type run struct {
	ctx    context.Context
	block  *register.BuildingBlock
	reg    *register.Register
	logger *log.Logger
	hooks  observability.UpliftHooks
	opts   Options
	stats  []StepStat
}

// Uplift converts data into a graph for the building block rec. A summary is
// resolved to its full record first. baseURI resolves relative IRIs in the
// JSON-LD document and may be empty.
//
// The run fails as a whole on the first failing step; there is no partial
// result.
func (p *Pipeline) Uplift(ctx context.Context, rec register.Record, data any, baseURI string) (*Result, error) {
	start := time.Now()
	b, err := rec.Full(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve full record: %w", err)
	}

	hooks := p.opts.Hooks
	if hooks == nil {
		hooks = observability.Uplift()
	}
	res := &Result{RunID: uuid.NewString()}
	r := &run{
		ctx:    ctx,
		block:  b,
		reg:    b.Owner(),
		logger: p.opts.Logger.With("run", res.RunID, "id", b.ItemIdentifier),
		hooks:  hooks,
		opts:   p.opts,
	}

	g, err := r.execute(data, baseURI)
	res.Steps = r.stats
	res.Duration = time.Since(start)
	triples := 0
	if g != nil {
		triples = g.Len()
	}
	r.hooks.OnUplift(ctx, b.ItemIdentifier, triples, res.Duration, err)
	if err != nil {
		return nil, err
	}
	res.Graph = g
	r.logger.Debug("uplift finished", "triples", triples, "duration", res.Duration)
	return res, nil
}

func (r *run) execute(data any, baseURI string) (*rdf.Graph, error) {
	ldContext, err := r.block.ResolvedContext(r.ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve JSON-LD context: %w", err)
	}

	for i, step := range stepsFor(r.block, register.StagePre) {
		if data, err = r.applyTree(i, step, data); err != nil {
			return nil, err
		}
	}

	merged, err := MergeContext(ldContext, data)
	if err != nil {
		return nil, err
	}
	g, err := rdf.FromJSONLD(merged, baseURI, r.loader())
	if err != nil {
		return nil, err
	}
	r.logger.Debug("materialized graph", "triples", g.Len())

	for i, step := range stepsFor(r.block, register.StagePost) {
		if g, err = r.applyGraph(i, step, g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// loader resolves remote JSON-LD contexts through the register's resource
// cache.
func (r *run) loader() rdf.Loader {
	if r.reg == nil {
		return nil
	}
	return func(url string) (any, error) {
		return r.reg.Resolve(r.ctx, url)
	}
}

// code returns the step's inline code, or fetches its ref.
func (r *run) code(step register.Step) (string, error) {
	if step.Code != "" || step.Ref == "" {
		return step.Code, nil
	}
	if r.reg == nil {
		return "", bberrors.New(bberrors.ErrCodeConfiguration, "cannot fetch step code %s: item is not attached to a register", step.Ref)
	}
	r.logger.Debug("fetching step code", "ref", step.Ref)
	return r.reg.FetchText(r.ctx, step.Ref)
}

func (r *run) record(step register.Step, kind Kind, start time.Time, triples int, err error) {
	d := time.Since(start)
	r.hooks.OnStep(r.ctx, r.block.ItemIdentifier, string(step.Stage), kind.String(), d, err)
	if err == nil {
		r.stats = append(r.stats, StepStat{Stage: step.Stage, Kind: kind, Triples: triples, Duration: d})
	}
}

func stepError(i int, step register.Step, err error) error {
	return fmt.Errorf("%s step %d (%s): %w", step.Stage, i+1, step.Type, err)
}

func (r *run) applyTree(i int, step register.Step, data any) (any, error) {
	start := time.Now()
	kind := KindOf(step.Type)
	out, err := r.tree(kind, step, data)
	r.record(step, kind, start, 0, err)
	if err != nil {
		return nil, stepError(i, step, err)
	}
	return out, nil
}

func (r *run) tree(kind Kind, step register.Step, data any) (any, error) {
	switch {
	case kind == KindUnsupported:
		return nil, bberrors.New(bberrors.ErrCodeUnsupportedStep, "unknown uplift step type %q", step.Type)
	case !kind.onTree():
		return nil, bberrors.New(bberrors.ErrCodeUnsupported, "%s steps operate on graphs and cannot run before the context is applied", kind)
	}
	code, err := r.code(step)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("applying step", "stage", step.Stage, "type", step.Type)
	return jq(r.ctx, code, data)
}

// jq runs a jq program and returns its first output.
func jq(ctx context.Context, code string, data any) (any, error) {
	q, err := gojq.Parse(code)
	if err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeSyntax, err, "parse jq program")
	}
	prog, err := gojq.Compile(q)
	if err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeSyntax, err, "compile jq program")
	}
	v, ok := prog.RunWithContext(ctx, data).Next()
	if !ok {
		return nil, bberrors.New(bberrors.ErrCodeInvalidInput, "jq program produced no output")
	}
	if err, ok := v.(error); ok {
		return nil, bberrors.Wrap(bberrors.ErrCodeInvalidInput, err, "jq program failed")
	}
	return fetch.Plain(v)
}

func (r *run) applyGraph(i int, step register.Step, g *rdf.Graph) (*rdf.Graph, error) {
	start := time.Now()
	kind := KindOf(step.Type)
	out, err := r.graph(kind, step, g)
	triples := 0
	if out != nil {
		triples = out.Len()
	}
	r.record(step, kind, start, triples, err)
	if err != nil {
		return nil, stepError(i, step, err)
	}
	return out, nil
}

func (r *run) graph(kind Kind, step register.Step, g *rdf.Graph) (*rdf.Graph, error) {
	switch {
	case kind == KindUnsupported:
		return nil, bberrors.New(bberrors.ErrCodeUnsupportedStep, "unknown uplift step type %q", step.Type)
	case kind.onTree():
		return nil, bberrors.New(bberrors.ErrCodeUnsupported, "%s steps operate on tree data and cannot run after the context is applied", kind)
	}
	code, err := r.code(step)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("applying step", "stage", step.Stage, "type", step.Type)

	switch kind {
	case KindSHACL:
		shapes, err := shacl.ParseTurtle(code, step.Ref)
		if err != nil {
			return nil, err
		}
		n := shapes.Infer(g, shacl.Options{Iterate: r.opts.IterateRules, Logger: r.logger})
		report := shapes.Validate(g)
		r.logger.Debug("shape check", "inferred", n, "conforms", report.Conforms, "results", len(report.Results))
		return g, nil
	case KindSPARQLUpdate:
		if err := sparql.Execute(g, code, sparql.Options{}); err != nil {
			return nil, err
		}
		return g, nil
	case KindSPARQLConstruct:
		return sparql.Construct(g, code, sparql.Options{})
	}
	return nil, bberrors.New(bberrors.ErrCodeInternal, "unhandled step kind %s", kind)
}
