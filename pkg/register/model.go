package register

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/fetch"
)

// Media types used as keys of [Summary.Schema].
const (
	MediaTypeYAML = "application/yaml"
	MediaTypeJSON = "application/json"
)

// FullDocumentationKey is the documentation entry pointing at the full
// record of an item.
const FullDocumentationKey = "json-full"

// Source is a bibliographic source of a building block.
type Source struct {
	Title string `mapstructure:"title" json:"title"`
	Link  string `mapstructure:"link" json:"link,omitempty"`
}

// Link is a typed link attached to a register.
type Link struct {
	Rel   string `mapstructure:"rel" json:"rel"`
	Href  string `mapstructure:"href" json:"href"`
	Type  string `mapstructure:"type" json:"type,omitempty"`
	Title string `mapstructure:"title" json:"title,omitempty"`
}

// DocumentationEntry is one rendering of an item's documentation.
type DocumentationEntry struct {
	MediaType string `mapstructure:"mediatype" json:"mediatype"`
	URL       string `mapstructure:"url" json:"url"`
}

// Snippet is an example payload in a given language.
type Snippet struct {
	Language string `mapstructure:"language" json:"language"`
	Code     string `mapstructure:"code" json:"code"`
	URL      string `mapstructure:"url" json:"url,omitempty"`
}

// Example groups the snippets of one documented example.
type Example struct {
	Title    string            `mapstructure:"title" json:"title,omitempty"`
	Content  string            `mapstructure:"content" json:"content,omitempty"`
	BaseURI  string            `mapstructure:"base_uri" json:"baseUri,omitempty"`
	Prefixes map[string]string `mapstructure:"prefixes" json:"prefixes,omitempty"`
	Snippets []Snippet         `mapstructure:"snippets" json:"snippets,omitempty"`
}

// Step is one declared semantic uplift step. Type is kept as written in the
// document; it is interpreted when the step is applied.
type Step struct {
	Type  string `mapstructure:"type" json:"type"`
	Stage Stage  `mapstructure:"stage" json:"stage"`
	Ref   string `mapstructure:"ref" json:"ref,omitempty"`
	Code  string `mapstructure:"code" json:"code,omitempty"`
}

// SemanticUplift holds the uplift steps of a full record.
type SemanticUplift struct {
	AdditionalSteps []Step `mapstructure:"additional_steps" json:"additionalSteps,omitempty"`
}

// Record is implemented by *[Summary] and *[BuildingBlock].
type Record interface {
	// Full returns the full record, materializing it if needed.
	Full(ctx context.Context) (*BuildingBlock, error)
}

// Summary is the register entry of a building block.
type Summary struct {
	ItemIdentifier        string                        `mapstructure:"item_identifier" json:"itemIdentifier"`
	Name                  string                        `mapstructure:"name" json:"name"`
	Abstract              string                        `mapstructure:"abstract" json:"abstract,omitempty"`
	Status                Status                        `mapstructure:"status" json:"status,omitempty"`
	DateTimeAddition      string                        `mapstructure:"date_time_addition" json:"dateTimeAddition,omitempty"`
	ItemClass             ItemClass                     `mapstructure:"item_class" json:"itemClass,omitempty"`
	RegisterName          string                        `mapstructure:"register" json:"register,omitempty"`
	Version               string                        `mapstructure:"version" json:"version,omitempty"`
	DateOfLastChange      string                        `mapstructure:"date_of_last_change" json:"dateOfLastChange,omitempty"`
	Maturity              string                        `mapstructure:"maturity" json:"maturity,omitempty"`
	Scope                 string                        `mapstructure:"scope" json:"scope,omitempty"`
	Group                 string                        `mapstructure:"group" json:"group,omitempty"`
	Highlighted           bool                          `mapstructure:"highlighted" json:"highlighted"`
	ValidationPassed      bool                          `mapstructure:"validation_passed" json:"validationPassed"`
	Sources               []Source                      `mapstructure:"sources" json:"sources,omitempty"`
	DependsOn             []string                      `mapstructure:"depends_on" json:"dependsOn,omitempty"`
	Tags                  []string                      `mapstructure:"tags" json:"tags,omitempty"`
	SHACLShapes           map[string][]string           `mapstructure:"shacl_shapes" json:"shaclShapes,omitempty"`
	Schema                map[string]string             `mapstructure:"schema" json:"schema,omitempty"`
	LDContext             string                        `mapstructure:"ld_context" json:"ldContext,omitempty"`
	Ontology              string                        `mapstructure:"ontology" json:"ontology,omitempty"`
	SourceSchema          string                        `mapstructure:"source_schema" json:"sourceSchema,omitempty"`
	SourceLDContext       string                        `mapstructure:"source_ld_context" json:"sourceLdContext,omitempty"`
	SourceFiles           string                        `mapstructure:"source_files" json:"sourceFiles,omitempty"`
	SourceOpenAPIDocument string                        `mapstructure:"source_open_api_document" json:"sourceOpenApiDocument,omitempty"`
	OpenAPIDocument       string                        `mapstructure:"open_api_document" json:"openApiDocument,omitempty"`
	TestOutputs           string                        `mapstructure:"test_outputs" json:"testOutputs,omitempty"`
	RDFData               []string                      `mapstructure:"rdf_data" json:"rdfData,omitempty"`
	Documentation         map[string]DocumentationEntry `mapstructure:"documentation" json:"documentation,omitempty"`
	IsProfileOf           []string                      `mapstructure:"is_profile_of" json:"isProfileOf,omitempty"`
	ExtensionPoints       map[string]any                `mapstructure:"extension_points" json:"extensionPoints,omitempty"`
	Transforms            []map[string]any              `mapstructure:"transforms" json:"transforms,omitempty"`

	owner *Register
}

// Owner returns the register the summary was loaded from.
func (s *Summary) Owner() *Register { return s.owner }

// SchemaURL returns the schema URL, preferring the YAML rendering over JSON.
func (s *Summary) SchemaURL() string {
	if u := s.Schema[MediaTypeYAML]; u != "" {
		return u
	}
	return s.Schema[MediaTypeJSON]
}

// FullDocumentURL returns the URL of the full record document, or "" when
// the summary does not link one.
func (s *Summary) FullDocumentURL() string {
	return s.Documentation[FullDocumentationKey].URL
}

// ResolvedShapes returns a copy of the SHACL shape URLs keyed by the
// identifier of the building block that contributes them.
func (s *Summary) ResolvedShapes() map[string][]string {
	out := make(map[string][]string, len(s.SHACLShapes))
	for k, v := range s.SHACLShapes {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ResolvedSchema returns the parsed schema document, or nil when the item
// has no schema.
func (s *Summary) ResolvedSchema(ctx context.Context) (map[string]any, error) {
	return s.resolveMapping(ctx, s.SchemaURL())
}

// ResolvedContext returns the parsed JSON-LD context document, or nil when
// the item has no context.
func (s *Summary) ResolvedContext(ctx context.Context) (map[string]any, error) {
	return s.resolveMapping(ctx, s.LDContext)
}

func (s *Summary) resolveMapping(ctx context.Context, url string) (map[string]any, error) {
	if url == "" {
		return nil, nil
	}
	if s.owner == nil {
		return nil, bberrors.New(bberrors.ErrCodeConfiguration, "item %s is not attached to a register", s.ItemIdentifier)
	}
	v, err := s.owner.Resolve(ctx, url)
	if err != nil || v == nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "%s: expected a mapping, got %T", url, v)
	}
	return m, nil
}

// Full materializes the full record of the summary in its owning register.
func (s *Summary) Full(ctx context.Context) (*BuildingBlock, error) {
	if s.owner == nil {
		return nil, bberrors.New(bberrors.ErrCodeConfiguration, "item %s is not attached to a register", s.ItemIdentifier)
	}
	return s.owner.full(ctx, s)
}

// BuildingBlock is the full record of an item. It embeds a copy of the
// fields of its full document; [BuildingBlock.Origin] returns the register
// summary it was resolved from.
type BuildingBlock struct {
	Summary `mapstructure:",squash"`

	AnnotatedSchema string         `mapstructure:"annotated_schema" json:"annotatedSchema,omitempty"`
	GitRepository   string         `mapstructure:"git_repository" json:"gitRepository,omitempty"`
	GitPath         string         `mapstructure:"git_path" json:"gitPath,omitempty"`
	Examples        []Example      `mapstructure:"examples" json:"examples,omitempty"`
	SemanticUplift  SemanticUplift `mapstructure:"semantic_uplift" json:"semanticUplift"`

	origin *Summary
}

// Origin returns the register summary the record was resolved from.
func (b *BuildingBlock) Origin() *Summary { return b.origin }

// Full returns b.
func (b *BuildingBlock) Full(context.Context) (*BuildingBlock, error) { return b, nil }

var (
	_ Record = (*Summary)(nil)
	_ Record = (*BuildingBlock)(nil)
)

// Metadata holds the descriptive fields of a register document.
type Metadata struct {
	Name                 string         `mapstructure:"name" json:"name"`
	Abstract             string         `mapstructure:"abstract" json:"abstract,omitempty"`
	Description          string         `mapstructure:"description" json:"description,omitempty"`
	Modified             string         `mapstructure:"modified" json:"modified,omitempty"`
	GitRepository        string         `mapstructure:"git_repository" json:"gitRepository,omitempty"`
	GitHubRepository     string         `mapstructure:"github_repository" json:"gitHubRepository,omitempty"`
	BaseURL              string         `mapstructure:"base_url" json:"baseURL,omitempty"`
	ViewerURL            string         `mapstructure:"viewer_url" json:"viewerURL,omitempty"`
	ValidationReport     string         `mapstructure:"validation_report" json:"validationReport,omitempty"`
	ValidationReportJSON string         `mapstructure:"validation_report_json" json:"validationReportJson,omitempty"`
	SPARQLEndpoint       string         `mapstructure:"sparql_endpoint" json:"sparqlEndpoint,omitempty"`
	RemoteCacheDir       string         `mapstructure:"remote_cache_dir" json:"remoteCacheDir,omitempty"`
	Imports              []string       `mapstructure:"imports" json:"imports,omitempty"`
	Links                []Link         `mapstructure:"links" json:"links,omitempty"`
	Tooling              map[string]any `mapstructure:"tooling" json:"tooling,omitempty"`
}

// Register is a loaded register document.
//
// A Register is shared, never copied, by every register that imports it.
// Its resource and full-record caches are safe for concurrent use.
type Register struct {
	Metadata

	// URL is the location the register was loaded from.
	URL string `json:"url"`

	items    map[string]*Summary
	order    []string
	imported []*Register

	fetcher fetch.Fetcher
	logger  *log.Logger
	flight  singleflight.Group

	resMu     sync.Mutex
	resources map[string]any

	blocksMu sync.Mutex
	blocks   map[string]*BuildingBlock
}

func newRegister(url string, f fetch.Fetcher, logger *log.Logger) *Register {
	return &Register{
		URL:       url,
		items:     make(map[string]*Summary),
		fetcher:   f,
		logger:    logger,
		resources: make(map[string]any),
		blocks:    make(map[string]*BuildingBlock),
	}
}

// Imported returns the transitively imported registers, flattened and
// de-duplicated by URL, in first-seen order.
func (r *Register) Imported() []*Register {
	return append([]*Register(nil), r.imported...)
}

// Items returns the register's own summaries in document order.
func (r *Register) Items() []*Summary {
	out := make([]*Summary, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

// AllItems returns the register's own summaries followed by those of its
// imports. An identifier appears once, resolved the same way as
// [Register.Summary].
func (r *Register) AllItems() []*Summary {
	seen := make(map[string]bool)
	var out []*Summary
	for _, reg := range append([]*Register{r}, r.imported...) {
		for _, s := range reg.Items() {
			if !seen[s.ItemIdentifier] {
				seen[s.ItemIdentifier] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Local returns the summary with the given identifier if it is declared by
// r itself.
func (r *Register) Local(id string) *Summary {
	return r.items[id]
}
