package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/fetch"
	"github.com/bblocks/bblocks/pkg/rdf"
	"github.com/bblocks/bblocks/pkg/register"
	"github.com/bblocks/bblocks/pkg/uplift"
	"github.com/bblocks/bblocks/pkg/validate"
)

const (
	formatNTriples = "nt"
	formatJSONLD   = "jsonld"
)

// upliftOpts holds the flags of the uplift command.
type upliftOpts struct {
	base   string
	format string
	output string
}

// upliftCommand creates the uplift command.
func (c *CLI) upliftCommand() *cobra.Command {
	opts := upliftOpts{format: formatNTriples}

	cmd := &cobra.Command{
		Use:   "uplift <identifier> [input]",
		Short: "Convert JSON/YAML data to RDF with an item's uplift steps",
		Long: `Convert JSON or YAML instance data to RDF.

The data is rewritten by the item's pre steps, merged with its JSON-LD
context, converted to a graph and transformed by its post steps. The input
is a file, an http(s) URL or "-" for stdin (the default).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatNTriples && opts.format != formatJSONLD {
				return bberrors.New(bberrors.ErrCodeInvalidEnum, "invalid format %q (must be nt or jsonld)", opts.format)
			}
			sess, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer sess.Close()

			item, err := lookup(sess.reg, args[0])
			if err != nil {
				return err
			}
			data, err := readInput(cmd, c.fetcher(sess.cache), inputArg(args))
			if err != nil {
				return err
			}
			return c.runUplift(cmd, sess.reg, item, data, opts)
		},
	}

	cmd.Flags().StringVar(&opts.base, "base", "", "base URI for relative IRIs")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: nt, jsonld")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func (c *CLI) pipeline() *uplift.Pipeline {
	return uplift.New(uplift.Options{Logger: c.Logger, IterateRules: c.cfg.Uplift.IterateRules})
}

func (c *CLI) runUplift(cmd *cobra.Command, reg *register.Register, item *register.Summary, data any, opts upliftOpts) error {
	ctx := cmd.Context()
	res, err := c.pipeline().Uplift(ctx, item, data, opts.base)
	if err != nil {
		return err
	}
	c.Logger.Debug("uplift", "run", res.RunID, "triples", res.Graph.Len(), "steps", len(res.Steps))

	var buf bytes.Buffer
	if opts.format == formatJSONLD {
		doc, err := compactJSONLD(ctx, reg, item, res.Graph)
		if err != nil {
			return err
		}
		if err := writeJSON(&buf, doc); err != nil {
			return err
		}
	} else if err := rdf.WriteNTriples(&buf, res.Graph); err != nil {
		return err
	}

	if err := writeOutput(cmd, opts.output, buf.Bytes()); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess(cmd.ErrOrStderr(), "Uplifted %s to %d triples", item.ItemIdentifier, res.Graph.Len())
		printFile(cmd.ErrOrStderr(), opts.output)
	}
	return nil
}

// compactJSONLD serializes g as JSON-LD compacted with the item's context.
func compactJSONLD(ctx context.Context, reg *register.Register, item *register.Summary, g *rdf.Graph) (any, error) {
	ldContext, err := item.ResolvedContext(ctx)
	if err != nil {
		return nil, err
	}
	var compactTo any
	if ldContext != nil {
		compactTo = ldContext
	}
	return g.JSONLD(compactTo, func(u string) (any, error) {
		return reg.Resolve(ctx, u)
	})
}

// validateOpts holds the flags of the validate subcommands.
type validateOpts struct {
	base   string
	turtle bool
	asJSON bool
}

// validateCommand creates the validate command group.
func (c *CLI) validateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate data against an item's JSON schema or SHACL shapes",
	}

	cmd.AddCommand(c.validateJSONCommand())
	cmd.AddCommand(c.validateSHACLCommand())

	return cmd
}

func (c *CLI) validateJSONCommand() *cobra.Command {
	var opts validateOpts

	cmd := &cobra.Command{
		Use:   "json <identifier> [input]",
		Short: "Validate JSON/YAML data against the item's JSON schema",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer sess.Close()

			item, err := lookup(sess.reg, args[0])
			if err != nil {
				return err
			}
			data, err := readInput(cmd, c.fetcher(sess.cache), inputArg(args))
			if err != nil {
				return err
			}
			res, err := validate.Default(c.Logger).ValidateJSON(cmd.Context(), item, data)
			if err != nil {
				return err
			}
			return reportValidation(cmd, res, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	return cmd
}

func (c *CLI) validateSHACLCommand() *cobra.Command {
	var opts validateOpts

	cmd := &cobra.Command{
		Use:   "shacl <identifier> [input]",
		Short: "Validate data against the item's SHACL shapes",
		Long: `Validate data against the item's SHACL shapes.

JSON/YAML input is uplifted with the item's steps first. With --turtle the
input is read as a Turtle graph and validated as is.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.open(ctx, false)
			if err != nil {
				return err
			}
			defer sess.Close()

			item, err := lookup(sess.reg, args[0])
			if err != nil {
				return err
			}
			g, err := c.dataGraph(cmd, sess, item, inputArg(args), opts)
			if err != nil {
				return err
			}
			res, err := validate.Default(c.Logger).ValidateSHACL(ctx, item, g)
			if err != nil {
				return err
			}
			return reportValidation(cmd, res, opts)
		},
	}

	cmd.Flags().StringVar(&opts.base, "base", "", "base URI for relative IRIs")
	cmd.Flags().BoolVar(&opts.turtle, "turtle", false, "read the input as Turtle")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	return cmd
}

// dataGraph reads the input of a SHACL validation as a graph.
func (c *CLI) dataGraph(cmd *cobra.Command, sess *session, item *register.Summary, loc string, opts validateOpts) (*rdf.Graph, error) {
	client := c.fetcher(sess.cache)
	if opts.turtle {
		text, err := readInputText(cmd, client, loc)
		if err != nil {
			return nil, err
		}
		return rdf.ParseTurtle(text, opts.base)
	}
	data, err := readInput(cmd, client, loc)
	if err != nil {
		return nil, err
	}
	res, err := c.pipeline().Uplift(cmd.Context(), item, data, opts.base)
	if err != nil {
		return nil, err
	}
	return res.Graph, nil
}

// reportValidation prints res and returns its error when it is invalid.
func reportValidation(cmd *cobra.Command, res *validate.Result, opts validateOpts) error {
	w := cmd.OutOrStdout()
	if opts.asJSON {
		if err := writeJSON(w, res); err != nil {
			return err
		}
		return res.Err()
	}
	if res.Valid {
		printSuccess(w, "%s: valid (%s)", res.Identifier, res.Type)
		return nil
	}
	printError(w, "%s: invalid (%s)", res.Identifier, res.Type)
	if res.Report != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, res.Report)
	}
	return res.Err()
}

// =============================================================================
// Input / Output
// =============================================================================

func inputArg(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return "-"
}

// readInput parses a YAML/JSON document from loc, or from stdin for "-".
func readInput(cmd *cobra.Command, client *fetch.Client, loc string) (any, error) {
	if loc != "-" {
		return client.Fetch(cmd.Context(), loc)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	v, err := fetch.Parse(data)
	if err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "parse stdin")
	}
	return v, nil
}

// readInputText reads loc, or stdin for "-", as text.
func readInputText(cmd *cobra.Command, client *fetch.Client, loc string) (string, error) {
	if loc != "-" {
		return client.FetchText(cmd.Context(), loc)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// writeOutput writes data to path, or to the command's stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
