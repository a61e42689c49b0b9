package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/register"
	"github.com/bblocks/bblocks/pkg/render"
)

const (
	viewImports      = "imports"
	viewDependencies = "dependencies"
)

// validFormats is the set of supported graph output formats.
var validFormats = map[string]bool{"dot": true, "svg": true, "pdf": true, "png": true}

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output   string  // output file; the format defaults to its extension
	format   string  // dot, svg, pdf or png
	detailed bool    // status and class in item labels
	scale    float64 // PNG scale factor
}

// graphCommand creates the graph command for rendering register graphs.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{scale: 2}

	cmd := &cobra.Command{
		Use:   "graph <imports|dependencies>",
		Short: "Render the import or dependency graph of a register",
		Long: `Render the import graph (registers and the registers they import) or the
dependency graph (items and the items they depend on) of the loaded register.

The format defaults to the extension of --output, or dot on stdout.
PDF and PNG output requires rsvg-convert.`,
		ValidArgs: []string{viewImports, viewDependencies},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(opts.format, opts.output)
			if err != nil {
				return err
			}
			sess, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer sess.Close()

			data, err := renderGraph(cmd.Context(), sess.reg, args[0], format, opts)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, opts.output, data); err != nil {
				return err
			}
			if opts.output != "" {
				printSuccess(cmd.ErrOrStderr(), "Rendered %s graph", args[0])
				printFile(cmd.ErrOrStderr(), opts.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot, svg, pdf, png")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show status and class of items")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")

	return cmd
}

// resolveFormat picks the output format from the flag or the output extension.
func resolveFormat(format, output string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(output), ".")
	}
	if format == "" || format == "gv" {
		format = "dot"
	}
	if !validFormats[format] {
		return "", bberrors.New(bberrors.ErrCodeInvalidEnum, "invalid format: %s (must be 'dot', 'svg', 'pdf', or 'png')", format)
	}
	return format, nil
}

func renderGraph(ctx context.Context, reg *register.Register, view, format string, opts graphOpts) ([]byte, error) {
	var dot string
	switch view {
	case viewImports:
		dot = render.ImportsDOT(reg)
	case viewDependencies:
		dot = render.DependenciesDOT(reg, render.Options{Detailed: opts.detailed})
	default:
		return nil, bberrors.New(bberrors.ErrCodeInvalidEnum, "unknown graph %q", view)
	}
	if format == "dot" {
		return []byte(dot), nil
	}

	svg, err := render.SVG(ctx, dot)
	if err != nil {
		return nil, fmt.Errorf("render %s graph: %w", view, err)
	}
	switch format {
	case "pdf":
		return render.ToPDF(svg)
	case "png":
		return render.ToPNG(svg, opts.scale)
	}
	return svg, nil
}
