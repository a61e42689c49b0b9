package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/register"
)

// registerOpts holds the flags of the register command.
type registerOpts struct {
	skipImports bool
	items       bool
	all         bool
	status      string
	class       string
	asJSON      bool
}

// registerInfo is the JSON form of the register command output.
type registerInfo struct {
	register.Metadata
	URL      string              `json:"url"`
	Items    []*register.Summary `json:"items,omitempty"`
	Local    int                 `json:"localItems"`
	Total    int                 `json:"totalItems"`
	Imported []string            `json:"importedRegisters,omitempty"`
}

// registerCommand creates the register command.
func (c *CLI) registerCommand() *cobra.Command {
	var opts registerOpts

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Load a register and show its metadata and items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFilters(opts.status, opts.class); err != nil {
				return err
			}
			sess, err := c.open(cmd.Context(), opts.skipImports)
			if err != nil {
				return err
			}
			defer sess.Close()
			return runRegister(cmd.OutOrStdout(), sess.reg, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.skipImports, "skip-imports", false, "do not load imported registers")
	cmd.Flags().BoolVar(&opts.items, "items", false, "list the items")
	cmd.Flags().BoolVar(&opts.all, "all", false, "include items of imported registers (with --items)")
	cmd.Flags().StringVar(&opts.status, "status", "", "only items with this status")
	cmd.Flags().StringVar(&opts.class, "class", "", "only items of this class")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON")

	return cmd
}

func validateFilters(status, class string) error {
	if status != "" && !register.Status(status).Valid() {
		return bberrors.New(bberrors.ErrCodeInvalidEnum, "unknown status %q", status)
	}
	if class != "" && !register.ItemClass(class).Valid() {
		return bberrors.New(bberrors.ErrCodeInvalidEnum, "unknown item class %q", class)
	}
	return nil
}

// filterItems selects items matching the non-empty status and class.
func filterItems(items []*register.Summary, status, class string) []*register.Summary {
	var out []*register.Summary
	for _, s := range items {
		if status != "" && string(s.Status) != status {
			continue
		}
		if class != "" && string(s.ItemClass) != class {
			continue
		}
		out = append(out, s)
	}
	return out
}

func runRegister(w io.Writer, reg *register.Register, opts registerOpts) error {
	items := reg.Items()
	if opts.all {
		items = reg.AllItems()
	}
	items = filterItems(items, opts.status, opts.class)

	var imported []string
	for _, r := range reg.Imported() {
		imported = append(imported, r.URL)
	}

	if opts.asJSON {
		info := registerInfo{
			Metadata: reg.Metadata,
			URL:      reg.URL,
			Local:    len(reg.Items()),
			Total:    len(reg.AllItems()),
			Imported: imported,
		}
		if opts.items {
			info.Items = items
		}
		return writeJSON(w, info)
	}

	fmt.Fprintln(w, StyleTitle.Render(registerTitle(reg)))
	printKeyValue(w, "URL", reg.URL)
	printKeyValue(w, "Description", reg.Description)
	printKeyValue(w, "Items", fmt.Sprintf("%d local, %d total", len(reg.Items()), len(reg.AllItems())))
	printKeyValue(w, "Imports", strings.Join(reg.Imports, ", "))
	if len(reg.Imports) > 0 && len(imported) == 0 {
		printDetail(w, "imports not loaded")
	}
	if opts.items {
		fmt.Fprintln(w)
		if len(items) == 0 {
			printInfo(w, "No matching items")
			return nil
		}
		fmt.Fprintln(w, itemTable(items, reg))
	}
	return nil
}

func registerTitle(reg *register.Register) string {
	if reg.Name != "" {
		return reg.Name
	}
	return reg.URL
}

// itemOpts holds the flags of the item command.
type itemOpts struct {
	full    bool
	schema  bool
	context bool
	asJSON  bool
}

// itemCommand creates the item command.
func (c *CLI) itemCommand() *cobra.Command {
	var opts itemOpts

	cmd := &cobra.Command{
		Use:   "item <identifier>",
		Short: "Show a building block",
		Long: `Show a building block of the register or one of its imports.

With --full the full record is fetched and printed as JSON. --schema and
--context print the resolved JSON schema or JSON-LD context document.`,
		Args: cobra.ExactArgs(1),
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
			return runItem(cmd, item, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.full, "full", false, "fetch and print the full record")
	cmd.Flags().BoolVar(&opts.schema, "schema", false, "print the resolved JSON schema")
	cmd.Flags().BoolVar(&opts.context, "context", false, "print the resolved JSON-LD context")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")
	cmd.MarkFlagsMutuallyExclusive("full", "schema", "context", "json")

	return cmd
}

func runItem(cmd *cobra.Command, item *register.Summary, opts itemOpts) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	switch {
	case opts.full:
		full, err := item.Full(ctx)
		if err != nil {
			return err
		}
		return writeJSON(w, full)
	case opts.schema:
		doc, err := item.ResolvedSchema(ctx)
		return writeDocument(w, item, "JSON schema", doc, err)
	case opts.context:
		doc, err := item.ResolvedContext(ctx)
		return writeDocument(w, item, "JSON-LD context", doc, err)
	case opts.asJSON:
		return writeJSON(w, item)
	}
	printItem(w, item)
	return nil
}

func writeDocument(w io.Writer, item *register.Summary, what string, doc map[string]any, err error) error {
	if err != nil {
		return err
	}
	if doc == nil {
		return bberrors.New(bberrors.ErrCodeNotFound, "%s has no %s", item.ItemIdentifier, what)
	}
	return writeJSON(w, doc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
