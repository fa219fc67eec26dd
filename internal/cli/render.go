package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/detangle/pkg/board"
	"github.com/matzehuels/detangle/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	boardID  string // render a stored board instead of a file
	output   string // output file path
	detailed bool   // include positions in node labels
	dotOnly  bool   // emit DOT instead of SVG
}

// renderCommand creates the render command for generating board previews.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [board.json]",
		Short: "Render a board preview as SVG",
		Long: `Render a board preview as SVG.

Node positions are drawn as-is and connector snap sides become attachment
ports, so rendering before and after 'optimize' shows exactly what changed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().StringVar(&opts.boardID, "board", "", "render a stored board by id (uses the configured MongoDB store)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.svg)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include item positions in labels")
	cmd.Flags().BoolVar(&opts.dotOnly, "dot", false, "emit Graphviz DOT instead of SVG")

	return cmd
}

// runRender loads the board, renders it, and writes the output file.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	if (input == "") == (opts.boardID == "") {
		return fmt.Errorf("provide either a board file or --board, not both")
	}

	var (
		doc *board.Document
		err error
	)
	if input != "" {
		doc, err = board.ReadDocumentFile(input)
		if err != nil {
			return fmt.Errorf("load board %s: %w", input, err)
		}
	} else {
		store, storeErr := c.openStore(ctx)
		if storeErr != nil {
			return fmt.Errorf("connect board store: %w", storeErr)
		}
		defer store.Close(context.Background()) //nolint:errcheck
		doc, err = store.Load(ctx, opts.boardID)
		if err != nil {
			return fmt.Errorf("load board %s: %w", opts.boardID, err)
		}
	}

	dot := render.ToDOT(doc, render.Options{Detailed: opts.detailed})

	outputPath := opts.output
	if outputPath == "" {
		base := opts.boardID
		if input != "" {
			base = strings.TrimSuffix(input, filepath.Ext(input))
		}
		ext := ".svg"
		if opts.dotOnly {
			ext = ".dot"
		}
		outputPath = base + ext
	}

	if opts.dotOnly {
		if err := os.WriteFile(outputPath, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", outputPath, err)
		}
		printSuccess("DOT written")
		printFile(outputPath)
		return nil
	}

	spinner := newSpinnerWithContext(ctx, "Rendering preview...")
	spinner.Start()
	svg, err := render.RenderSVG(ctx, dot)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render preview: %w", err)
	}
	spinner.Stop()

	if err := os.WriteFile(outputPath, svg, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Preview rendered")
	printFile(outputPath)
	printStats(len(doc.Nodes()), len(doc.Connectors()), false)

	return nil
}
