package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/detangle/pkg/board"
	"github.com/matzehuels/detangle/pkg/observability"
	"github.com/matzehuels/detangle/pkg/optimize"
)

// optimizeOpts holds the command-line flags for the optimize command.
type optimizeOpts struct {
	boardID   string   // optimize a stored board instead of a file
	selection []string // item ids to optimize (default: board's stored selection)
	output    string   // output file for file-based boards (default: in place)
	noMove    bool     // keep node positions, only reassign snap sides
	spacing   float64  // grid spacing factor
	seed      uint64   // random seed (0 = nondeterministic)
	priority  int      // reserved weighting knob, validated but unused
	noCache   bool     // disable the layout cache
	watch     bool     // show live progress TUI
}

// optimizeCommand creates the optimize command, the main entry point of the
// CLI. It runs the full collect/layout/snap sequence against a board file or
// a stored board.
func (c *CLI) optimizeCommand() *cobra.Command {
	opts := optimizeOpts{
		spacing:  optimize.DefaultSpacingFactor,
		priority: optimize.DefaultPriority,
	}

	cmd := &cobra.Command{
		Use:   "optimize [board.json]",
		Short: "Optimize connector routing on a board",
		Long: `Optimize connector routing on a board.

The optimize command takes a board (a JSON file, or a stored board via
--board) and untangles the connectors around the selected items: connected
nodes are repositioned on a clean grid and every connector is reattached to
the side of its endpoints that minimizes crossings and congestion.

Use --no-move to keep node positions and only reassign connector sides.
Layout results are cached locally for faster repeat runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runOptimize(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().StringVar(&opts.boardID, "board", "", "optimize a stored board by id (uses the configured MongoDB store)")
	cmd.Flags().StringSliceVarP(&opts.selection, "select", "s", nil, "item ids to optimize (default: the board's stored selection)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: overwrite the input file)")
	cmd.Flags().BoolVar(&opts.noMove, "no-move", false, "keep node positions, only reassign connector sides")
	cmd.Flags().Float64Var(&opts.spacing, "spacing", opts.spacing, "grid spacing as a multiple of mean node size")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed for reproducible layouts (0 = random)")
	cmd.Flags().IntVar(&opts.priority, "priority", opts.priority, "optimization priority, 0-100")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "show live progress")

	return cmd
}

// runOptimize resolves the board, runs the optimizer, and persists the result.
func (c *CLI) runOptimize(ctx context.Context, input string, opts optimizeOpts) error {
	if (input == "") == (opts.boardID == "") {
		return fmt.Errorf("provide either a board file or --board, not both")
	}

	var (
		provider board.Provider
		memory   *board.MemoryProvider
	)
	if input != "" {
		doc, err := board.ReadDocumentFile(input)
		if err != nil {
			return fmt.Errorf("load board %s: %w", input, err)
		}
		memory = board.NewMemoryProvider(doc)
		provider = memory
	} else {
		store, err := c.openStore(ctx)
		if err != nil {
			return fmt.Errorf("connect board store: %w", err)
		}
		defer store.Close(context.Background()) //nolint:errcheck
		p, err := store.NewProvider(ctx, opts.boardID)
		if err != nil {
			return fmt.Errorf("load board %s: %w", opts.boardID, err)
		}
		provider = p
	}

	selection := opts.selection
	if len(selection) == 0 {
		items, err := provider.Selection(ctx)
		if err != nil {
			return fmt.Errorf("read selection: %w", err)
		}
		for _, it := range items {
			selection = append(selection, it.ID)
		}
	}

	runner, ca, err := c.newRunner(ctx, provider, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer ca.Close() //nolint:errcheck

	logger := loggerFromContext(ctx)

	runOpts := optimize.DefaultOptions()
	runOpts.AllowMovement = !opts.noMove
	runOpts.SpacingFactor = opts.spacing
	runOpts.Seed = opts.seed
	runOpts.Priority = opts.priority
	runOpts.Logger = logger

	prog := newProgress(logger)
	result := c.runWithProgress(ctx, runner, selection, runOpts, opts.watch)

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !result.Success {
		printError("%s", result.Message)
		return fmt.Errorf("optimization failed: %s", result.Message)
	}
	prog.done(result.Message)

	if memory != nil {
		outputPath := opts.output
		if outputPath == "" {
			outputPath = input
		}
		if err := board.WriteDocumentFile(memory.Document(), outputPath); err != nil {
			return fmt.Errorf("write board %s: %w", outputPath, err)
		}
		printSuccess("Optimization complete")
		printFile(outputPath)
		printStats(result.ObjectsProcessed, result.ConnectorsOptimized, result.CacheInfo.LayoutHit)
		printNewline()
		printNextStep("Preview", "detangle render "+outputPath)
		return nil
	}

	printSuccess("Optimization complete")
	printStats(result.ObjectsProcessed, result.ConnectorsOptimized, result.CacheInfo.LayoutHit)
	return nil
}

// runWithProgress executes the run either behind a spinner or behind the
// live TUI when watch is set.
func (c *CLI) runWithProgress(ctx context.Context, runner *optimize.Runner, selection []string, opts optimize.Options, watch bool) optimize.Result {
	if watch {
		defer observability.Reset()
		return runWatched(ctx, runner, selection, opts)
	}

	spinner := newSpinnerWithContext(ctx, "Untangling connectors...")
	spinner.Start()
	result := runner.Run(ctx, selection, opts)
	spinner.Stop()
	return result
}
