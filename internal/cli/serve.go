package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/detangle/internal/api"
	"github.com/matzehuels/detangle/pkg/board/mongostore"
	"github.com/matzehuels/detangle/pkg/cache"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen  string
		noStore bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the optimization HTTP API",
		Long: `Serve the optimization HTTP API.

The API accepts boards inline (POST /v1/optimize with a board document) or
by id when the MongoDB board store is reachable. Without --no-store the
configured store is dialed at startup; if it is unreachable the server still
starts with inline-only support.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), listen, noStore, noCache)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, \":8080\")")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "serve without the board store (inline boards only)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, listen string, noStore, noCache bool) error {
	if listen == "" {
		listen = c.Config.API.Listen
	}

	ca, err := c.newCache(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer ca.Close() //nolint:errcheck

	var store *mongostore.Store
	if !noStore {
		store, err = c.openStore(ctx)
		if err != nil {
			c.Logger.Warn("board store unreachable, serving inline boards only", "err", err)
			store = nil
		} else {
			defer store.Close(context.Background()) //nolint:errcheck
		}
	}

	server := api.NewServer(ca, cache.NewDefaultKeyer(), store, c.Logger)

	err = server.ListenAndServe(ctx, listen)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
