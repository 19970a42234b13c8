package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/canopyviz/canopy/internal/server"
	"github.com/canopyviz/canopy/pkg/pipeline"
	"github.com/canopyviz/canopy/pkg/tree"
)

// serveCommand creates the HTTP API server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		data string
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long:  `Serve loads the record file once, rebuilds the tree, and exposes per-session exploration over HTTP: toggles, paginated frames, and named snapshots.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			records, err := runner.Load(ctx, pipeline.Options{Data: c.dataPath(data), Logger: logger})
			if err != nil {
				return err
			}
			t := tree.Build(records)
			logger.Info("loaded tree", "records", len(records), "nodes", t.NodeCount())

			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			srv := &http.Server{
				Addr: addr,
				Handler: server.New(server.Options{
					Tree:      t,
					SpacingX:  c.cfg.Layout.SpacingX,
					SpacingY:  c.cfg.Layout.SpacingY,
					ChunkSize: c.cfg.Materialize.ChunkSize,
					Store:     st,
					Logger:    logger,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
				return nil
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "input record file (defaults to config)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config)")

	return cmd
}
