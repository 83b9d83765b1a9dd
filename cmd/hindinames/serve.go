package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/hindinames/internal/align"
	"github.com/MrWong99/hindinames/internal/canonical"
	"github.com/MrWong99/hindinames/internal/canonical/postgres"
	"github.com/MrWong99/hindinames/internal/canonical/sqlite"
	"github.com/MrWong99/hindinames/internal/config"
	"github.com/MrWong99/hindinames/internal/dataset"
	"github.com/MrWong99/hindinames/internal/observe"
	"github.com/MrWong99/hindinames/internal/server"
)

func (c *cli) serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendering, canonical lookups and filtering over HTTP",
		Long: `Serve rendering, canonical lookups and filtering over HTTP.

When started with --config the file is watched; changes to log_level, the
filter section and the tiers section apply without a restart.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			addr := c.cfg.Server.ListenAddr
			if listen != "" {
				addr = listen
			}

			engine, err := c.newEngine()
			if err != nil {
				return err
			}

			store, checks, closeStore, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			srv, err := server.New(engine, store,
				server.WithMetrics(observe.DefaultMetrics()),
				server.WithFilter(c.newFilter(c.cfg), c.cfg.Tiers, c.cfg.Filter.NFC),
				server.WithChecks(checks...),
			)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			if c.configPath != "" {
				w, err := config.NewWatcher(c.configPath, func(_, cfg *config.Config, d config.ConfigDiff) {
					if d.LogLevelChanged {
						c.level.Set(slogLevel(d.NewLogLevel))
					}
					if d.FilterChanged || d.TiersChanged {
						srv.SetFilter(c.newFilter(cfg), cfg.Tiers, cfg.Filter.NFC)
					}
				})
				if err != nil {
					return err
				}
				g.Go(func() error { return w.Run(gctx) })
			}
			g.Go(func() error { return srv.ListenAndServe(gctx, addr) })

			slog.Info("hindinames serving",
				"addr", addr,
				"sources", c.cfg.SourceNames(),
				"persistent_store", c.cfg.Store.Persistent(),
			)
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			slog.Info("goodbye")
			return nil
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address overriding server.listen_addr")
	return cmd
}

func (c *cli) newFilter(cfg *config.Config) *align.Filter {
	opts := append(cfg.FilterOptions(), align.WithFilterMetrics(observe.DefaultMetrics()))
	return align.NewFilter(opts...)
}

// openStore opens the configured canonical store and seeds it from
// server.canonical when set.
func (c *cli) openStore(ctx context.Context) (canonical.Store, []server.Check, func(), error) {
	store, probe, closeFn, err := c.openPersistentStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	var checks []server.Check
	if store == nil {
		store = canonical.NewMemStore()
	} else {
		checks = append(checks, server.Check{Name: "store", Probe: probe})
	}

	if path := c.cfg.Server.Canonical; path != "" {
		m, err := dataset.LoadCanonical(path)
		if err == nil {
			err = store.Save(ctx, m)
		}
		if err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		slog.Info("canonical map loaded", "path", path, "entries", m.Len())
	}
	return store, checks, closeFn, nil
}

// openPersistentStore opens the database backend of the store section. It
// returns a nil store when none is configured.
func (c *cli) openPersistentStore(ctx context.Context) (canonical.Store, func(context.Context) error, func(), error) {
	switch sc := c.cfg.Store; {
	case sc.PostgresDSN != "":
		pg, closePool, err := postgres.Open(ctx, sc.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return pg, pg.Ping, closePool, nil
	case sc.SQLitePath != "":
		lite, err := sqlite.Open(ctx, sc.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return lite, lite.Ping, func() {
			if err := lite.Close(); err != nil {
				slog.Warn("closing sqlite store", "err", err)
			}
		}, nil
	}
	return nil, nil, func() {}, nil
}
