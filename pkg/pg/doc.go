// Package pg provides PostgreSQL connectivity helpers built on pgx:
// pooled connections with startup retry, goose migrations routed through the
// application logger, health checks, and error classification helpers used by
// the storage layers.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    log.Error("database unavailable", "error", err)
//	    os.Exit(1)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    os.Exit(1)
//	}
package pg
