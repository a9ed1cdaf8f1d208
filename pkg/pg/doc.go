// Package pg bootstraps the PostgreSQL pool used by the subscription and
// usage stores.
//
// Connect opens a pgx pool with retries, Migrate applies the embedded goose
// migrations and Healthcheck backs the readiness probe.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//		return err
//	}
package pg
