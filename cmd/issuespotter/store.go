package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bryanwahyu/lawagent/internal/config"
	"github.com/bryanwahyu/lawagent/internal/domain/session"
	mysqlp "github.com/bryanwahyu/lawagent/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/lawagent/internal/infra/db/postgres"
	"github.com/bryanwahyu/lawagent/internal/infra/db/sqlite"
	"github.com/bryanwahyu/lawagent/internal/infra/sessionstore"
	"github.com/bryanwahyu/lawagent/internal/infra/storage"
)

// openStore returns the session store selected by cfg.Client.Store.Driver
// and a function releasing its resources.
func openStore(ctx context.Context, cfg *config.Config, sessionID string) (session.Store, func(), error) {
	noop := func() {}
	switch cfg.Client.Store.Driver {
	case "memory":
		return sessionstore.NewMemory(), noop, nil
	case "file":
		store, err := sessionstore.NewFile(cfg.Client.Store.Path, sessionID)
		return store, noop, err
	case "sqlite":
		db, err := sqlite.Open(cfg.Client.Store.Path)
		if err != nil {
			return nil, noop, err
		}
		return db.SessionStore(sessionID), func() { db.Close() }, nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, noop, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, noop, err
		}
		return mysqlp.NewSessionStore(db, sessionID), func() { db.Close() }, nil
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, noop, err
		}
		if err := pgp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, noop, err
		}
		return pgp.NewSessionStore(db, sessionID), func() { db.Close() }, nil
	case "minio":
		store, err := storage.New(ctx, storage.Options{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, noop, err
		}
		return store.SessionStore(sessionID), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown session store driver %q", cfg.Client.Store.Driver)
}

// listSessions returns the sessions kept by the local drivers.
func listSessions(cfg *config.Config) ([]string, error) {
	switch cfg.Client.Store.Driver {
	case "file":
		return sessionstore.ListSessions(cfg.Client.Store.Path)
	case "sqlite":
		if _, err := os.Stat(cfg.Client.Store.Path); os.IsNotExist(err) {
			return []string{}, nil
		}
		db, err := sqlite.Open(cfg.Client.Store.Path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.Sessions(context.Background())
	}
	return nil, fmt.Errorf("listing sessions is not supported by the %s driver", cfg.Client.Store.Driver)
}
