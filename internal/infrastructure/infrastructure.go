// Package infrastructure wires up the shared subsystems every domain
// module depends on: lifecycle coordination, logging, the database pool,
// and blob storage.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gavelworks/gavel/internal/config"
	"github.com/gavelworks/gavel/pkg/database"
	"github.com/gavelworks/gavel/pkg/lifecycle"
	"github.com/gavelworks/gavel/pkg/storage"
)

// Infrastructure carries the shared subsystems handed to each module.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New constructs every subsystem from configuration without starting any
// of them. Start registers their lifecycle hooks.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
	}, nil
}

// Start hooks the database and storage into the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
