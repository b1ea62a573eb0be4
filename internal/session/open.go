package session

import (
	"fmt"

	"github.com/berth-dev/intake/internal/config"
	"github.com/berth-dev/intake/internal/topic"
)

// Open returns the store selected by cfg for the project at root.
func Open(cfg *config.Config, root string, c *topic.Catalog) (Store, error) {
	path := cfg.StorePath(root)
	switch cfg.Store.Backend {
	case config.BackendFile, "":
		return NewFileStore(path, c), nil
	case config.BackendSQLite:
		return NewSQLiteStore(path, c)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
