// Package sqlite implements the usage.sqlite module: a persistent usage
// ledger on modernc.org/sqlite (pure Go, no CGO) in WAL mode. The ledger is
// registered as usage.ServiceName and receives every observed model call.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/flemzord/gemgate/internal/core"
	"github.com/flemzord/gemgate/internal/usage"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Module owns the database and the Ledger built on it.
type Module struct {
	config Config
	logger *slog.Logger
	ledger *Ledger
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "usage.sqlite",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("usage.sqlite: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if m.config.Path == "" {
		m.config.Path = filepath.Join(ctx.DataDir, defaultDBFile)
	}

	db, err := open(context.TODO(), m.config.Path, m.config)
	if err != nil {
		return err
	}
	m.ledger = newLedger(db, m.logger, m.config.Retention)
	ctx.RegisterService(usage.ServiceName, m.ledger)

	m.logger.Info("usage ledger provisioned",
		"path", m.config.Path,
		"wal", m.config.walEnabled(),
		"retention", m.config.Retention,
	)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if err := m.config.validate(); err != nil {
		return err
	}
	if m.ledger == nil {
		return nil
	}
	if err := m.ledger.db.PingContext(context.TODO()); err != nil {
		return fmt.Errorf("usage.sqlite: ping failed: %w", err)
	}
	var version int
	if err := m.ledger.db.QueryRowContext(context.TODO(), "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("usage.sqlite: read schema version: %w", err)
	}
	if version != schemaVersion() {
		return fmt.Errorf("usage.sqlite: schema version %d, want %d", version, schemaVersion())
	}
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(_ context.Context) error {
	if m.ledger == nil {
		return nil
	}
	m.logger.Info("usage ledger stopping")
	return m.ledger.Close()
}

// Ledger returns the module's ledger.
func (m *Module) Ledger() *Ledger {
	return m.ledger
}
