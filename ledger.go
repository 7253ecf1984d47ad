// Package coreledger wires the accounting engine together for embedding:
// configuration, storage, event publishing and the account and transfer
// services behind one constructor.
package coreledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/core-ledger/internal/adapter/events"
	"github.com/api-sage/core-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/core-ledger/internal/adapter/repository/postgres"
	"github.com/api-sage/core-ledger/internal/config"
	"github.com/api-sage/core-ledger/internal/domain"
	"github.com/api-sage/core-ledger/internal/usecase/refgen"
	"github.com/api-sage/core-ledger/internal/usecase/service_interfaces"
	"github.com/api-sage/core-ledger/internal/usecase/services"
)

// Config is loaded from the environment (and an optional .env file).
type Config = config.Config

// LoadConfig reads the engine configuration from the environment.
func LoadConfig() (Config, error) {
	return config.Load()
}

// Engine is the assembled accounting core. Accounts and Transfers are the
// operational surface; Store and Events are exposed for projections and
// custom consumers.
type Engine struct {
	Accounts  service_interfaces.AccountService
	Transfers service_interfaces.TransferService
	Store     domain.AccountStore
	Events    domain.EventPublisher

	db *sql.DB
}

// New connects to postgres and assembles the engine from cfg. Close releases
// the database pool when the engine is no longer needed.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}

	engine := assemble(cfg, postgres.NewAccountStore(db))
	engine.db = db
	return engine, nil
}

// NewInMemory assembles the engine on the in-memory store. Intended for
// tests and ephemeral setups; nothing survives the process.
func NewInMemory(cfg Config) *Engine {
	return assemble(cfg, memory.NewAccountStore())
}

// NewWithStore assembles the engine on a caller-provided store.
func NewWithStore(cfg Config, store domain.AccountStore) *Engine {
	return assemble(cfg, store)
}

func assemble(cfg Config, store domain.AccountStore) *Engine {
	var publisher domain.EventPublisher
	if cfg.EventWebhookURL != "" {
		publisher = events.NewWebhookPublisher(cfg.EventWebhookURL)
	} else {
		publisher = events.NewLogPublisher()
	}

	refs := refgen.NewGenerator(store, cfg.SortCode, cfg.ReferenceAttempts)

	return &Engine{
		Accounts:  services.NewAccountService(store, publisher, refs, cfg.SortCode, cfg.Currency, cfg.LockWait),
		Transfers: services.NewTransferService(store, publisher, refs, cfg.LockWait),
		Store:     store,
		Events:    publisher,
	}
}

// Close releases resources held by the engine.
func (e *Engine) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}
