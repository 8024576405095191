package kmark

import (
	"fmt"
	"time"
)

// Opt is an option to configure a manager.
type Opt interface {
	apply(*cfg)
}

type managerOpt struct{ fn func(*cfg) }

func (opt managerOpt) apply(cfg *cfg) { opt.fn(cfg) }

type cfg struct {
	logger Logger
	hooks  hooks

	listener      string
	ledgerShards  int
	drainInterval time.Duration
}

func defaultCfg() cfg {
	return cfg{
		logger: nopLogger{},

		listener:      "PLAINTEXT",
		ledgerShards:  32,
		drainInterval: 100 * time.Millisecond,
	}
}

func (cfg *cfg) validate() error {
	if cfg.listener == "" {
		return fmt.Errorf("invalid empty listener name")
	}
	if cfg.ledgerShards <= 0 {
		return fmt.Errorf("invalid non-positive ledger shards %d", cfg.ledgerShards)
	}
	if cfg.drainInterval <= 0 {
		return fmt.Errorf("invalid non-positive drain interval %v", cfg.drainInterval)
	}
	return nil
}

// WithLogger sets the manager to use the given logger, overriding the
// default no-op logger.
func WithLogger(l Logger) Opt {
	return managerOpt{func(cfg *cfg) { cfg.logger = l }}
}

// WithHooks sets hooks to call whenever relevant. Hooks can be used to
// attach metrics to the manager; see the kprom plugin.
func WithHooks(hooks ...Hook) Opt {
	return managerOpt{func(cfg *cfg) { cfg.hooks = append(cfg.hooks, hooks...) }}
}

// WithListener sets the listener name used when resolving broker endpoints,
// overriding the default "PLAINTEXT". The name must correspond to a listener
// the cluster metadata advertises.
func WithListener(name string) Opt {
	return managerOpt{func(cfg *cfg) { cfg.listener = name }}
}

// WithLedgerShards sets how many shards the pending transaction ledger is
// split across, overriding the default 32. More shards reduce contention
// between concurrent completion attempts at the cost of memory.
func WithLedgerShards(n int) Opt {
	return managerOpt{func(cfg *cfg) { cfg.ledgerShards = n }}
}

// WithDrainInterval sets how often the Run loop drains destination queues,
// overriding the default 100ms. This has no effect on direct DrainAll calls.
func WithDrainInterval(d time.Duration) Opt {
	return managerOpt{func(cfg *cfg) { cfg.drainInterval = d }}
}
