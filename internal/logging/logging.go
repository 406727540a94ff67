// Package logging provides named, structured loggers for every subsystem
// of the engine, built once over a shared zap.Logger and retrieved by
// category the way the teacher's file-per-category logger retrieved its
// sinks — except the categories are zap's own hierarchical named loggers
// instead of separate files.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu   sync.RWMutex
	base *zap.Logger
)

// Category names a subsystem logger, mirroring the teacher's Category
// constants (boot, session, browser, ...) but scoped to this engine's
// components.
type Category string

const (
	CategoryBoot     Category = "boot"
	CategoryParser   Category = "parser"
	CategoryResolver Category = "resolver"
	CategoryHealing  Category = "healing"
	CategoryLearning Category = "learning"
	CategoryExecutor Category = "executor"
	CategoryLoader   Category = "loader"
	CategoryWorker   Category = "worker"
	CategoryConfig   Category = "config"
	CategoryPage     Category = "page"
)

// Init installs the process-wide base logger. Safe to call once at
// startup; subsequent calls replace it (used by tests wanting a
// zaptest/observer logger).
func Init(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
}

// Named returns a logger scoped to category, building a no-op base via
// zap.NewNop if Init was never called (keeps library packages usable
// without forcing every test to configure logging first).
func Named(cat Category) *zap.Logger {
	mu.RLock()
	b := base
	mu.RUnlock()
	if b == nil {
		b = zap.NewNop()
	}
	return b.Named(string(cat))
}

// Sync flushes the base logger, per zap's documented shutdown sequence
// (called from cmd/aistep's PersistentPostRun).
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if base == nil {
		return nil
	}
	return base.Sync()
}
