// Package sqlite provides a SQLite-backed encounter store.
//
// It persists character sheets and the completed-turn journal. Live
// engine state stays in memory and never crosses into this package.
package sqlite
