// Package storage defines persistence contracts for encounter records.
//
// These interfaces keep session orchestration separate from storage
// technology. Live engine state (turn stack, combat state, collectors)
// is never persisted; only character sheets and the completed-turn
// journal cross this boundary.
package storage
