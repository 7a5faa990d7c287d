// Package app hosts the per-session orchestration layer.
//
// A Session aggregates the turn stack, combat state machine, response
// coordinator, command orchestrator and character roster for one table.
// The domain types use no locking; every mutation runs on the session's
// single worker goroutine, submitted as a closure through Session.do.
// Collection deadlines are owned here too: installing an expectation
// whose mode requires everyone (or allows passing) arms a timer, and on
// expiry the worker synthesizes the missing responses.
//
// A Registry tracks live sessions for the MCP service and the gateway;
// there is no process-wide session pool.
package app
