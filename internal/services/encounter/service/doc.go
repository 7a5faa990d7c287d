// Package service exposes the encounter engine over MCP. Tool handlers
// route every call through the session registry's single-writer
// workers; resources give narrative collaborators a read-only view of
// the turn stack, the initiative order and character sheets.
package service
