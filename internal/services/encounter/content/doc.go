// Package content loads encounter content from disk: YAML monster
// statblocks and Lua combat scripts. Loaded content is immutable;
// spawning instantiates fresh combatants from templates.
package content
