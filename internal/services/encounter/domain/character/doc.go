// Package character models the combat-relevant state of player characters
// and monsters behind a shared Combatant interface.
package character
