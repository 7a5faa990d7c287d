// Package coordination gates player messages during multiplayer sessions.
//
// An Expectation names who should answer the game master's last message
// and what kind of answer is due. A Collector gathers those answers, and
// the Coordinator validates incoming messages against the current
// expectation, enforcing strict turn order while combat mode is on and
// waving everything through while it is off.
package coordination

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
)

// ResponseType classifies the answer the game master is waiting for. The
// type determines the collection mode: who may answer and how many
// answers finish the cycle.
type ResponseType string

const (
	// ResponseAction is a normal turn action; only the first listed
	// character may answer.
	ResponseAction ResponseType = "action"
	// ResponseInitiative collects initiative rolls from every listed
	// combatant.
	ResponseInitiative ResponseType = "initiative"
	// ResponseSavingThrow collects a save from every listed character.
	ResponseSavingThrow ResponseType = "saving_throw"
	// ResponseReaction offers an optional window; it only closes by
	// timeout or by everyone passing.
	ResponseReaction ResponseType = "reaction"
	// ResponseFreeForm accepts the first answer from any listed
	// character.
	ResponseFreeForm ResponseType = "free_form"
	// ResponseNone means the game master is narrating.
	ResponseNone ResponseType = "none"
)

// ParseResponseType converts a wire string into a ResponseType.
func ParseResponseType(s string) (ResponseType, error) {
	switch t := ResponseType(strings.ToLower(strings.TrimSpace(s))); t {
	case ResponseAction, ResponseInitiative, ResponseSavingThrow,
		ResponseReaction, ResponseFreeForm, ResponseNone:
		return t, nil
	}
	return "", apperrors.WithMetadata(apperrors.CodeExpectationInvalid,
		"unknown response type",
		map[string]string{"response_type": s})
}

// CollectionMode is how a Collector decides completion for a response
// type.
type CollectionMode string

const (
	ModeSingle   CollectionMode = "single"
	ModeAll      CollectionMode = "all"
	ModeAny      CollectionMode = "any"
	ModeOptional CollectionMode = "optional"
	ModeNone     CollectionMode = "none"
)

// CollectionMode maps the response type to its completion rule.
func (t ResponseType) CollectionMode() CollectionMode {
	switch t {
	case ResponseAction:
		return ModeSingle
	case ResponseInitiative, ResponseSavingThrow:
		return ModeAll
	case ResponseReaction:
		return ModeOptional
	case ResponseFreeForm:
		return ModeAny
	default:
		return ModeNone
	}
}

func (t ResponseType) requiresCharacters() bool {
	switch t {
	case ResponseAction, ResponseInitiative, ResponseSavingThrow, ResponseReaction:
		return true
	}
	return false
}

// Expectation names the characters who should respond and the kind of
// response due from them. Characters keeps its given order; for Action
// the first entry is the active character.
type Expectation struct {
	Characters []string     `json:"characters"`
	Type       ResponseType `json:"response_type"`
	Prompt     string       `json:"prompt,omitempty"`

	// Filtered holds characters dropped by ApplyRegistry, kept for
	// surfacing warnings to the caller.
	Filtered []string `json:"-"`
}

// NewExpectation builds an Expectation, rejecting types that require
// characters when none are given.
func NewExpectation(t ResponseType, characters []string, prompt string) (*Expectation, error) {
	if t.requiresCharacters() && len(characters) == 0 {
		return nil, apperrors.WithMetadata(apperrors.CodeExpectationInvalid,
			fmt.Sprintf("response type %q requires at least one character", t),
			map[string]string{"response_type": string(t)})
	}
	return &Expectation{
		Characters: append([]string(nil), characters...),
		Type:       t,
		Prompt:     prompt,
	}, nil
}

// ApplyRegistry drops characters missing from the known set, recording
// them in Filtered. Initiative expectations are exempt since they may
// name enemies the roster does not track. When every character is
// unknown the expectation is unusable and an error is returned so the
// caller can correct itself.
func (e *Expectation) ApplyRegistry(known map[string]bool) error {
	if known == nil || !e.Type.requiresCharacters() {
		return nil
	}
	if e.Type == ResponseInitiative {
		return nil
	}

	var kept, dropped []string
	for _, id := range e.Characters {
		if known[id] {
			kept = append(kept, id)
		} else {
			dropped = append(dropped, id)
		}
	}
	if len(dropped) == 0 {
		return nil
	}
	if len(kept) == 0 {
		registered := make([]string, 0, len(known))
		for id := range known {
			registered = append(registered, id)
		}
		sort.Strings(registered)
		return apperrors.WithMetadata(apperrors.CodeExpectationUnknownCharacters,
			fmt.Sprintf("none of the specified characters are registered: %s", strings.Join(dropped, ", ")),
			map[string]string{"registered": strings.Join(registered, ", ")})
	}
	e.Characters = kept
	e.Filtered = dropped
	return nil
}

// ActiveCharacter returns the character whose turn it is for Action
// expectations, or "" for every other type.
func (e *Expectation) ActiveCharacter() string {
	if e.Type == ResponseAction && len(e.Characters) > 0 {
		return e.Characters[0]
	}
	return ""
}

func (e *Expectation) expects(characterID string) bool {
	for _, id := range e.Characters {
		if id == characterID {
			return true
		}
	}
	return false
}
