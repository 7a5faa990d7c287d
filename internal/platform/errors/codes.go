// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInternal represents an internal failure.
	CodeInternal Code = "INTERNAL"

	// Session errors
	CodeSessionNotFound      Code = "SESSION_NOT_FOUND"
	CodeSessionAlreadyExists Code = "SESSION_ALREADY_EXISTS"
	CodeSessionClosed        Code = "SESSION_CLOSED"

	// Turn stack errors
	CodeTurnStackEmpty     Code = "TURN_STACK_EMPTY"
	CodeTurnNoStepList     Code = "TURN_NO_STEP_LIST"
	CodeTurnQueueInvalid   Code = "TURN_QUEUE_INVALID"
	CodeTurnNotFound       Code = "TURN_NOT_FOUND"
	CodeTurnAlreadyClosed  Code = "TURN_ALREADY_CLOSED"
	CodeTurnCondenseFailed Code = "TURN_CONDENSE_FAILED"

	// Combat phase errors
	CodeCombatPhaseInvalid      Code = "COMBAT_PHASE_INVALID"
	CodeCombatNoParticipants    Code = "COMBAT_NO_PARTICIPANTS"
	CodeCombatUnknownCombatant  Code = "COMBAT_UNKNOWN_COMBATANT"
	CodeCombatDuplicateEntry    Code = "COMBAT_DUPLICATE_ENTRY"
	CodeCombatOrderEmpty        Code = "COMBAT_ORDER_EMPTY"
	CodeCombatEntryInvalid      Code = "COMBAT_ENTRY_INVALID"
	CodeCombatAlreadyFinalized  Code = "COMBAT_ALREADY_FINALIZED"
	CodeCombatNotInRoundsPhase  Code = "COMBAT_NOT_IN_ROUNDS_PHASE"
	CodeCombatParticipantAbsent Code = "COMBAT_PARTICIPANT_ABSENT"

	// Response coordination errors
	CodeExpectationInvalid           Code = "EXPECTATION_INVALID"
	CodeExpectationUnknownCharacters Code = "EXPECTATION_UNKNOWN_CHARACTERS"

	// Character errors
	CodeCharacterNotFound Code = "CHARACTER_NOT_FOUND"
	CodeCharacterInvalid  Code = "CHARACTER_INVALID"

	// State command errors
	CodeCommandInvalid  Code = "COMMAND_INVALID"
	CodeCommandUnknown  Code = "COMMAND_UNKNOWN_TAG"
	CodeRestNotExpanded Code = "REST_NOT_EXPANDED"

	// Content errors
	CodeBestiaryInvalid Code = "BESTIARY_INVALID"
	CodeScriptInvalid   Code = "SCRIPT_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Dice/mechanics errors
	CodeDiceMissing     Code = "DICE_MISSING"
	CodeDiceInvalidSpec Code = "DICE_INVALID_SPEC"
	CodeSeedOutOfRange  Code = "SEED_OUT_OF_RANGE"
)

// Kind classifies codes by caller-facing failure class.
type Kind int

const (
	// KindUnknown covers codes with no explicit classification.
	KindUnknown Kind = iota
	// KindInvalidArgument covers validation failures and bad input.
	KindInvalidArgument
	// KindNotFound covers missing records and unknown identifiers.
	KindNotFound
	// KindFailedPrecondition covers contract violations: operations invoked
	// from a state that forbids them.
	KindFailedPrecondition
)

// Kind maps a code to its failure class.
func (c Code) Kind() Kind {
	switch c {
	case CodeExpectationInvalid,
		CodeExpectationUnknownCharacters,
		CodeCharacterInvalid,
		CodeCommandInvalid,
		CodeCommandUnknown,
		CodeCombatEntryInvalid,
		CodeTurnQueueInvalid,
		CodeBestiaryInvalid,
		CodeScriptInvalid,
		CodeDiceMissing,
		CodeDiceInvalidSpec,
		CodeSeedOutOfRange:
		return KindInvalidArgument

	case CodeSessionNotFound,
		CodeCharacterNotFound,
		CodeTurnNotFound,
		CodeCombatUnknownCombatant,
		CodeCombatParticipantAbsent,
		CodeNotFound:
		return KindNotFound

	case CodeSessionAlreadyExists,
		CodeSessionClosed,
		CodeTurnStackEmpty,
		CodeTurnNoStepList,
		CodeTurnAlreadyClosed,
		CodeCombatPhaseInvalid,
		CodeCombatNoParticipants,
		CodeCombatDuplicateEntry,
		CodeCombatOrderEmpty,
		CodeCombatAlreadyFinalized,
		CodeCombatNotInRoundsPhase,
		CodeRestNotExpanded:
		return KindFailedPrecondition

	default:
		return KindUnknown
	}
}
