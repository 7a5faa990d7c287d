// Package dice implements seeded dice rolls for engine mechanics.
package dice

import (
	"errors"
	"math/rand"
)

// ErrMissingDice indicates a request contained no dice specs.
var ErrMissingDice = errors.New("at least one dice spec is required")

// ErrInvalidDiceSpec indicates a spec with non-positive sides or count.
var ErrInvalidDiceSpec = errors.New("dice spec requires positive sides and count")

// Spec describes a homogeneous group of dice to roll.
type Spec struct {
	Sides int
	Count int
}

// Request describes a full dice roll with an explicit seed.
type Request struct {
	Dice []Spec
	Seed int64
}

// Roll holds the individual results for one Spec.
type Roll struct {
	Sides   int
	Results []int
	Total   int
}

// Result aggregates all rolls for a request.
type Result struct {
	Rolls []Roll
	Total int
}

// RollDice rolls dice based on the provided request.
//
// # Determinism
//
// RollDice is deterministic with respect to the Seed field on Request.
// Given the same Seed and the same Dice slice (including order and values),
// RollDice will always produce the same Result.
//
// # Ordering
//
// Dice specs in Request.Dice are processed in slice order. The resulting
// Roll entries in Result.Rolls appear in the same order as the
// corresponding Spec entries in Request.Dice.
//
// # Errors
//
//   - At least one Spec must be provided in Request.Dice, otherwise
//     ErrMissingDice is returned.
//   - Each Spec must have Sides > 0 and Count > 0, otherwise
//     ErrInvalidDiceSpec is returned.
func RollDice(request Request) (Result, error) {
	if len(request.Dice) == 0 {
		return Result{}, ErrMissingDice
	}

	rng := rand.New(rand.NewSource(request.Seed))
	return RollWithRng(rng, request.Dice)
}

// RollWithRng rolls dice using a provided random source.
// This is useful when a caller owns the RNG lifecycle, e.g. a session
// worker synthesizing several rolls from one seed.
func RollWithRng(rng *rand.Rand, specs []Spec) (Result, error) {
	if len(specs) == 0 {
		return Result{}, ErrMissingDice
	}

	rolls := make([]Roll, 0, len(specs))
	total := 0

	for _, spec := range specs {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return Result{}, ErrInvalidDiceSpec
		}

		results := make([]int, spec.Count)
		rollTotal := 0
		for i := 0; i < spec.Count; i++ {
			value := rollDie(rng, spec.Sides)
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, Roll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return Result{
		Rolls: rolls,
		Total: total,
	}, nil
}

// InitiativeResult reports one d20 initiative roll with its modifier applied.
type InitiativeResult struct {
	Die      int
	Modifier int
	Total    int
}

// RollInitiative rolls d20 + dexModifier using the provided random source.
//
// The session layer uses this to synthesize auto-rolls for participants who
// miss an initiative collection window.
func RollInitiative(rng *rand.Rand, dexModifier int) InitiativeResult {
	die := rollDie(rng, 20)
	return InitiativeResult{
		Die:      die,
		Modifier: dexModifier,
		Total:    die + dexModifier,
	}
}

// rollDie rolls a single die with the provided number of sides.
func rollDie(rng *rand.Rand, sides int) int {
	return rng.Intn(sides) + 1
}
