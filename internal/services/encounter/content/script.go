package content

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
)

const scriptTypeName = "combat_script"

// StepObjective is one entry in a combat script's adjudication
// scaffold. Resolution marks the step at which declared actions are
// resolved into state commands.
type StepObjective struct {
	Text       string `json:"text"`
	Resolution bool   `json:"resolution,omitempty"`
}

// Step is one scripted encounter action for the scenario runner.
type Step struct {
	Kind string
	Args map[string]any
}

// CombatScript is a Lua-defined encounter: an ordered adjudication
// scaffold plus the scripted sequence the scenario runner executes.
type CombatScript struct {
	Name       string
	Objectives []StepObjective
	Steps      []Step
}

// ObjectiveTexts flattens a scaffold into the plain objective strings a
// turn is started with.
func ObjectiveTexts(objectives []StepObjective) []string {
	if len(objectives) == 0 {
		return nil
	}
	texts := make([]string, 0, len(objectives))
	for _, objective := range objectives {
		texts = append(texts, objective.Text)
	}
	return texts
}

// DefaultAdjudication returns the built-in six-step action adjudication
// scaffold used when no combat script supplies one.
func DefaultAdjudication() []StepObjective {
	return []StepObjective{
		{Text: "Receive and interpret the declared action"},
		{Text: "Determine the relevant rules and required rolls"},
		{Text: "Collect the attack and ability rolls"},
		{Text: "Adjudicate the outcome against defenses and saves"},
		{Text: "Resolve the action and extract state changes", Resolution: true},
		{Text: "Narrate the result and check for triggered reactions"},
	}
}

// LoadCombatScript runs a Lua script that builds and returns an
// Encounter. A script without a name takes the file's base name.
func LoadCombatScript(path string) (*CombatScript, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerScriptType(state)
	registerScriptConstructor(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeScriptInvalid, "load combat script", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeScriptInvalid, "run combat script", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, apperrors.New(apperrors.CodeScriptInvalid, "combat script must return an Encounter")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	script, ok := ud.(*CombatScript)
	if !ok || script == nil {
		return nil, apperrors.New(apperrors.CodeScriptInvalid, "combat script returned an invalid Encounter")
	}
	if strings.TrimSpace(script.Name) == "" {
		script.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return script, nil
}

func registerScriptType(state *lua.State) {
	lua.NewMetaTable(state, scriptTypeName)
	state.NewTable()
	lua.SetFunctions(state, scriptMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerScriptConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, scriptConstructor, 0)
	state.SetGlobal("Encounter")
}

var scriptConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scriptNew},
}

func scriptNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	script := &CombatScript{Name: name}
	state.PushUserData(script)
	lua.SetMetaTableNamed(state, scriptTypeName)
	return 1
}

var scriptMethods = []lua.RegistryFunction{
	{Name: "objective", Function: scriptObjective},
	{Name: "resolution", Function: scriptResolution},
	{Name: "character", Function: scriptCharacter},
	{Name: "spawn", Function: scriptSpawn},
	{Name: "start_combat", Function: scriptStartCombat},
	{Name: "initiative", Function: scriptInitiative},
	{Name: "action", Function: scriptAction},
	{Name: "submit", Function: scriptSubmit},
	{Name: "reaction", Function: scriptReaction},
	{Name: "end_turn", Function: scriptEndTurn},
	{Name: "commands", Function: scriptCommands},
	{Name: "advance", Function: scriptAdvance},
	{Name: "remove", Function: scriptRemove},
	{Name: "end_combat", Function: scriptEndCombat},
	{Name: "finish", Function: scriptFinish},
	{Name: "status", Function: scriptStatus},
}

func scriptObjective(state *lua.State) int {
	script := checkScript(state)
	text := lua.CheckString(state, 2)
	script.Objectives = append(script.Objectives, StepObjective{Text: text})
	return 0
}

func scriptResolution(state *lua.State) int {
	script := checkScript(state)
	text := lua.CheckString(state, 2)
	script.Objectives = append(script.Objectives, StepObjective{Text: text, Resolution: true})
	return 0
}

func scriptCharacter(state *lua.State) int {
	script := checkScript(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(script, "character", tableToMap(state, 2))
	return 0
}

func scriptSpawn(state *lua.State) int {
	script := checkScript(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(script, "spawn", tableToMap(state, 2))
	return 0
}

func scriptStartCombat(state *lua.State) int {
	script := checkScript(state)
	appendStep(script, "start_combat", optionalTable(state, 2))
	return 0
}

func scriptInitiative(state *lua.State) int {
	script := checkScript(state)
	appendStep(script, "initiative", optionalTable(state, 2))
	return 0
}

func scriptAction(state *lua.State) int {
	script := checkScript(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(script, "action", tableToMap(state, 2))
	return 0
}

func scriptSubmit(state *lua.State) int {
	script := checkScript(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(script, "submit", tableToMap(state, 2))
	return 0
}

func scriptReaction(state *lua.State) int {
	script := checkScript(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(script, "reaction", tableToMap(state, 2))
	return 0
}

func scriptEndTurn(state *lua.State) int {
	script := checkScript(state)
	appendStep(script, "end_turn", nil)
	return 0
}

func scriptCommands(state *lua.State) int {
	script := checkScript(state)
	switch state.TypeOf(2) {
	case lua.TypeString:
		raw, _ := state.ToString(2)
		appendStep(script, "commands", map[string]any{"json": raw})
	case lua.TypeTable:
		appendStep(script, "commands", map[string]any{"commands": tableToGo(state, 2)})
	default:
		lua.ArgumentError(state, 2, "json string or command table expected")
	}
	return 0
}

func scriptAdvance(state *lua.State) int {
	script := checkScript(state)
	appendStep(script, "advance", nil)
	return 0
}

func scriptRemove(state *lua.State) int {
	script := checkScript(state)
	name := lua.CheckString(state, 2)
	appendStep(script, "remove", map[string]any{"character": name})
	return 0
}

func scriptEndCombat(state *lua.State) int {
	script := checkScript(state)
	appendStep(script, "end_combat", nil)
	return 0
}

func scriptFinish(state *lua.State) int {
	script := checkScript(state)
	appendStep(script, "finish", nil)
	return 0
}

func scriptStatus(state *lua.State) int {
	script := checkScript(state)
	appendStep(script, "status", nil)
	return 0
}

func checkScript(state *lua.State) *CombatScript {
	ud := lua.CheckUserData(state, 1, scriptTypeName)
	if script, ok := ud.(*CombatScript); ok && script != nil {
		return script
	}
	lua.ArgumentError(state, 1, "encounter expected")
	return nil
}

func appendStep(script *CombatScript, kind string, args map[string]any) {
	if args == nil {
		args = map[string]any{}
	}
	script.Steps = append(script.Steps, Step{Kind: kind, Args: args})
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	case lua.TypeUserData:
		return state.ToUserData(index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}

// String renders a short description for logs.
func (s *CombatScript) String() string {
	return fmt.Sprintf("%s (%d objectives, %d steps)", s.Name, len(s.Objectives), len(s.Steps))
}
