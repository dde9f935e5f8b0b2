package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/daytime"
)

const scenarioTypeName = "scenario"

// Scenario is an ordered list of steps loaded from a Lua script.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted action or expectation.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile runs a Lua script that must return a Scenario.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := newLuaState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	scenario, err := runScenarioChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

// LoadScenarioFromString runs Lua source that must return a Scenario.
func LoadScenarioFromString(source string) (*Scenario, error) {
	state := newLuaState()
	if err := lua.LoadString(state, source); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	return runScenarioChunk(state)
}

func newLuaState() *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLuaTypes(state)
	return state
}

func runScenarioChunk(state *lua.State) (*Scenario, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	return scenario, nil
}

func registerLuaTypes(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")

	state.NewTable()
	lua.SetFunctions(state, timeHelpers, 0)
	state.SetGlobal("Time")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

var timeHelpers = []lua.RegistryFunction{
	{Name: "window", Function: timeWindow},
	{Name: "day_start", Function: timeDayStart},
}

// timeWindow returns the start and end of a challenge that recruits for
// recruit_days local days after now and executes for execute_days.
func timeWindow(state *lua.State) int {
	now := uint64(lua.CheckNumber(state, 1))
	timezone := lua.CheckInteger(state, 2)
	if timezone < math.MinInt8 || timezone > math.MaxInt8 {
		lua.ArgumentError(state, 2, "timezone out of range")
		return 0
	}
	recruitDays := lua.CheckInteger(state, 3)
	executeDays := lua.CheckInteger(state, 4)
	if recruitDays < 1 || executeDays < 1 {
		lua.Errorf(state, "recruit and execute days must be at least 1")
		return 0
	}
	start := daytime.FutureDayStart(now, int8(timezone), uint32(recruitDays))
	end := daytime.FutureDayStart(start, int8(timezone), uint32(executeDays))
	state.PushNumber(float64(start))
	state.PushNumber(float64(end))
	return 2
}

func timeDayStart(state *lua.State) int {
	now := uint64(lua.CheckNumber(state, 1))
	timezone := lua.CheckInteger(state, 2)
	days := lua.OptInteger(state, 3, 0)
	if timezone < math.MinInt8 || timezone > math.MaxInt8 || days < 0 {
		lua.ArgumentError(state, 2, "timezone or days out of range")
		return 0
	}
	state.PushNumber(float64(daytime.FutureDayStart(now, int8(timezone), uint32(days))))
	return 1
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "at", Function: scenarioAt},
	{Name: "advance", Function: tableStep("advance")},
	{Name: "to_start", Function: optionalTableStep("to_start")},
	{Name: "to_end", Function: optionalTableStep("to_end")},
	{Name: "deliver", Function: optionalTableStep("deliver")},
	{Name: "create", Function: tableStep("create")},
	{Name: "join", Function: tableStep("join")},
	{Name: "sponsor", Function: tableStep("sponsor")},
	{Name: "complete_daily", Function: tableStep("complete_daily")},
	{Name: "send", Function: tableStep("send")},
	{Name: "expect", Function: tableStep("expect")},
	{Name: "expect_count", Function: scenarioExpectCount},
	{Name: "expect_query", Function: tableStep("expect_query")},
	{Name: "expect_prize", Function: tableStep("expect_prize")},
	{Name: "expect_transfer", Function: tableStep("expect_transfer")},
}

// tableStep binds a method that takes one options table.
func tableStep(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		lua.CheckType(state, 2, lua.TypeTable)
		appendStep(scenario, kind, tableToMap(state, 2))
		state.PushValue(1)
		return 1
	}
}

func optionalTableStep(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		appendStep(scenario, kind, optionalTable(state, 2))
		state.PushValue(1)
		return 1
	}
}

func scenarioAt(state *lua.State) int {
	scenario := checkScenario(state)
	args := map[string]any{}
	switch state.TypeOf(2) {
	case lua.TypeString:
		value, _ := state.ToString(2)
		args["time"] = value
	case lua.TypeNumber:
		value, _ := state.ToNumber(2)
		args["unix"] = normalizeNumber(value)
	default:
		lua.ArgumentError(state, 2, "RFC 3339 time or unix seconds expected")
		return 0
	}
	appendStep(scenario, "at", args)
	state.PushValue(1)
	return 1
}

func scenarioExpectCount(state *lua.State) int {
	scenario := checkScenario(state)
	count := lua.CheckInteger(state, 2)
	appendStep(scenario, "expect_count", map[string]any{"count": count})
	state.PushValue(1)
	return 1
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) int {
	if scenario == nil {
		return -1
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
	return len(scenario.Steps) - 1
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
	if math.Mod(value, 1) == 0 && math.Abs(value) < 1<<53 {
		return int64(value)
	}
	return value
}
