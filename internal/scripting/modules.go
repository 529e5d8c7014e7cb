package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/finalbattle/internal/game/dice"
)

// RegisterModules installs the engine table into L. Randomness exposed to
// scripts draws from the Manager's Roller so seeded battles stay replayable.
//
//	engine.random(n)   -> integer in [1, n]
//	engine.chance(p)   -> boolean, true with probability p
//	engine.roll(expr)  -> total of a dice expression such as "1d5-1"
//	engine.log(msg)    -> debug log line
//
// Precondition: L must be from NewSandboxedState.
func (m *Manager) RegisterModules(L *lua.LState, key string) {
	engine := L.NewTable()
	L.SetFuncs(engine, map[string]lua.LGFunction{
		"random": func(L *lua.LState) int {
			n := L.CheckInt(1)
			if n < 1 {
				L.ArgError(1, "n must be >= 1")
				return 0
			}
			L.Push(lua.LNumber(m.roller.Intn(n) + 1))
			return 1
		},
		"chance": func(L *lua.LState) int {
			p := float64(L.CheckNumber(1))
			if p < 0 || p > 1 {
				L.ArgError(1, "probability must be within [0, 1]")
				return 0
			}
			L.Push(lua.LBool(m.roller.Chance("script "+key, p)))
			return 1
		},
		"roll": func(L *lua.LState) int {
			expr, err := dice.Parse(L.CheckString(1))
			if err != nil {
				L.ArgError(1, err.Error())
				return 0
			}
			L.Push(lua.LNumber(m.roller.Roll(expr).Total()))
			return 1
		},
		"log": func(L *lua.LState) int {
			m.logger.Debug("script log", zap.String("policy", key), zap.String("message", L.CheckString(1)))
			return 0
		},
	})
	L.SetGlobal("engine", engine)
}
