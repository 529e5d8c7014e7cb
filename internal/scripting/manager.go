package scripting

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/finalbattle/internal/game/dice"
)

// DecideHook is the global Lua function a policy defines to pick an action.
const DecideHook = "choose_action"

// CombatantInfo is a snapshot of a combatant passed to Lua.
type CombatantInfo struct {
	Name   string
	HP     int
	MaxHP  int
	Weapon string
	Armor  string
}

// AttackInfo describes one attack the actor may use.
type AttackInfo struct {
	Name        string
	Kind        string
	Probability float64
}

// ItemInfo describes one consumable in the side inventory.
type ItemInfo struct {
	Name string
	Heal int
}

// TurnInfo is everything a policy sees when choosing an action.
type TurnInfo struct {
	Round     int
	Actor     CombatantInfo
	Attacks   []AttackInfo
	Allies    []CombatantInfo
	Opponents []CombatantInfo
	Items     []ItemInfo
	Gear      []string
}

// Decision is a policy's answer. Indices are zero-based.
type Decision struct {
	Action    string
	Attack    int
	Target    int
	Inventory int
}

// Manager owns one sandboxed LState per loaded policy and dispatches
// decision hooks to it.
//
// Manager is safe for concurrent Decide after all Load calls complete. Each
// policy's LState is single-threaded, so calls to the same policy serialize.
type Manager struct {
	mu        sync.Mutex
	states    map[string]*lua.LState
	roller    *dice.Roller
	logger    *zap.Logger
	instLimit int
}

// NewManager creates a Manager whose hook calls may run at most instLimit
// opcodes each; 0 uses DefaultInstructionLimit.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger, instLimit int) *Manager {
	return &Manager{
		states:    make(map[string]*lua.LState),
		roller:    roller,
		logger:    logger,
		instLimit: instLimit,
	}
}

// Load creates a sandboxed VM for key and executes the script at path in it,
// replacing any policy previously loaded under key.
//
// Postcondition: on error no VM is registered for key by this call.
func (m *Manager) Load(key, path string) error {
	L := NewSandboxedState()
	m.RegisterModules(L, key)
	err := limited(context.Background(), L, m.instLimit, func() error { return L.DoFile(path) })
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
	}
	return m.install(key, L)
}

// LoadString is Load for an in-memory script.
func (m *Manager) LoadString(key, src string) error {
	L := NewSandboxedState()
	m.RegisterModules(L, key)
	err := limited(context.Background(), L, m.instLimit, func() error { return L.DoString(src) })
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading inline script for %q: %w", key, err)
	}
	return m.install(key, L)
}

func (m *Manager) install(key string, L *lua.LState) error {
	if L.GetGlobal(DecideHook) == lua.LNil {
		L.Close()
		return fmt.Errorf("scripting: policy %q does not define %s", key, DecideHook)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.states[key]; ok {
		old.Close()
	}
	m.states[key] = L
	return nil
}

// Has reports whether a policy is loaded under key.
func (m *Manager) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[key]
	return ok
}

// Decide calls the policy's choose_action hook with info. It returns false
// when no policy is loaded, the hook returns nil, or the script fails; Lua
// runtime errors are logged at Warn and never propagated.
func (m *Manager) Decide(ctx context.Context, key string, info TurnInfo) (Decision, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	L, ok := m.states[key]
	if !ok {
		return Decision{}, false
	}

	var ret lua.LValue = lua.LNil
	err := limited(ctx, L, m.instLimit, func() error {
		if err := L.CallByParam(lua.P{
			Fn:      L.GetGlobal(DecideHook),
			NRet:    1,
			Protect: true,
		}, turnTable(L, info)); err != nil {
			return err
		}
		ret = L.Get(-1)
		L.Pop(1)
		return nil
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("policy", key),
			zap.String("hook", DecideHook),
			zap.Error(err),
		)
		return Decision{}, false
	}

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return Decision{}, false
	}
	action, ok := tbl.RawGetString("action").(lua.LString)
	if !ok {
		m.logger.Warn("scripting: decision without action", zap.String("policy", key))
		return Decision{}, false
	}
	return Decision{
		Action:    string(action),
		Attack:    index(tbl, "attack"),
		Target:    index(tbl, "target"),
		Inventory: index(tbl, "inventory"),
	}, true
}

// Close releases every loaded VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, L := range m.states {
		L.Close()
		delete(m.states, key)
	}
}

// index reads a one-based Lua index field and returns it zero-based; a
// missing field reads as 0.
func index(tbl *lua.LTable, field string) int {
	n, ok := tbl.RawGetString(field).(lua.LNumber)
	if !ok || n < 1 {
		return 0
	}
	return int(n) - 1
}

func turnTable(L *lua.LState, info TurnInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("round", lua.LNumber(info.Round))
	t.RawSetString("actor", combatantTable(L, info.Actor))

	attacks := L.NewTable()
	for _, a := range info.Attacks {
		at := L.NewTable()
		at.RawSetString("name", lua.LString(a.Name))
		at.RawSetString("kind", lua.LString(a.Kind))
		at.RawSetString("probability", lua.LNumber(a.Probability))
		attacks.Append(at)
	}
	t.RawSetString("attacks", attacks)

	for field, cs := range map[string][]CombatantInfo{"allies": info.Allies, "opponents": info.Opponents} {
		list := L.NewTable()
		for _, c := range cs {
			list.Append(combatantTable(L, c))
		}
		t.RawSetString(field, list)
	}

	items := L.NewTable()
	for _, it := range info.Items {
		tt := L.NewTable()
		tt.RawSetString("name", lua.LString(it.Name))
		tt.RawSetString("heal", lua.LNumber(it.Heal))
		items.Append(tt)
	}
	t.RawSetString("items", items)

	gear := L.NewTable()
	for _, g := range info.Gear {
		gear.Append(lua.LString(g))
	}
	t.RawSetString("gear", gear)
	return t
}

func combatantTable(L *lua.LState, c CombatantInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(c.Name))
	t.RawSetString("hp", lua.LNumber(c.HP))
	t.RawSetString("max_hp", lua.LNumber(c.MaxHP))
	if c.Weapon != "" {
		t.RawSetString("weapon", lua.LString(c.Weapon))
	}
	if c.Armor != "" {
		t.RawSetString("armor", lua.LString(c.Armor))
	}
	return t
}
