package scripting

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Gpinchon/sparse-set/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
)

const (
	moduleName     = "sparse_set"
	typeName       = "sparse_set.set"
	maxLuaCapacity = 1 << 24
)

type luaSet = ecs.SparseSet[lua.LValue]

// Error kinds as exposed to scripts. Raised messages start with the kind.
var errorKinds = []struct {
	name string
	err  error
}{
	{"out_of_range", ecs.ErrOutOfRange},
	{"not_found", ecs.ErrNotFound},
	{"capacity_exceeded", ecs.ErrCapacityExceeded},
}

var setMethods = map[string]lua.LGFunction{
	"insert":   setInsert,
	"erase":    setErase,
	"at":       setAt,
	"contains": setContains,
	"has":      setHas,
	"size":     setSize,
	"max_size": setMaxSize,
	"empty":    setEmpty,
	"full":     setFull,
	"clear":    setClear,
	"each":     setEach,
}

func registerSparseSet(L *lua.LState) {
	mt := L.NewTypeMetatable(typeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), setMethods))
	L.SetField(mt, "__len", L.NewFunction(setSize))
	L.SetField(mt, "__tostring", L.NewFunction(setToString))

	mod := L.NewTable()
	L.SetField(mod, "new", L.NewFunction(newSet))
	L.SetField(mod, "kind", L.NewFunction(errorKind))
	kinds := L.NewTable()
	for _, k := range errorKinds {
		kinds.RawSetString(k.name, lua.LString(k.name))
	}
	L.SetField(mod, "errors", kinds)

	L.SetGlobal(moduleName, mod)
	L.PreloadModule(moduleName, func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})
}

// raise converts a Go error into a Lua error whose message is
// "<kind>: <detail>" so scripts can match on the kind.
func raise(L *lua.LState, err error) {
	kind := "error"
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			kind = k.name
			break
		}
	}
	L.Error(lua.LString(kind+": "+err.Error()), 0)
}

func checkSet(L *lua.LState) *luaSet {
	ud := L.CheckUserData(1)
	if s, ok := ud.Value.(*luaSet); ok {
		return s
	}
	L.ArgError(1, "sparse_set expected")
	return nil
}

// checkIndex reads an index argument. Negative and oversized numbers map
// to MaxUint32, which is out of range for every set a script can build.
func checkIndex(L *lua.LState, n int) uint32 {
	v := L.CheckInt64(n)
	if v < 0 || v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

func newSet(L *lua.LState) int {
	capacity := L.CheckInt64(1)
	if capacity < 0 || capacity > maxLuaCapacity {
		L.ArgError(1, fmt.Sprintf("capacity must be within [0, %d]", maxLuaCapacity))
		return 0
	}
	ud := L.NewUserData()
	ud.Value = ecs.New[lua.LValue](uint32(capacity))
	L.SetMetatable(ud, L.GetTypeMetatable(typeName))
	L.Push(ud)
	return 1
}

func errorKind(L *lua.LState) int {
	msg := L.CheckString(1)
	for _, k := range errorKinds {
		if strings.Contains(msg, k.name+": ") {
			L.Push(lua.LString(k.name))
			return 1
		}
	}
	L.Push(lua.LNil)
	return 1
}

func setInsert(L *lua.LState) int {
	s := checkSet(L)
	v, err := s.Insert(checkIndex(L, 2), L.Get(3))
	if err != nil {
		raise(L, err)
		return 0
	}
	L.Push(*v)
	return 1
}

func setErase(L *lua.LState) int {
	s := checkSet(L)
	L.Push(lua.LBool(s.Erase(checkIndex(L, 2))))
	return 1
}

func setAt(L *lua.LState) int {
	s := checkSet(L)
	v, err := s.At(checkIndex(L, 2))
	if err != nil {
		raise(L, err)
		return 0
	}
	L.Push(*v)
	return 1
}

func setContains(L *lua.LState) int {
	s := checkSet(L)
	ok, err := s.Contains(checkIndex(L, 2))
	if err != nil {
		raise(L, err)
		return 0
	}
	L.Push(lua.LBool(ok))
	return 1
}

func setHas(L *lua.LState) int {
	s := checkSet(L)
	L.Push(lua.LBool(s.Has(checkIndex(L, 2))))
	return 1
}

func setSize(L *lua.LState) int {
	L.Push(lua.LNumber(checkSet(L).Len()))
	return 1
}

func setMaxSize(L *lua.LState) int {
	L.Push(lua.LNumber(checkSet(L).MaxSize()))
	return 1
}

func setEmpty(L *lua.LState) int {
	L.Push(lua.LBool(checkSet(L).Empty()))
	return 1
}

func setFull(L *lua.LState) int {
	L.Push(lua.LBool(checkSet(L).Full()))
	return 1
}

func setClear(L *lua.LState) int {
	checkSet(L).Clear()
	return 0
}

// setEach calls fn(index, value) in dense order; returning false stops.
func setEach(L *lua.LState) int {
	s := checkSet(L)
	fn := L.CheckFunction(2)
	for i, v := range s.All() {
		if err := L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, lua.LNumber(i), *v); err != nil {
			L.Error(lua.LString(err.Error()), 0)
			return 0
		}
		ret := L.Get(-1)
		L.Pop(1)
		if ret == lua.LFalse {
			break
		}
	}
	return 0
}

func setToString(L *lua.LState) int {
	s := checkSet(L)
	L.Push(lua.LString(fmt.Sprintf("sparse_set(%d/%d)", s.Len(), s.MaxSize())))
	return 1
}
