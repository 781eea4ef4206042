package export

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sgoldberg/nocogo/nocodb"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

// Transform runs exported records through a user-supplied Lua script.
// The script MUST define a function named `transform_record` taking the
// record as a JSON string ({"id": ..., "fields": {...}}) and returning
// either the (possibly modified) record as a JSON string, or nil to drop
// the record from the export.
// A JSON helper is available inside the script via `local json = require("json")`.
type Transform struct {
	scriptPath string
	pool       *sync.Pool
}

func NewTransform(scriptPath string) (*Transform, error) {
	// Fail on an unreadable or broken script now, not on the first record.
	probe, err := newLuaState(scriptPath)
	if err != nil {
		return nil, err
	}

	pool := &sync.Pool{
		New: func() any {
			L, err := newLuaState(scriptPath)
			if err != nil {
				panic(err)
			}
			return L
		},
	}
	pool.Put(probe)

	return &Transform{
		scriptPath: scriptPath,
		pool:       pool,
	}, nil
}

func newLuaState(scriptPath string) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // Don't load anything by default
	})

	// Manually open only the safe libraries.
	// We skip 'os' and 'io' to prevent system commands/file access.
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},  // Allows 'require'
		{lua.BaseLibName, lua.OpenBase},     // Allows 'print', 'pairs', etc.
		{lua.TabLibName, lua.OpenTable},     // Allows 'table.insert', etc.
		{lua.StringLibName, lua.OpenString}, // Allows string manipulation
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	// Pre-register the JSON module in this VM so the user can
	// do: local json = require("json")
	luajson.Preload(L)

	if err := L.DoFile(scriptPath); err != nil {
		L.Close()
		return nil, fmt.Errorf("cannot load transform script: %w", err)
	}

	if L.GetGlobal("transform_record").Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("transform script must define a `transform_record` function")
	}

	return L, nil
}

// Apply runs one record through the script. The second return value is
// false when the script dropped the record.
func (t *Transform) Apply(record nocodb.Record) (nocodb.Record, bool, error) {
	encoded, err := json.Marshal(record)
	if err != nil {
		return record, false, fmt.Errorf("cannot encode record: %w", err)
	}

	L := t.pool.Get().(*lua.LState)
	defer t.pool.Put(L)

	err = L.CallByParam(lua.P{
		Fn:      L.GetGlobal("transform_record"),
		NRet:    1,
		Protect: true,
	}, lua.LString(string(encoded)))
	if err != nil {
		return record, false, fmt.Errorf("lua script error: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)

	if ret == lua.LNil {
		return nocodb.Record{}, false, nil
	}

	retStr, ok := ret.(lua.LString)
	if !ok {
		return record, false, fmt.Errorf("transform_record must return a JSON string or nil, got %s", ret.Type())
	}

	var out nocodb.Record
	if err := json.Unmarshal([]byte(string(retStr)), &out); err != nil {
		return record, false, fmt.Errorf("transform_record returned invalid JSON: %w", err)
	}

	return out, true, nil
}
