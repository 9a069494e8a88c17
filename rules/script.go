package rules

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/d5h/chess/board"
)

// ErrScriptNoMoves means the script never defined moves(piece, board).
var ErrScriptNoMoves = errors.New("rule script does not define moves(piece, board)")

// ScriptRule wraps a Lua chunk as a registry callback, so rule authors can
// extend movement without recompiling the client. The chunk must define a
// global function
//
//	moves(piece, board)
//
// where piece has fields row, col and code (a one-character string), board
// has a function field at(row, col) returning the occupant's code string or
// nil for an empty square, and the return value is a list of
// {row=, col=, code=} tables.
//
// The embedded interpreter state is reused across queries and is not safe
// for concurrent use, matching the host's single-threaded query model.
type ScriptRule struct {
	state *lua.LState
	fn    *lua.LFunction
}

// NewScriptRule compiles src and resolves its moves function.
func NewScriptRule(src string) (*ScriptRule, error) {
	L := lua.NewState()
	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("compile rule script: %w", err)
	}
	fn, ok := L.GetGlobal("moves").(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, ErrScriptNoMoves
	}
	return &ScriptRule{state: L, fn: fn}, nil
}

// Close releases the interpreter. The rule must be unregistered first.
func (s *ScriptRule) Close() {
	s.state.Close()
}

// Moves implements Func.
func (s *ScriptRule) Moves(q Query, v board.View) ([]Move, error) {
	L := s.state

	piece := L.NewTable()
	piece.RawSetString("row", lua.LNumber(q.Row))
	piece.RawSetString("col", lua.LNumber(q.Col))
	piece.RawSetString("code", lua.LString(string([]byte{q.Code})))

	b := L.NewTable()
	b.RawSetString("at", L.NewFunction(func(L *lua.LState) int {
		row, col := L.CheckInt(1), L.CheckInt(2)
		occ, err := v.At(row, col)
		if err != nil {
			L.RaiseError("board.at(%d, %d): out of bounds", row, col)
			return 0
		}
		if occ == board.Empty {
			L.Push(lua.LNil)
		} else {
			L.Push(lua.LString(string([]byte{occ})))
		}
		return 1
	}))

	if err := L.CallByParam(lua.P{Fn: s.fn, NRet: 1, Protect: true}, piece, b); err != nil {
		return nil, fmt.Errorf("run rule script: %w", err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	if ret == lua.LNil {
		return nil, nil
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("rule script returned %s, want table", ret.Type())
	}

	var out []Move
	var convErr error
	tbl.ForEach(func(_, item lua.LValue) {
		if convErr != nil {
			return
		}
		rec, ok := item.(*lua.LTable)
		if !ok {
			convErr = fmt.Errorf("rule script move entry is %s, want table", item.Type())
			return
		}
		row := int(lua.LVAsNumber(rec.RawGetString("row")))
		col := int(lua.LVAsNumber(rec.RawGetString("col")))
		code := lua.LVAsString(rec.RawGetString("code"))
		if len(code) != 1 {
			convErr = fmt.Errorf("rule script move code %q is not a single character", code)
			return
		}
		out = append(out, Move{Row: uint8(row), Col: uint8(col), Code: code[0]})
	})
	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}
