//go:build js && wasm

package main

import (
	"encoding/json"
	"log"
	"syscall/js"

	"github.com/d5h/chess/board"
	"github.com/d5h/chess/rules"
)

// builtins maps rule names the host may toggle to their implementations.
var builtins = map[string]rules.Func{
	rules.BackwardPawnName: rules.BackwardPawnMoves,
}

func main() {
	registry := rules.NewRegistry()
	bridge := rules.NewBridge(registry)

	// chessMovementPlugin(query Uint8Array, board Uint8Array, out Uint8Array)
	// evaluates every registered rule for the queried piece, fills out with
	// packed move records, and returns the byte count (-1 on error).
	js.Global().Set("chessMovementPlugin", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 3 {
			log.Printf("[Wasm] movement call needs query, board, out")
			return -1
		}
		query := make([]byte, args[0].Length())
		js.CopyBytesToGo(query, args[0])
		boardRegion := make([]byte, args[1].Length())
		js.CopyBytesToGo(boardRegion, args[1])
		out := make([]byte, args[2].Length())

		n, err := bridge.Run(query, boardRegion, out)
		if err != nil {
			log.Printf("[Wasm] movement query: %v", err)
			return -1
		}
		js.CopyBytesToJS(args[2], out)
		return n
	}))

	// chessRulesUpdate(json string) applies a {"name": bool, ...} toggle
	// payload against the built-in rules.
	js.Global().Set("chessRulesUpdate", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			log.Printf("[Wasm] rules update needs a payload")
			return false
		}
		var toggles map[string]bool
		if err := json.Unmarshal([]byte(args[0].String()), &toggles); err != nil {
			log.Printf("[Wasm] rules update: %v", err)
			return false
		}
		for name, on := range toggles {
			fn, ok := builtins[name]
			if !ok {
				log.Printf("[Wasm] unknown rule %q ignored", name)
				continue
			}
			if on {
				registry.Register(name, fn)
			} else {
				registry.Unregister(name)
			}
		}
		return true
	}))

	// chessBoardCell(board Uint8Array, row, col) is a host convenience for
	// reading one packed cell, mainly for debugging from the console.
	js.Global().Set("chessBoardCell", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 3 {
			return -1
		}
		region := make([]byte, args[0].Length())
		js.CopyBytesToGo(region, args[0])
		v, err := board.NewView(region)
		if err != nil {
			log.Printf("[Wasm] board cell: %v", err)
			return -1
		}
		code, err := v.At(args[1].Int(), args[2].Int())
		if err != nil {
			log.Printf("[Wasm] board cell: %v", err)
			return -1
		}
		return int(code)
	}))

	select {}
}
