package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM with the sparse_set module loaded.
// Single-goroutine access only.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua VM with the standard libraries and the
// sparse_set module available both as a global and through require.
func NewEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	registerSparseSet(vm)

	return &Engine{vm: vm, log: log}
}

// DoFile runs a script file to completion.
func (e *Engine) DoFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	e.log.Debug("ran lua script", zap.String("file", path))
	return nil
}

// DoString runs a chunk of Lua source.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// Result is the outcome of one script file.
type Result struct {
	File string
	Err  error
}

// RunDir executes every .lua file in dir, each in a fresh VM so scripts
// cannot leak state into one another. A missing directory yields no results.
func RunDir(dir string, log *zap.Logger) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // skip missing dirs
		}
		return nil, fmt.Errorf("read script dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, path := range files {
		e := NewEngine(log)
		err := e.DoFile(path)
		e.Close()
		if err != nil {
			log.Error("lua script failed", zap.String("file", path), zap.Error(err))
		}
		results = append(results, Result{File: path, Err: err})
	}
	return results, nil
}
