package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestShippedScriptsPass(t *testing.T) {
	results, err := RunDir(filepath.Join("..", "..", "scripts"), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		require.NoError(t, r.Err, r.File)
	}
}

func TestSparseSetBinding(t *testing.T) {
	cases := []struct {
		name   string
		src    string
		errMsg string
	}{
		{"insert_and_at", `
			local s = sparse_set.new(3)
			assert(s:insert(1, "v") == "v")
			assert(s:at(1) == "v")
			assert(s:max_size() == 3)
		`, ""},
		{"not_found_raises", `
			local s = sparse_set.new(3)
			s:at(2)
		`, "not_found: sparse set at 2 (capacity 3): index not present"},
		{"out_of_range_raises", `
			sparse_set.new(3):insert(3, true)
		`, "out_of_range: sparse set insert 3"},
		{"capacity_raises", `
			local s = sparse_set.new(1)
			s:insert(0, 1)
			s:insert(7, 2)
		`, "capacity_exceeded"},
		{"bad_capacity", `sparse_set.new(-1)`, "capacity must be within"},
		{"self_check", `sparse_set.new(1).size({})`, "userdata expected"},
		{"kind_of_other_error", `
			local ok, err = pcall(error, "boom")
			assert(sparse_set.kind(err) == nil)
		`, ""},
		{"each_error_propagates", `
			local s = sparse_set.new(2)
			s:insert(0, 1)
			s:each(function() error("inside each") end)
		`, "inside each"},
		{"tables_as_values", `
			local s = sparse_set.new(2)
			local t = {hp = 10}
			s:insert(1, t)
			s:at(1).hp = 5
			assert(t.hp == 5)
			s:erase(1)
			assert(not s:has(1))
		`, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := NewEngine(zap.NewNop())
			defer e.Close()
			err := e.DoString(c.src)
			if c.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, c.errMsg)
		})
	}
}

func TestRunDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("b_fail.lua", `assert(false, "deliberate")`)
	write("a_ok.lua", `leaked = sparse_set.new(1)`)
	write("c_isolated.lua", `assert(leaked == nil)`)
	write("readme.md", "not a script")

	results, err := RunDir(dir, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.NoError(t, results[0].Err)
	require.ErrorContains(t, results[1].Err, "deliberate")
	require.NoError(t, results[2].Err)

	results, err = RunDir(filepath.Join(dir, "missing"), zap.NewNop())
	require.NoError(t, err)
	require.Empty(t, results)
}
