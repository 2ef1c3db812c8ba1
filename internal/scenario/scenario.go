package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Gpinchon/sparse-set/internal/core/ecs"
	"gopkg.in/yaml.v3"
)

// Step is one operation or assertion against the set under test.
type Step struct {
	Op      string  `yaml:"op"` // insert, erase, clear, at, contains, expect
	Index   uint32  `yaml:"index"`
	Value   *string `yaml:"value"`
	Present *bool   `yaml:"present"`
	Error   string  `yaml:"error"` // out_of_range, not_found, capacity_exceeded

	// expect only
	Size     *uint32           `yaml:"size"`
	Empty    *bool             `yaml:"empty"`
	Full     *bool             `yaml:"full"`
	Contains map[uint32]bool   `yaml:"contains"`
	Values   map[uint32]string `yaml:"values"`
}

// Scenario is a named sequence of steps replayed against a fresh
// SparseSet[string] of the given capacity.
type Scenario struct {
	Name     string `yaml:"name"`
	Capacity uint32 `yaml:"capacity"`
	Steps    []Step `yaml:"steps"`

	File string `yaml:"-"`
}

var errorNames = map[string]error{
	"out_of_range":      ecs.ErrOutOfRange,
	"not_found":         ecs.ErrNotFound,
	"capacity_exceeded": ecs.ErrCapacityExceeded,
}

// Table holds every scenario loaded from a directory, sorted by file name.
type Table struct {
	scenarios []*Scenario
}

// LoadDir loads every .yaml / .yml file in dir.
func LoadDir(dir string) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	t := &Table{scenarios: make([]*Scenario, 0, len(names))}
	for _, name := range names {
		sc, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		t.scenarios = append(t.scenarios, sc)
	}
	return t, nil
}

// LoadFile loads and validates a single scenario file.
func LoadFile(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	sc.File = path
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Parse decodes and validates a scenario document.
func Parse(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, errors.New("no steps")
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &sc, nil
}

func (st *Step) validate() error {
	if st.Error != "" {
		if _, ok := errorNames[st.Error]; !ok {
			return fmt.Errorf("unknown error name %q", st.Error)
		}
	}
	switch st.Op {
	case "insert":
		if st.Value == nil {
			return errors.New("insert needs a value")
		}
	case "erase", "clear", "expect":
		if st.Error != "" {
			return fmt.Errorf("%s never fails", st.Op)
		}
	case "at":
		if (st.Value == nil) == (st.Error == "") {
			return errors.New("at needs exactly one of value or error")
		}
	case "contains":
		if (st.Present == nil) == (st.Error == "") {
			return errors.New("contains needs exactly one of present or error")
		}
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}

func (t *Table) All() []*Scenario {
	return t.scenarios
}

// Count returns the total number of scenarios loaded.
func (t *Table) Count() int {
	return len(t.scenarios)
}
