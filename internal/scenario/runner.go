package scenario

import (
	"errors"
	"fmt"

	"github.com/Gpinchon/sparse-set/internal/core/ecs"
	"go.uber.org/zap"
)

// Result is the outcome of replaying one scenario.
type Result struct {
	Name  string
	File  string
	Steps int // steps that passed
	Err   error
}

// RunAll replays every scenario in the table. Failures are logged and
// returned; they do not stop later scenarios.
func (t *Table) RunAll(log *zap.Logger) []Result {
	results := make([]Result, 0, len(t.scenarios))
	for _, sc := range t.scenarios {
		steps, err := Run(sc)
		if err != nil {
			log.Error("scenario failed", zap.String("scenario", sc.Name), zap.String("file", sc.File), zap.Error(err))
		} else {
			log.Debug("scenario passed", zap.String("scenario", sc.Name), zap.Int("steps", steps))
		}
		results = append(results, Result{Name: sc.Name, File: sc.File, Steps: steps, Err: err})
	}
	return results
}

// Run replays sc against a fresh set and returns the number of steps that
// passed. After every step the set's invariants are rechecked and the
// number of live values must equal values stored minus values released.
func Run(sc *Scenario) (int, error) {
	var stored, released uint32
	set := ecs.New[string](sc.Capacity, ecs.WithRelease(func(uint32, *string) {
		released++
	}))
	defer set.Close()

	for i := range sc.Steps {
		st := &sc.Steps[i]
		if err := apply(set, st, &stored); err != nil {
			return i, fmt.Errorf("%s step %d (%s %d): %w", sc.Name, i+1, st.Op, st.Index, err)
		}
		if err := set.CheckInvariants(); err != nil {
			return i, fmt.Errorf("%s step %d (%s %d): invariant: %w", sc.Name, i+1, st.Op, st.Index, err)
		}
		if stored-released != set.Len() {
			return i, fmt.Errorf("%s step %d (%s %d): %d stored, %d released, %d live",
				sc.Name, i+1, st.Op, st.Index, stored, released, set.Len())
		}
	}
	return len(sc.Steps), nil
}

func apply(set *ecs.SparseSet[string], st *Step, stored *uint32) error {
	switch st.Op {
	case "insert":
		v, err := set.Insert(st.Index, *st.Value)
		if err := expectErr(st.Error, err); err != nil {
			return err
		}
		if err == nil {
			*stored++
			if *v != *st.Value {
				return fmt.Errorf("insert returned %q, want %q", *v, *st.Value)
			}
		}
	case "erase":
		set.Erase(st.Index)
	case "clear":
		set.Clear()
	case "at":
		v, err := set.At(st.Index)
		if err := expectErr(st.Error, err); err != nil {
			return err
		}
		if err == nil && *v != *st.Value {
			return fmt.Errorf("at = %q, want %q", *v, *st.Value)
		}
	case "contains":
		ok, err := set.Contains(st.Index)
		if err := expectErr(st.Error, err); err != nil {
			return err
		}
		if err == nil && ok != *st.Present {
			return fmt.Errorf("contains = %t, want %t", ok, *st.Present)
		}
	case "expect":
		return expectState(set, st)
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}

func expectErr(name string, err error) error {
	if name == "" {
		if err != nil {
			return fmt.Errorf("unexpected error: %w", err)
		}
		return nil
	}
	want := errorNames[name]
	if err == nil {
		return fmt.Errorf("expected %s, got success", name)
	}
	if !errors.Is(err, want) {
		return fmt.Errorf("expected %s, got: %w", name, err)
	}
	return nil
}

func expectState(set *ecs.SparseSet[string], st *Step) error {
	if st.Size != nil && set.Len() != *st.Size {
		return fmt.Errorf("size = %d, want %d", set.Len(), *st.Size)
	}
	if st.Empty != nil && set.Empty() != *st.Empty {
		return fmt.Errorf("empty = %t, want %t", set.Empty(), *st.Empty)
	}
	if st.Full != nil && set.Full() != *st.Full {
		return fmt.Errorf("full = %t, want %t", set.Full(), *st.Full)
	}
	for i, want := range st.Contains {
		if got := set.Has(i); got != want {
			return fmt.Errorf("contains(%d) = %t, want %t", i, got, want)
		}
	}
	for i, want := range st.Values {
		got, err := set.At(i)
		if err != nil {
			return fmt.Errorf("values[%d]: %w", i, err)
		}
		if *got != want {
			return fmt.Errorf("values[%d] = %q, want %q", i, *got, want)
		}
	}
	return nil
}
