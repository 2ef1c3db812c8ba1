package stress

import (
	"fmt"
	"time"

	"github.com/Gpinchon/sparse-set/internal/config"
	"github.com/Gpinchon/sparse-set/internal/core/ecs"
	"go.uber.org/zap"
)

// Transform is the payload stored per index: a plain value type with no
// references, the common case for component storage.
type Transform struct {
	Position [3]float32
}

// Report summarises one stress round.
type Report struct {
	Capacity  uint32
	Inserted  uint32
	Erased    uint32
	Remaining uint32
	Elapsed   time.Duration
}

// Run fills a set to capacity, verifies every slot, erases every index not
// divisible by the stride, and verifies the surviving pattern.
func Run(cfg config.StressConfig, log *zap.Logger) ([]Report, error) {
	reports := make([]Report, 0, cfg.Rounds)
	for round := 0; round < cfg.Rounds; round++ {
		r, err := runRound(cfg.Capacity, cfg.EraseStride)
		if err != nil {
			return reports, fmt.Errorf("round %d: %w", round, err)
		}
		log.Debug("stress round done",
			zap.Int("round", round),
			zap.Uint32("capacity", r.Capacity),
			zap.Uint32("erased", r.Erased),
			zap.Duration("elapsed", r.Elapsed),
		)
		reports = append(reports, r)
	}
	return reports, nil
}

func runRound(capacity, stride uint32) (Report, error) {
	start := time.Now()
	r := Report{Capacity: capacity}

	set := ecs.New[Transform](capacity)
	defer set.Close()

	for i := uint32(0); i < set.MaxSize(); i++ {
		t, err := set.Insert(i, Transform{})
		if err != nil {
			return r, fmt.Errorf("insert %d: %w", i, err)
		}
		t.Position[0] = float32(i)
		r.Inserted++
	}
	if !set.Full() {
		return r, fmt.Errorf("set not full after %d inserts", r.Inserted)
	}

	for i := uint32(0); i < set.Len(); i++ {
		t, err := set.At(i)
		if err != nil {
			return r, fmt.Errorf("at %d: %w", i, err)
		}
		if t.Position[0] != float32(i) {
			return r, fmt.Errorf("index %d holds position %v", i, t.Position[0])
		}
	}

	for i := uint32(0); i < set.MaxSize(); i++ {
		if i%stride != 0 && set.Erase(i) {
			r.Erased++
		}
	}

	for i := uint32(0); i < set.MaxSize(); i++ {
		ok, err := set.Contains(i)
		if err != nil {
			return r, fmt.Errorf("contains %d: %w", i, err)
		}
		if want := i%stride == 0; ok != want {
			return r, fmt.Errorf("index %d present=%t, want %t", i, ok, want)
		}
		if ok && set.Unchecked(i).Position[0] != float32(i) {
			return r, fmt.Errorf("index %d lost its value after erase pass", i)
		}
	}
	if err := set.CheckInvariants(); err != nil {
		return r, err
	}

	r.Remaining = set.Len()
	r.Elapsed = time.Since(start)
	return r, nil
}
