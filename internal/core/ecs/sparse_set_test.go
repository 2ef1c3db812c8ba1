package ecs

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseSetNew(t *testing.T) {
	s := New[int](8)
	require.Equal(t, uint32(8), s.MaxSize())
	require.Equal(t, uint32(0), s.Len())
	require.True(t, s.Empty())
	require.False(t, s.Full())
	for i := uint32(0); i < 8; i++ {
		ok, err := s.Contains(i)
		require.NoError(t, err)
		require.False(t, ok)
	}
	require.NoError(t, s.CheckInvariants())
}

func TestSparseSetScenarios(t *testing.T) {
	t.Run("insert_single", func(t *testing.T) {
		s := New[string](4)
		v, err := s.Insert(2, "a")
		require.NoError(t, err)
		require.Equal(t, "a", *v)

		require.Equal(t, uint32(1), s.Len())
		ok, err := s.Contains(2)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = s.Contains(0)
		require.NoError(t, err)
		require.False(t, ok)

		got, err := s.At(2)
		require.NoError(t, err)
		require.Equal(t, "a", *got)
	})

	t.Run("erase_middle_keeps_survivors", func(t *testing.T) {
		s := New[int](4)
		for i, v := range []int{10, 20, 30, 40} {
			_, err := s.Insert(uint32(i), v)
			require.NoError(t, err)
		}
		require.True(t, s.Erase(1))

		require.Equal(t, uint32(3), s.Len())
		require.False(t, s.Has(1))
		for i, want := range map[uint32]int{0: 10, 2: 30, 3: 40} {
			got, err := s.At(i)
			require.NoError(t, err)
			require.Equal(t, want, *got, "index %d", i)
		}
		require.NoError(t, s.CheckInvariants())
	})

	t.Run("replace_at_capacity_one", func(t *testing.T) {
		s := New[string](1)
		_, err := s.Insert(0, "x")
		require.NoError(t, err)
		_, err = s.Insert(0, "y")
		require.NoError(t, err)

		require.Equal(t, uint32(1), s.Len())
		got, err := s.At(0)
		require.NoError(t, err)
		require.Equal(t, "y", *got)
	})

	t.Run("full_rejects_new_index_but_replaces", func(t *testing.T) {
		s := New[int](2)
		_, err := s.Insert(0, 1)
		require.NoError(t, err)
		_, err = s.Insert(1, 2)
		require.NoError(t, err)
		require.True(t, s.Full())

		_, err = s.Insert(5, 3)
		require.ErrorIs(t, err, ErrCapacityExceeded)
		require.Equal(t, uint32(2), s.Len())

		_, err = s.Insert(0, 7)
		require.NoError(t, err)
		got, err := s.At(0)
		require.NoError(t, err)
		require.Equal(t, 7, *got)
		require.Equal(t, uint32(2), s.Len())
	})

	t.Run("erase_out_of_range_is_noop", func(t *testing.T) {
		s := New[int](4)
		require.False(t, s.Erase(999))
		require.Equal(t, uint32(0), s.Len())
		require.NoError(t, s.CheckInvariants())
	})
}

func TestSparseSetCapacityExceeded(t *testing.T) {
	const n = 16
	s := New[int](n)
	order := rand.New(rand.NewSource(7)).Perm(n)
	for k, i := range order {
		require.False(t, s.Full())
		_, err := s.Insert(uint32(i), k)
		require.NoError(t, err)
	}
	require.True(t, s.Full())
	require.Equal(t, uint32(n), s.Len())

	_, err := s.Insert(n, 0)
	require.ErrorIs(t, err, ErrCapacityExceeded)
	var ie *IndexError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, "insert", ie.Op)
	require.Equal(t, uint32(n), ie.Index)

	_, err = s.Emplace(n+3, func(*int) error {
		t.Fatal("constructor must not run on a full set")
		return nil
	})
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.NoError(t, s.CheckInvariants())

	require.True(t, s.Erase(3))
	_, err = s.Insert(n, 0)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.Insert(3, 3)
	require.NoError(t, err)
	require.True(t, s.Full())
}

func TestSparseSetErrors(t *testing.T) {
	s := New[int](4)

	_, err := s.Contains(4)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = s.At(4)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = s.At(1)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Insert(10, 1)
	require.ErrorIs(t, err, ErrOutOfRange)

	var ie *IndexError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, uint32(10), ie.Index)
	assert.Equal(t, uint32(4), ie.Capacity)
	assert.Equal(t, "sparse set insert 10 (capacity 4): index out of range", err.Error())

	require.False(t, s.Has(4))
	require.False(t, s.Has(1))
}

func TestSparseSetEmplaceFailureLeavesSetIntact(t *testing.T) {
	boom := errors.New("boom")
	released := 0
	s := New[int](2, WithRelease(func(uint32, *int) { released++ }))

	_, err := s.Emplace(0, func(*int) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, uint32(0), s.Len())
	require.False(t, s.Has(0))
	require.NoError(t, s.CheckInvariants())

	_, err = s.Insert(0, 5)
	require.NoError(t, err)
	_, err = s.Emplace(0, func(v *int) error {
		*v = 6
		return boom
	})
	require.ErrorIs(t, err, boom)
	got, err := s.At(0)
	require.NoError(t, err)
	require.Equal(t, 5, *got)
	require.Equal(t, 0, released)
	require.NoError(t, s.CheckInvariants())
}

func TestSparseSetReleaseExactlyOnce(t *testing.T) {
	released := map[uint32][]int{}
	s := New[int](8, WithRelease(func(i uint32, v *int) {
		released[i] = append(released[i], *v)
	}))
	for i := uint32(0); i < 6; i++ {
		_, err := s.Insert(i, int(i)*10)
		require.NoError(t, err)
	}

	_, err := s.Insert(2, 99)
	require.NoError(t, err)
	require.Equal(t, []int{20}, released[2])

	s.Erase(0)
	s.Erase(0)
	require.Equal(t, []int{0}, released[0])

	s.Close()
	require.True(t, s.Empty())
	require.Equal(t, map[uint32][]int{
		0: {0},
		1: {10},
		2: {20, 99},
		3: {30},
		4: {40},
		5: {50},
	}, released)
	require.NoError(t, s.CheckInvariants())

	s.Clear()
	require.Len(t, released, 6)
}

func TestSparseSetEraseTailAndSole(t *testing.T) {
	cases := []struct {
		name   string
		insert []uint32
		erase  uint32
		left   []uint32
	}{
		{"sole", []uint32{3}, 3, nil},
		{"tail", []uint32{0, 1, 2}, 2, []uint32{0, 1}},
		{"head", []uint32{0, 1, 2}, 0, []uint32{2, 1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := New[uint32](4)
			for _, i := range c.insert {
				_, err := s.Insert(i, i+100)
				require.NoError(t, err)
			}
			require.True(t, s.Erase(c.erase))
			require.NoError(t, s.CheckInvariants())

			var left []uint32
			for i, v := range s.All() {
				require.Equal(t, i+100, *v)
				left = append(left, i)
			}
			require.Equal(t, c.left, left)
		})
	}
}

func TestSparseSetUnchecked(t *testing.T) {
	s := New[int](4)
	_, err := s.Insert(1, 11)
	require.NoError(t, err)
	*s.Unchecked(1) = 12
	got, err := s.At(1)
	require.NoError(t, err)
	require.Equal(t, 12, *got)

	require.Panics(t, func() { s.Unchecked(2) })
	require.Panics(t, func() { s.Unchecked(4) })
}

func TestSparseSetEraseZeroesTail(t *testing.T) {
	s := New[*int](2)
	a, b := 1, 2
	_, _ = s.Insert(0, &a)
	_, _ = s.Insert(1, &b)
	s.Erase(0)
	require.Nil(t, s.dense[1].value)
	require.Equal(t, &b, *s.Unchecked(1))
}

func TestSparseSetClear(t *testing.T) {
	s := New[int](4)
	s.Clear()
	require.True(t, s.Empty())

	for i := uint32(0); i < 4; i++ {
		_, _ = s.Insert(i, int(i))
	}
	s.Clear()
	require.True(t, s.Empty())
	for i := uint32(0); i < 4; i++ {
		require.False(t, s.Has(i))
	}
	require.NoError(t, s.CheckInvariants())

	_, err := s.Insert(3, 3)
	require.NoError(t, err)
	require.Equal(t, uint32(1), s.Len())
}

func TestSparseSetZeroCapacity(t *testing.T) {
	s := New[int](0)
	require.True(t, s.Empty())
	require.True(t, s.Full())
	_, err := s.Insert(0, 1)
	require.ErrorIs(t, err, ErrCapacityExceeded)
	_, err = s.Contains(0)
	require.ErrorIs(t, err, ErrOutOfRange)
	require.False(t, s.Erase(0))
}

// Random operations checked against a map model.
func TestSparseSetRandomOps(t *testing.T) {
	const capacity = 64
	rng := rand.New(rand.NewSource(1))
	s := New[int](capacity)
	model := map[uint32]int{}

	for step := 0; step < 5000; step++ {
		i := uint32(rng.Intn(capacity + 8))
		switch rng.Intn(3) {
		case 0, 1:
			v := rng.Int()
			_, err := s.Insert(i, v)
			_, present := model[i]
			switch {
			case !present && len(model) == capacity:
				require.ErrorIs(t, err, ErrCapacityExceeded)
			case i >= capacity:
				require.ErrorIs(t, err, ErrOutOfRange)
			default:
				require.NoError(t, err)
				model[i] = v
			}
		case 2:
			_, had := model[i]
			require.Equal(t, had, s.Erase(i))
			delete(model, i)
		}

		require.Equal(t, uint32(len(model)), s.Len())
		if step%100 == 0 {
			require.NoError(t, s.CheckInvariants())
			seen := map[uint32]bool{}
			for i, v := range s.All() {
				require.False(t, seen[i], "duplicate owner %d", i)
				seen[i] = true
				require.Equal(t, model[i], *v)
			}
			require.Len(t, seen, len(model))
		}
	}
	for i := uint32(0); i < capacity; i++ {
		_, want := model[i]
		ok, err := s.Contains(i)
		require.NoError(t, err)
		require.Equal(t, want, ok, "index %d", i)
	}
}

func TestSparseSetIterators(t *testing.T) {
	s := New[int](8)
	for _, i := range []uint32{5, 1, 7} {
		_, _ = s.Insert(i, int(i)*2)
	}

	var idx []uint32
	for i := range s.Indices() {
		idx = append(idx, i)
	}
	require.Equal(t, []uint32{5, 1, 7}, idx)

	sum := 0
	for v := range s.Values() {
		sum += *v
	}
	require.Equal(t, 26, sum)

	n := 0
	for range s.All() {
		n++
		break
	}
	require.Equal(t, 1, n)

	s.Each(func(i uint32, v *int) { *v++ })
	got, _ := s.At(7)
	require.Equal(t, 15, *got)
}

func BenchmarkSparseSetInsertErase(b *testing.B) {
	s := New[[3]float32](1 << 16)
	for n := 0; n < b.N; n++ {
		i := uint32(n) & (1<<16 - 1)
		_, _ = s.Insert(i, [3]float32{float32(i)})
		if n&1 == 1 {
			s.Erase(i)
		}
	}
}

func BenchmarkSparseSetIterate(b *testing.B) {
	s := New[[3]float32](1 << 16)
	for i := uint32(0); i < 1<<16; i += 2 {
		_, _ = s.Insert(i, [3]float32{float32(i)})
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		var sum float32
		for v := range s.Values() {
			sum += v[0]
		}
		_ = sum
	}
}
