package ecs

// Each2 iterates over indices present in both sa and sb.
// It walks the smaller dense array and probes the other set.
func Each2[A, B any](sa *SparseSet[A], sb *SparseSet[B], fn func(uint32, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for d := uint32(0); d < sa.size; d++ {
			id := sa.dense[d].owner
			if sb.Has(id) {
				fn(id, &sa.dense[d].value, sb.Unchecked(id))
			}
		}
	} else {
		for d := uint32(0); d < sb.size; d++ {
			id := sb.dense[d].owner
			if sa.Has(id) {
				fn(id, sa.Unchecked(id), &sb.dense[d].value)
			}
		}
	}
}

// Each3 iterates over indices present in sa, sb and sc.
func Each3[A, B, C any](sa *SparseSet[A], sb *SparseSet[B], sc *SparseSet[C], fn func(uint32, *A, *B, *C)) {
	// Iterate the smallest set
	smallest := sa.Len()
	which := 0
	if sb.Len() < smallest {
		smallest = sb.Len()
		which = 1
	}
	if sc.Len() < smallest {
		which = 2
	}

	switch which {
	case 0:
		for id := range sa.Indices() {
			if sb.Has(id) && sc.Has(id) {
				fn(id, sa.Unchecked(id), sb.Unchecked(id), sc.Unchecked(id))
			}
		}
	case 1:
		for id := range sb.Indices() {
			if sa.Has(id) && sc.Has(id) {
				fn(id, sa.Unchecked(id), sb.Unchecked(id), sc.Unchecked(id))
			}
		}
	case 2:
		for id := range sc.Indices() {
			if sa.Has(id) && sb.Has(id) {
				fn(id, sa.Unchecked(id), sb.Unchecked(id), sc.Unchecked(id))
			}
		}
	}
}
