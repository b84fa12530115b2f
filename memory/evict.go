package memory

import "github.com/viant/kvmem/vector"

// UpdateStats lists the slots one EvictionPolicy.Update call rewrote.
type UpdateStats struct {
	// Reinforced holds the blended slot of each correct row, in row order.
	Reinforced []int
	// Evicted holds the replaced slot of each incorrect row, in row order.
	Evicted []int
}

// EvictionPolicy rewrites the store after every query: it ages all slots,
// reinforces keys that retrieved the right label and recycles the stalest
// slots for misses.
type EvictionPolicy struct {
	store    *KeyStore
	ageNoise float64
	src      vector.Source
}

func newEvictionPolicy(store *KeyStore, ageNoise float64, src vector.Source) *EvictionPolicy {
	return &EvictionPolicy{store: store, ageNoise: ageNoise, src: src}
}

// Update applies one step. queries are the unit query rows, labels the true
// labels, predicted the nearest-neighbour labels and slots the nearest slot
// per row.
func (e *EvictionPolicy) Update(queries [][]float32, labels, predicted []int64, slots []int) UpdateStats {
	e.store.Tick()

	var correct, incorrect []int
	for row := range queries {
		if predicted[row] == labels[row] {
			correct = append(correct, row)
		} else {
			incorrect = append(incorrect, row)
		}
	}
	stats := UpdateStats{}
	if len(correct) > 0 {
		stats.Reinforced = e.reinforce(queries, slots, correct)
	}
	if len(incorrect) > 0 {
		stats.Evicted = e.replace(queries, labels, incorrect)
	}
	return stats
}

// reinforce blends each correct query into the key that retrieved it. All
// blends read the keys as they were before this call.
func (e *EvictionPolicy) reinforce(queries [][]float32, slots []int, rows []int) []int {
	targets := make([]int, len(rows))
	for n, row := range rows {
		targets[n] = slots[row]
	}
	current, _, _ := e.store.Read(targets)
	blended := make([][]float32, len(rows))
	for n, row := range rows {
		blended[n] = vector.Normalize(vector.Add(current[n], queries[row]))
	}
	e.store.Write(targets, SlotUpdate{Keys: blended, Ages: make([]int64, len(rows))})
	return targets
}

// replace writes each missed query into one of the slots with the largest
// noisy age. Selection is made once for the whole batch and yields distinct
// slots; with more misses than slots, rows wrap around and the later row
// wins.
func (e *EvictionPolicy) replace(queries [][]float32, labels []int64, rows []int) []int {
	capacity := e.store.Len()
	noise := make([]float64, capacity)
	vector.Uniform(e.src, -e.ageNoise, e.ageNoise, noise)
	noisy := make([]float64, capacity)
	for i := range noisy {
		noisy[i] = float64(e.store.ages[i]) + noise[i]
	}
	oldest := vector.TopK(noisy, min(len(rows), capacity))

	targets := make([]int, len(rows))
	keys := make([][]float32, len(rows))
	values := make([]int64, len(rows))
	for n, row := range rows {
		targets[n] = oldest[n%len(oldest)].Index
		keys[n] = queries[row]
		values[n] = labels[row]
	}
	e.store.Write(targets, SlotUpdate{Keys: keys, Values: values, Ages: make([]int64, len(rows))})
	return targets
}
