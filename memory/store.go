package memory

import (
	"fmt"

	"github.com/viant/kvmem/vector"
)

// Unset is the label of a slot that has never been written. It is also a
// valid label; the store does not distinguish the two.
const Unset int64 = 0

// SlotUpdate carries the fields a Write replaces. Nil fields are left
// untouched; non-nil fields must have one entry per written index.
type SlotUpdate struct {
	Keys   [][]float32
	Values []int64
	Ages   []int64
}

// KeyStore owns the keys, values and ages of a fixed number of slots.
// Keys are kept in one contiguous block and exposed as row views.
type KeyStore struct {
	dim     int
	data    []float32
	keys    [][]float32
	values  []int64
	ages    []int64
	version uint64
}

// NewKeyStore allocates capacity slots with random unit keys drawn from src,
// zero values and zero ages.
func NewKeyStore(capacity, dim int, src vector.Source) *KeyStore {
	s := &KeyStore{
		dim:    dim,
		data:   make([]float32, capacity*dim),
		keys:   make([][]float32, capacity),
		values: make([]int64, capacity),
		ages:   make([]int64, capacity),
	}
	for i := range s.keys {
		s.keys[i] = s.data[i*dim : (i+1)*dim : (i+1)*dim]
		copy(s.keys[i], vector.RandomUnit(src, dim))
	}
	return s
}

// Len returns the number of slots.
func (s *KeyStore) Len() int { return len(s.keys) }

// Dim returns the key dimension.
func (s *KeyStore) Dim() int { return s.dim }

// Version changes whenever a key is rewritten.
func (s *KeyStore) Version() uint64 { return s.version }

// Read returns copies of the keys, values and ages at indices.
func (s *KeyStore) Read(indices []int) ([][]float32, []int64, []int64) {
	keys := make([][]float32, len(indices))
	values := make([]int64, len(indices))
	ages := make([]int64, len(indices))
	for n, i := range indices {
		s.check(i)
		keys[n] = append([]float32(nil), s.keys[i]...)
		values[n] = s.values[i]
		ages[n] = s.ages[i]
	}
	return keys, values, ages
}

// Value returns the label stored at slot i.
func (s *KeyStore) Value(i int) int64 {
	s.check(i)
	return s.values[i]
}

// Age returns the age of slot i.
func (s *KeyStore) Age(i int) int64 {
	s.check(i)
	return s.ages[i]
}

// Write replaces the provided fields at indices, in order, so a repeated
// index keeps the last entry. Keys are normalized on the way in.
func (s *KeyStore) Write(indices []int, u SlotUpdate) {
	if u.Keys != nil && len(u.Keys) != len(indices) {
		panic(fmt.Sprintf("memory: write of %d indices with %d keys", len(indices), len(u.Keys)))
	}
	if u.Values != nil && len(u.Values) != len(indices) {
		panic(fmt.Sprintf("memory: write of %d indices with %d values", len(indices), len(u.Values)))
	}
	if u.Ages != nil && len(u.Ages) != len(indices) {
		panic(fmt.Sprintf("memory: write of %d indices with %d ages", len(indices), len(u.Ages)))
	}
	for n, i := range indices {
		s.check(i)
		if u.Keys != nil {
			if len(u.Keys[n]) != s.dim {
				panic(fmt.Sprintf("memory: key of dim %d written to store of dim %d", len(u.Keys[n]), s.dim))
			}
			copy(s.keys[i], u.Keys[n])
			vector.NormalizeInPlace(s.keys[i])
		}
		if u.Values != nil {
			s.values[i] = u.Values[n]
		}
		if u.Ages != nil {
			s.ages[i] = u.Ages[n]
		}
	}
	if u.Keys != nil && len(indices) > 0 {
		s.version++
	}
}

// Tick ages every slot by one.
func (s *KeyStore) Tick() {
	for i := range s.ages {
		s.ages[i]++
	}
}

// rows exposes the live key rows to the search index.
func (s *KeyStore) rows() [][]float32 { return s.keys }

func (s *KeyStore) check(i int) {
	if i < 0 || i >= len(s.keys) {
		panic(fmt.Sprintf("memory: slot %d out of range [0, %d)", i, len(s.keys)))
	}
}
