// Package primmap 提供不装箱的原始类型映射，用于热路径上的数值缓存。
package primmap

import (
	"fmt"
	"math"
)

const (
	freeKey = 0
	intPhi  = 0x9E3779B9
)

// NoValue marks an absent entry. Get returns it when no default is supplied.
var NoValue = float32(math.Inf(-1))

// IntFloatMap is an open-addressing int32 → float32 hash map with linear
// probing and backward-shift deletion. It is not safe for concurrent use.
type IntFloatMap struct {
	keys   []int32
	values []float32

	hasFreeKey bool
	freeValue  float32

	fillFactor float64
	threshold  int
	size       int
	mask       int
}

// NewDefault returns a map sized for 16 entries with a 0.75 fill factor.
func NewDefault() *IntFloatMap {
	m, _ := New(16, 0.75)
	return m
}

// New creates a map able to hold size entries before growing.
func New(size int, fillFactor float64) (*IntFloatMap, error) {
	if fillFactor <= 0 || fillFactor >= 1 {
		return nil, fmt.Errorf("fill factor must be in (0, 1), got %v", fillFactor)
	}
	if size <= 0 {
		return nil, fmt.Errorf("size must be positive, got %d", size)
	}
	capacity, err := arraySize(size, fillFactor)
	if err != nil {
		return nil, err
	}
	return &IntFloatMap{
		keys:       make([]int32, capacity),
		values:     newValues(capacity),
		freeValue:  NoValue,
		fillFactor: fillFactor,
		threshold:  int(float64(capacity) * fillFactor),
		mask:       capacity - 1,
	}, nil
}

// Get returns the value stored for key or def when the key is absent.
func (m *IntFloatMap) Get(key int32, def float32) float32 {
	if key == freeKey {
		if m.hasFreeKey {
			return m.freeValue
		}
		return def
	}
	if idx := m.readIndex(key); idx >= 0 {
		return m.values[idx]
	}
	return def
}

// ContainsKey reports whether key is present.
func (m *IntFloatMap) ContainsKey(key int32) bool {
	if key == freeKey {
		return m.hasFreeKey
	}
	return m.readIndex(key) >= 0
}

// Put stores value under key and returns the previous value or NoValue.
func (m *IntFloatMap) Put(key int32, value float32) float32 {
	if key == freeKey {
		prev := m.freeValue
		if !m.hasFreeKey {
			m.size++
			m.hasFreeKey = true
		}
		m.freeValue = value
		return prev
	}

	idx := m.putIndex(key)
	if idx < 0 {
		m.rehash(len(m.keys) * 2)
		idx = m.putIndex(key)
	}
	prev := m.values[idx]
	if m.keys[idx] != key {
		m.keys[idx] = key
		m.values[idx] = value
		m.size++
		if m.size >= m.threshold {
			m.rehash(len(m.keys) * 2)
		}
		return prev
	}
	m.values[idx] = value
	return prev
}

// Remove deletes key and returns the removed value or NoValue.
func (m *IntFloatMap) Remove(key int32) float32 {
	if key == freeKey {
		if !m.hasFreeKey {
			return NoValue
		}
		prev := m.freeValue
		m.hasFreeKey = false
		m.freeValue = NoValue
		m.size--
		return prev
	}

	idx := m.readIndex(key)
	if idx < 0 {
		return NoValue
	}
	prev := m.values[idx]
	m.values[idx] = NoValue
	m.shiftKeys(idx)
	m.size--
	return prev
}

// Size returns the number of present keys, including the free key.
func (m *IntFloatMap) Size() int { return m.size }

// ForEach calls fn for every entry in unspecified order.
func (m *IntFloatMap) ForEach(fn func(key int32, value float32)) {
	if m.hasFreeKey {
		fn(freeKey, m.freeValue)
	}
	for i, k := range m.keys {
		if k != freeKey {
			fn(k, m.values[i])
		}
	}
}

func (m *IntFloatMap) rehash(capacity int) {
	m.threshold = int(float64(capacity) * m.fillFactor)
	m.mask = capacity - 1

	oldKeys, oldValues := m.keys, m.values
	m.keys = make([]int32, capacity)
	m.values = newValues(capacity)
	m.size = 0
	if m.hasFreeKey {
		m.size = 1
	}
	for i := len(oldKeys) - 1; i >= 0; i-- {
		if oldKeys[i] != freeKey {
			m.Put(oldKeys[i], oldValues[i])
		}
	}
}

// shiftKeys closes the gap at pos by moving later chain members back.
func (m *IntFloatMap) shiftKeys(pos int) int {
	for {
		last := pos
		pos = m.next(pos)
		var k int32
		for {
			k = m.keys[pos]
			if k == freeKey {
				m.keys[last] = freeKey
				m.values[last] = NoValue
				return last
			}
			slot := phiMix(k) & m.mask
			if last <= pos {
				if last >= slot || slot > pos {
					break
				}
			} else if last >= slot && slot > pos {
				break
			}
			pos = m.next(pos)
		}
		m.keys[last] = k
		m.values[last] = m.values[pos]
	}
}

func (m *IntFloatMap) readIndex(key int32) int {
	idx := phiMix(key) & m.mask
	if m.keys[idx] == key {
		return idx
	}
	if m.keys[idx] == freeKey {
		return -1
	}
	start := idx
	for idx = m.next(idx); idx != start; idx = m.next(idx) {
		switch m.keys[idx] {
		case freeKey:
			return -1
		case key:
			return idx
		}
	}
	return -1
}

func (m *IntFloatMap) putIndex(key int32) int {
	if idx := m.readIndex(key); idx >= 0 {
		return idx
	}
	start := phiMix(key) & m.mask
	idx := start
	for m.keys[idx] != freeKey {
		idx = m.next(idx)
		if idx == start {
			return -1
		}
	}
	return idx
}

func (m *IntFloatMap) next(idx int) int { return (idx + 1) & m.mask }

func phiMix(x int32) int {
	h := uint32(x) * intPhi
	return int(h ^ (h >> 16))
}

func arraySize(expected int, fillFactor float64) (int, error) {
	s := nextPowerOfTwo(int64(math.Ceil(float64(expected) / fillFactor)))
	if s < 2 {
		s = 2
	}
	if s > 1<<30 {
		return 0, fmt.Errorf("too large (%d expected elements with load factor %v)", expected, fillFactor)
	}
	return int(s), nil
}

func nextPowerOfTwo(x int64) int64 {
	if x <= 1 {
		return 1
	}
	p := int64(1)
	for p < x {
		p <<= 1
	}
	return p
}

func newValues(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = NoValue
	}
	return v
}
