/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package req

import (
	"slices"

	"github.com/openquantiles/sketches-go/internal"
)

// floatBuffer is a growable array of float32 values with the free space kept at
// one end of the backing array, so that appends and compactions extend away from
// the data without shifting it. With spaceAtBottom the active region is the top
// of the array [capacity-count, capacity); otherwise it is [0, count).
type floatBuffer struct {
	arr           []float32
	count         int
	capacity      int
	delta         int
	sorted        bool
	spaceAtBottom bool
}

func newFloatBuffer(capacity, delta int, spaceAtBottom bool) *floatBuffer {
	return &floatBuffer{
		arr:           make([]float32, capacity),
		count:         0,
		capacity:      capacity,
		delta:         delta,
		sorted:        true,
		spaceAtBottom: spaceAtBottom,
	}
}

// wrapSortedArray takes ownership of the given sorted, ascending array.
func wrapSortedArray(arr []float32, spaceAtBottom bool) *floatBuffer {
	return &floatBuffer{
		arr:           arr,
		count:         len(arr),
		capacity:      len(arr),
		delta:         0,
		sorted:        true,
		spaceAtBottom: spaceAtBottom,
	}
}

func copyFloatBuffer(other *floatBuffer) *floatBuffer {
	arr := make([]float32, len(other.arr))
	copy(arr, other.arr)
	return &floatBuffer{
		arr:           arr,
		count:         other.count,
		capacity:      other.capacity,
		delta:         other.delta,
		sorted:        other.sorted,
		spaceAtBottom: other.spaceAtBottom,
	}
}

func (b *floatBuffer) append(item float32) {
	b.ensureSpace(1)
	var index int
	if b.spaceAtBottom {
		index = b.capacity - b.count - 1
	} else {
		index = b.count
	}
	b.arr[index] = item
	b.count++
	b.sorted = false
}

func (b *floatBuffer) ensureSpace(space int) {
	if b.count+space > b.capacity {
		newCap := b.count + space + b.delta
		if b.delta == 0 {
			newCap = 2 * b.capacity
			if newCap < b.count+space {
				newCap = b.count + space
			}
		}
		b.ensureCapacity(newCap)
	}
}

// ensureCapacity reallocates to at least newCapacity, keeping the active region
// at the configured end.
func (b *floatBuffer) ensureCapacity(newCapacity int) {
	if newCapacity <= b.capacity {
		return
	}
	out := make([]float32, newCapacity)
	if b.spaceAtBottom {
		copy(out[newCapacity-b.count:], b.arr[b.capacity-b.count:b.capacity])
	} else {
		copy(out, b.arr[:b.count])
	}
	b.arr = out
	b.capacity = newCapacity
}

func (b *floatBuffer) getCount() int {
	return b.count
}

func (b *floatBuffer) getCapacity() int {
	return b.capacity
}

func (b *floatBuffer) isEmpty() bool {
	return b.count == 0
}

func (b *floatBuffer) isSorted() bool {
	return b.sorted
}

// isExactlySorted verifies ascending order by scanning, ignoring the sorted
// flag. Test support.
func (b *floatBuffer) isExactlySorted() bool {
	active := b.activeSlice()
	for i := 1; i < len(active); i++ {
		if active[i-1] > active[i] {
			return false
		}
	}
	return true
}

// getItem returns the item at the given offset within the active region.
func (b *floatBuffer) getItem(offset int) float32 {
	if b.spaceAtBottom {
		return b.arr[b.capacity-b.count+offset]
	}
	return b.arr[offset]
}

// activeSlice returns the live sub-range of the backing array. Callers must not
// grow it; ascending order only when sorted.
func (b *floatBuffer) activeSlice() []float32 {
	if b.spaceAtBottom {
		return b.arr[b.capacity-b.count : b.capacity]
	}
	return b.arr[:b.count]
}

func (b *floatBuffer) sort() {
	if b.sorted {
		return
	}
	slices.Sort(b.activeSlice())
	b.sorted = true
}

// getEvensOrOdds sorts the buffer and returns a new sorted buffer holding every
// other item of the active sub-range [startOffset, endOffset), beginning with the
// even or the odd position. The range size must be even.
func (b *floatBuffer) getEvensOrOdds(startOffset, endOffset int, odds bool) *floatBuffer {
	b.sort()
	rng := endOffset - startOffset
	if rng&1 == 1 {
		panic("compaction range size must be even")
	}
	start := startOffset
	if b.spaceAtBottom {
		start = b.capacity - b.count + startOffset
	}
	odd := internal.BoolToInt(odds)
	out := make([]float32, rng/2)
	for i, j := start+odd, 0; i < start+rng; i, j = i+2, j+1 {
		out[j] = b.arr[i]
	}
	return wrapSortedArray(out, b.spaceAtBottom)
}

// getCountWithCriterion returns how many items in the buffer are less than
// (inclusive false) or less than or equal to (inclusive true) the given value.
// Ties are excluded under the strict criterion and included otherwise.
func (b *floatBuffer) getCountWithCriterion(value float32, inclusive bool) int {
	b.sort()
	low, high := 0, b.count-1
	if b.spaceAtBottom {
		low = b.capacity - b.count
		high = b.capacity - 1
	}
	crit := internal.InequalityLT
	if inclusive {
		crit = internal.InequalityLE
	}
	index := internal.FindWithInequality(b.arr, low, high, value, crit)
	if index == -1 {
		return 0
	}
	return index - low + 1
}

// mergeSortIn merges the other sorted buffer into this sorted buffer in one
// O(n+m) pass. Both buffers must be sorted.
func (b *floatBuffer) mergeSortIn(other *floatBuffer) {
	if !b.sorted || !other.sorted {
		panic("both buffers must be sorted")
	}
	otherLen := other.count
	if otherLen == 0 {
		return
	}
	b.ensureCapacity(b.count + otherLen)
	totLen := b.count + otherLen
	if b.spaceAtBottom { // scan up, merge into the bottom of the active region
		i := b.capacity - b.count
		j := 0
		if other.spaceAtBottom {
			j = other.capacity - other.count
		}
		iStop := b.capacity
		jStop := j + otherLen
		for k := b.capacity - totLen; k < b.capacity; k++ {
			if i < iStop && j < jStop {
				if other.arr[j] <= b.arr[i] {
					b.arr[k] = other.arr[j]
					j++
				} else {
					b.arr[k] = b.arr[i]
					i++
				}
			} else if i < iStop {
				b.arr[k] = b.arr[i]
				i++
			} else {
				b.arr[k] = other.arr[j]
				j++
			}
		}
	} else { // scan down, merge into the top
		i := b.count - 1
		jLow := 0
		if other.spaceAtBottom {
			jLow = other.capacity - other.count
		}
		j := jLow + otherLen - 1
		for k := totLen - 1; k >= 0; k-- {
			if i >= 0 && j >= jLow {
				if other.arr[j] >= b.arr[i] {
					b.arr[k] = other.arr[j]
					j--
				} else {
					b.arr[k] = b.arr[i]
					i--
				}
			} else if i >= 0 {
				b.arr[k] = b.arr[i]
				i--
			} else {
				b.arr[k] = other.arr[j]
				j--
			}
		}
	}
	b.count = totLen
	b.sorted = true
}

// trimCount drops items so that only newCount remain. With spaceAtBottom the
// lowest items are dropped, otherwise the highest, matching the end of the
// buffer that compactions consume.
func (b *floatBuffer) trimCount(newCount int) {
	if newCount < b.count {
		b.count = newCount
	}
}

// trimCapacity releases unused slots, leaving capacity == count.
func (b *floatBuffer) trimCapacity() {
	if b.count >= b.capacity {
		return
	}
	out := make([]float32, b.count)
	copy(out, b.activeSlice())
	b.arr = out
	b.capacity = b.count
}
