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

// ReqSketchIterator iterates over the retained (item, weight) pairs of a
// sketch, level by level. Item order within the iteration is not sorted; use
// the sorted view for ordered access. Call Next before accessing the first
// pair.
type ReqSketchIterator struct {
	levels [][]float32
	level  int
	index  int
	weight int64
}

func newReqSketchIterator(compactors []*reqCompactor) *ReqSketchIterator {
	levels := make([][]float32, len(compactors))
	for i, c := range compactors {
		items := make([]float32, c.buf.getCount())
		copy(items, c.buf.activeSlice())
		levels[i] = items
	}
	return &ReqSketchIterator{
		levels: levels,
		level:  0,
		index:  -1,
		weight: 1,
	}
}

func (it *ReqSketchIterator) Next() bool {
	it.index++
	for it.level < len(it.levels) && it.index >= len(it.levels[it.level]) {
		it.level++
		it.index = 0
		it.weight <<= 1
	}
	return it.level < len(it.levels)
}

// GetQuantile returns the item at the current position.
//
// Don't call this before calling Next for the first time or after getting
// false from Next.
func (it *ReqSketchIterator) GetQuantile() float32 {
	return it.levels[it.level][it.index]
}

// GetWeight returns the weight of the item at the current position, a power
// of two equal to 2^level.
func (it *ReqSketchIterator) GetWeight() int64 {
	return it.weight
}
