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
	"math"
	"math/bits"
)

const (
	initNumberOfSections = 3
	nomCapMult           = 2
	minSectionSize       = 4
)

// reqCompactor is one level of the compactor hierarchy. Items at this level
// carry weight 2^lgWeight. The state counter drives the deterministic part of
// the compaction schedule: its trailing one-bits select how many sections are
// compacted, so deeper sweeps happen exponentially less often.
type reqCompactor struct {
	lgWeight       uint8
	coin           bool
	hra            bool
	buf            *floatBuffer
	rand           randomBits
	state          uint64
	sectionSizeFlt float32
	sectionSize    int
	numSections    int
	minItem        float32
	maxItem        float32
}

func newReqCompactor(lgWeight uint8, hra bool, sectionSize int, rand randomBits) *reqCompactor {
	c := &reqCompactor{
		lgWeight:       lgWeight,
		hra:            hra,
		rand:           rand,
		sectionSize:    sectionSize,
		sectionSizeFlt: float32(sectionSize),
		numSections:    initNumberOfSections,
		minItem:        float32(math.Inf(1)),
		maxItem:        float32(math.Inf(-1)),
	}
	nomCap := c.nomCapacity()
	c.buf = newFloatBuffer(2*nomCap, nomCap, hra)
	return c
}

func newReqCompactorFromState(lgWeight uint8, hra bool, state uint64, sectionSizeFlt float32,
	numSections int, rand randomBits, buf *floatBuffer) *reqCompactor {
	c := &reqCompactor{
		lgWeight:       lgWeight,
		hra:            hra,
		rand:           rand,
		state:          state,
		sectionSizeFlt: sectionSizeFlt,
		sectionSize:    nearestEven(sectionSizeFlt),
		numSections:    numSections,
		buf:            buf,
		minItem:        float32(math.Inf(1)),
		maxItem:        float32(math.Inf(-1)),
	}
	if !buf.isEmpty() {
		buf.sort()
		c.minItem = buf.getItem(0)
		c.maxItem = buf.getItem(buf.getCount() - 1)
	}
	return c
}

// nomCapacity is the retained-count threshold that triggers compaction of this
// level. Always even.
func (c *reqCompactor) nomCapacity() int {
	return nomCapMult * c.numSections * c.sectionSize
}

func (c *reqCompactor) append(item float32) {
	c.buf.append(item)
	c.updateBounds(item)
}

// absorb merge-sorts an already sorted buffer, typically a promotion from the
// level below, into this level.
func (c *reqCompactor) absorb(sorted *floatBuffer) {
	if sorted.isEmpty() {
		return
	}
	c.buf.sort()
	c.buf.mergeSortIn(sorted)
	c.updateBounds(sorted.getItem(0))
	c.updateBounds(sorted.getItem(sorted.getCount() - 1))
}

func (c *reqCompactor) updateBounds(item float32) {
	if item < c.minItem {
		c.minItem = item
	}
	if item > c.maxItem {
		c.maxItem = item
	}
}

// compact halves the chosen region of this level and returns the surviving
// half, to be absorbed by the level above at double weight. The deltas report
// the change in this level's retained count (net of the promotion) and nominal
// capacity so the sketch can maintain its totals incrementally.
func (c *reqCompactor) compact() (promoted *floatBuffer, deltaRetItems, deltaNomSize int) {
	startRetItems := c.buf.getCount()
	startNomCap := c.nomCapacity()

	secsToCompact := bits.TrailingZeros64(^c.state) + 1
	if secsToCompact > c.numSections {
		secsToCompact = c.numSections
	}
	compactionStart, compactionEnd := c.computeCompactionRange(secsToCompact)

	// odd state reuses the previous coin flipped; even state draws a fresh bit
	if c.state&1 == 1 {
		c.coin = !c.coin
	} else {
		c.coin = c.rand.nextBit()
	}

	promoted = c.buf.getEvensOrOdds(compactionStart, compactionEnd, c.coin)
	c.buf.trimCount(c.buf.getCount() - (compactionEnd - compactionStart))
	c.state++
	c.ensureEnoughSections()

	deltaRetItems = c.buf.getCount() - startRetItems + promoted.getCount()
	deltaNomSize = c.nomCapacity() - startNomCap
	return promoted, deltaRetItems, deltaNomSize
}

// computeCompactionRange returns the active-region offsets [start, end) of the
// block spanning secsToCompact sections at the disfavored end of the buffer:
// the low-value end under high-rank accuracy, the high-value end otherwise.
func (c *reqCompactor) computeCompactionRange(secsToCompact int) (int, int) {
	bufLen := c.buf.getCount()
	nonCompact := c.nomCapacity()/2 + (c.numSections-secsToCompact)*c.sectionSize
	if (bufLen-nonCompact)&1 == 1 {
		nonCompact++
	}
	if c.hra {
		return 0, bufLen - nonCompact
	}
	return nonCompact, bufLen
}

// ensureEnoughSections doubles numSections and shrinks sectionSize by sqrt(2)
// once state reaches 2^(numSections-1), keeping the nominal capacity bounded
// as the stream grows. The float copy of the section size preserves precision
// across repeated shrinks.
func (c *reqCompactor) ensureEnoughSections() bool {
	szf := c.sectionSizeFlt / float32(math.Sqrt2)
	ne := nearestEven(szf)
	if c.state >= uint64(1)<<(c.numSections-1) &&
		c.sectionSize > minSectionSize &&
		ne >= minSectionSize {
		c.sectionSizeFlt = szf
		c.sectionSize = ne
		c.numSections <<= 1
		c.buf.ensureCapacity(2 * c.nomCapacity())
		return true
	}
	return false
}

// merge combines the other compactor of the same lgWeight into this one.
// States are OR-ed so the deterministic schedule stays no more aggressive than
// either input's history.
func (c *reqCompactor) merge(other *reqCompactor) {
	c.state |= other.state
	for c.ensureEnoughSections() {
	}
	c.buf.sort()
	otherBuf := copyFloatBuffer(other.buf)
	otherBuf.sort()
	if otherBuf.getCount() > c.buf.getCount() {
		otherBuf.mergeSortIn(c.buf)
		c.buf = otherBuf
	} else {
		c.buf.mergeSortIn(otherBuf)
	}
	if other.minItem < c.minItem {
		c.minItem = other.minItem
	}
	if other.maxItem > c.maxItem {
		c.maxItem = other.maxItem
	}
}

// nearestEven rounds to the nearest even integer, away from zero on .5 ties of
// odd midpoints.
func nearestEven(value float32) int {
	return 2 * int(math.Round(float64(value)/2.0))
}
