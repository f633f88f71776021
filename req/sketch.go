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

// Package req is an implementation of the Relative Error Quantiles sketch, a
// streaming quantiles sketch whose rank error scales with the rank's distance
// from one chosen end of the distribution rather than being uniform.
//
// Reference: https://arxiv.org/abs/2004.01668 "Relative Error Streaming Quantiles"
//
// With the default highRankAccuracy = true, ranks near 1.0 are nearly exact and
// the error grows toward rank 0; disable it for the opposite behavior. The k
// parameter (even, 4 to 1024, default 12) trades memory for a proportionally
// smaller relative error.
package req

import (
	"math"
)

const (
	// DefaultK yields a relative rank error of about 1.6% at one standard
	// deviation toward the favored end of the rank domain.
	DefaultK = 12
	MinK     = 4
	MaxK     = 1024
)

// Debug receives structural events from a sketch. Diagnostics only; a nil
// Debug is never called.
type Debug interface {
	NewCompactor(lgWeight int)
	CompactionDone(lgWeight int, numRetained int)
}

// ReqSketch is the Relative Error Quantiles sketch for float32 values.
// It is not safe for concurrent use.
type ReqSketch struct {
	k          int
	hra        bool
	ltEq       bool
	totalN     uint64
	minItem    float32
	maxItem    float32
	retItems   int
	maxNomSize int
	compactors []*reqCompactor
	rand       randomBits
	debug      Debug
	sortedView *ReqSketchSortedView
}

func newReqSketch(k int, hra bool, ltEq bool, rand randomBits, debug Debug) (*ReqSketch, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	s := &ReqSketch{
		k:       k,
		hra:     hra,
		ltEq:    ltEq,
		minItem: float32(math.NaN()),
		maxItem: float32(math.NaN()),
		rand:    rand,
		debug:   debug,
	}
	s.grow()
	return s, nil
}

// NewReqSketch creates a sketch with the given k and accuracy orientation and
// default settings otherwise. Use the Builder for the full set of options.
func NewReqSketch(k int, highRankAccuracy bool) (*ReqSketch, error) {
	return newReqSketch(k, highRankAccuracy, false, newRandomBits(), nil)
}

// IsEmpty returns true if the sketch has seen no items.
func (s *ReqSketch) IsEmpty() bool {
	return s.totalN == 0
}

// GetN returns the length of the input stream offered to the sketch.
func (s *ReqSketch) GetN() uint64 {
	return s.totalN
}

// GetK returns the sketch's accuracy parameter.
func (s *ReqSketch) GetK() int {
	return s.k
}

// GetHighRankAccuracy returns true if precision is favored near rank 1.0.
func (s *ReqSketch) GetHighRankAccuracy() bool {
	return s.hra
}

// GetLtEq returns the sketch's default comparison criterion: true if ranks are
// computed with less-than-or-equal semantics.
func (s *ReqSketch) GetLtEq() bool {
	return s.ltEq
}

// GetNumLevels returns the number of compactor levels.
func (s *ReqSketch) GetNumLevels() int {
	return len(s.compactors)
}

// GetNumRetained returns the number of items currently retained across all levels.
func (s *ReqSketch) GetNumRetained() int {
	return s.retItems
}

// GetMaxNomSize returns the current total nominal capacity across all levels.
func (s *ReqSketch) GetMaxNomSize() int {
	return s.maxNomSize
}

// IsEstimationMode returns true once the sketch has started compacting and its
// answers are approximate.
func (s *ReqSketch) IsEstimationMode() bool {
	return len(s.compactors) > 1
}

// GetMinItem returns the minimum item of the stream, which may no longer be
// retained by the sketch itself.
func (s *ReqSketch) GetMinItem() (float32, error) {
	if s.IsEmpty() {
		return 0, ErrEmpty
	}
	return s.minItem, nil
}

// GetMaxItem returns the maximum item of the stream.
func (s *ReqSketch) GetMaxItem() (float32, error) {
	if s.IsEmpty() {
		return 0, ErrEmpty
	}
	return s.maxItem, nil
}

// Update offers an item to the sketch. Non-finite values (NaN, ±Inf) are
// silently ignored and do not affect the stream length.
func (s *ReqSketch) Update(item float32) {
	f := float64(item)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	if s.IsEmpty() {
		s.minItem = item
		s.maxItem = item
	} else {
		if item < s.minItem {
			s.minItem = item
		}
		if item > s.maxItem {
			s.maxItem = item
		}
	}
	s.compactors[0].append(item)
	s.retItems++
	s.totalN++
	if s.retItems >= s.maxNomSize {
		s.compactors[0].buf.sort()
		s.compress()
	}
	s.sortedView = nil
}

// compress scans the levels bottom-up, compacting every level at or over its
// nominal capacity and merging the promoted items into the level above,
// growing the hierarchy when the top level itself overflows.
func (s *ReqSketch) compress() {
	for h := 0; h < len(s.compactors); h++ {
		c := s.compactors[h]
		if c.buf.getCount() >= c.nomCapacity() {
			if h+1 >= len(s.compactors) {
				s.grow()
			}
			promoted, deltaRetItems, deltaNomSize := c.compact()
			s.compactors[h+1].absorb(promoted)
			s.retItems += deltaRetItems
			s.maxNomSize += deltaNomSize
			if s.debug != nil {
				s.debug.CompactionDone(int(c.lgWeight), c.buf.getCount())
			}
		}
	}
	s.sortedView = nil
}

func (s *ReqSketch) grow() {
	lgWeight := uint8(len(s.compactors))
	s.compactors = append(s.compactors, newReqCompactor(lgWeight, s.hra, s.k, s.rand))
	s.maxNomSize = s.computeMaxNomSize()
	if s.debug != nil {
		s.debug.NewCompactor(int(lgWeight))
	}
}

func (s *ReqSketch) computeMaxNomSize() int {
	total := 0
	for _, c := range s.compactors {
		total += c.nomCapacity()
	}
	return total
}

func (s *ReqSketch) computeTotalRetainedItems() int {
	total := 0
	for _, c := range s.compactors {
		total += c.buf.getCount()
	}
	return total
}

// Merge combines the other sketch into this one, as if this sketch had also
// observed the other's input stream. The other sketch is not modified. Merging
// a nil or empty sketch is a no-op. Both sketches must share the same
// highRankAccuracy and ltEq settings.
func (s *ReqSketch) Merge(other *ReqSketch) error {
	if other == nil || other.IsEmpty() {
		return nil
	}
	if other.hra != s.hra || other.ltEq != s.ltEq {
		return ErrIncompatible
	}
	if s.IsEmpty() {
		s.minItem = other.minItem
		s.maxItem = other.maxItem
	} else {
		if other.minItem < s.minItem {
			s.minItem = other.minItem
		}
		if other.maxItem > s.maxItem {
			s.maxItem = other.maxItem
		}
	}
	s.totalN += other.totalN
	for len(s.compactors) < len(other.compactors) {
		s.grow()
	}
	for i := range other.compactors {
		s.compactors[i].merge(other.compactors[i])
	}
	s.maxNomSize = s.computeMaxNomSize()
	s.retItems = s.computeTotalRetainedItems()
	if s.retItems >= s.maxNomSize {
		s.compress()
	}
	s.sortedView = nil
	return nil
}

// GetRank returns the normalized rank of the given item: the fraction of the
// stream below it, with ties included when inclusive is true.
func (s *ReqSketch) GetRank(item float32, inclusive bool) (float64, error) {
	if s.IsEmpty() {
		return 0, ErrEmpty
	}
	if err := s.setupSortedView(); err != nil {
		return 0, err
	}
	return s.sortedView.GetRank(item, inclusive), nil
}

// GetRanks returns the normalized ranks of the given items.
func (s *ReqSketch) GetRanks(items []float32, inclusive bool) ([]float64, error) {
	if s.IsEmpty() {
		return nil, ErrEmpty
	}
	if err := s.setupSortedView(); err != nil {
		return nil, err
	}
	ranks := make([]float64, len(items))
	for i := range items {
		ranks[i] = s.sortedView.GetRank(items[i], inclusive)
	}
	return ranks, nil
}

// GetQuantile returns the approximate quantile of the given normalized rank.
// Rank 0 maps to the minimum retained item and rank 1 to the maximum.
func (s *ReqSketch) GetQuantile(rank float64, inclusive bool) (float32, error) {
	if s.IsEmpty() {
		return 0, ErrEmpty
	}
	if err := checkNormalizedRankBounds(rank); err != nil {
		return 0, err
	}
	if err := s.setupSortedView(); err != nil {
		return 0, err
	}
	return s.sortedView.GetQuantile(rank, inclusive)
}

// GetQuantiles returns the approximate quantiles of the given normalized ranks.
func (s *ReqSketch) GetQuantiles(ranks []float64, inclusive bool) ([]float32, error) {
	if s.IsEmpty() {
		return nil, ErrEmpty
	}
	quantiles := make([]float32, len(ranks))
	for i := range ranks {
		q, err := s.GetQuantile(ranks[i], inclusive)
		if err != nil {
			return nil, err
		}
		quantiles[i] = q
	}
	return quantiles, nil
}

// GetCDF returns an approximation of the Cumulative Distribution Function of
// the stream at the given split points: len(splitPoints)+1 cumulative ranks,
// the last of which is always 1. The split points must be finite, unique and
// monotonically increasing. An empty sketch yields an empty result.
func (s *ReqSketch) GetCDF(splitPoints []float32, inclusive bool) ([]float64, error) {
	if s.IsEmpty() {
		return []float64{}, nil
	}
	if err := s.setupSortedView(); err != nil {
		return nil, err
	}
	return s.sortedView.GetCDF(splitPoints, inclusive)
}

// GetPMF returns an approximation of the Probability Mass Function of the
// stream: the probability mass of each of the len(splitPoints)+1 intervals
// defined by the given split points. An empty sketch yields an empty result.
func (s *ReqSketch) GetPMF(splitPoints []float32, inclusive bool) ([]float64, error) {
	if s.IsEmpty() {
		return []float64{}, nil
	}
	if err := s.setupSortedView(); err != nil {
		return nil, err
	}
	return s.sortedView.GetPMF(splitPoints, inclusive)
}

// GetRankLowerBound returns the best-case rank consistent with the given
// estimated rank at the given number of standard deviations of confidence.
func (s *ReqSketch) GetRankLowerBound(rank float64, numStdDev int) float64 {
	return getRankLB(s.k, len(s.compactors), rank, numStdDev, s.hra, s.totalN)
}

// GetRankUpperBound returns the worst-case rank consistent with the given
// estimated rank at the given number of standard deviations of confidence.
func (s *ReqSketch) GetRankUpperBound(rank float64, numStdDev int) float64 {
	return getRankUB(s.k, len(s.compactors), rank, numStdDev, s.hra, s.totalN)
}

// GetRSE returns an a priori estimate of the relative standard error of a
// sketch configured with the given k, at the given rank, after totalN updates.
func GetRSE(k int, rank float64, hra bool, totalN uint64) float64 {
	return getRankUB(k, 2, rank, 1, hra, totalN) - rank
}

// GetSortedView returns the sorted view of this sketch with equal values
// collapsed into single entries of summed weight.
func (s *ReqSketch) GetSortedView() (*ReqSketchSortedView, error) {
	if s.IsEmpty() {
		return nil, ErrEmpty
	}
	if err := s.setupSortedView(); err != nil {
		return nil, err
	}
	return s.sortedView, nil
}

// GetAllRetainedSortedView returns a sorted view with one entry per retained
// item, duplicates preserved. It is rebuilt on every call.
func (s *ReqSketch) GetAllRetainedSortedView() (*ReqSketchSortedView, error) {
	if s.IsEmpty() {
		return nil, ErrEmpty
	}
	return newReqSketchSortedView(s, false)
}

// GetIterator returns an iterator over the retained (item, weight) pairs of
// the sketch, in no particular item order.
func (s *ReqSketch) GetIterator() *ReqSketchIterator {
	return newReqSketchIterator(s.compactors)
}

// Reset returns the sketch to its empty state, keeping its configuration.
func (s *ReqSketch) Reset() {
	s.totalN = 0
	s.retItems = 0
	s.maxNomSize = 0
	s.minItem = float32(math.NaN())
	s.maxItem = float32(math.NaN())
	s.compactors = nil
	s.sortedView = nil
	s.grow()
}

func (s *ReqSketch) setupSortedView() error {
	if s.sortedView == nil {
		sv, err := newReqSketchSortedView(s, true)
		if err != nil {
			return err
		}
		s.sortedView = sv
	}
	return nil
}
