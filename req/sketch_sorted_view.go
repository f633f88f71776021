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
	"github.com/openquantiles/sketches-go/internal"
)

// ReqSketchSortedView is a sorted, weighted snapshot of all items retained by
// a sketch, with each level's items carrying weight 2^lgWeight and weights
// accumulated into a cumulative array for binary-searched rank and quantile
// queries. In the default deduplicating form, equal values collapse into one
// entry with their weights summed.
type ReqSketchSortedView struct {
	quantiles  []float32
	cumWeights []int64
	totalN     uint64
	minItem    float32
	maxItem    float32
}

func newReqSketchSortedView(sk *ReqSketch, dedup bool) (*ReqSketchSortedView, error) {
	if sk.IsEmpty() {
		return nil, ErrEmpty
	}
	var quantiles []float32
	var weights []int64
	for _, c := range sk.compactors {
		if c.buf.isEmpty() {
			continue
		}
		c.buf.sort()
		quantiles, weights = mergeWeighted(quantiles, weights, c.buf.activeSlice(), int64(1)<<c.lgWeight)
	}
	if dedup {
		quantiles, weights = dedupWeighted(quantiles, weights)
	}
	convertToCumulative(weights)
	return &ReqSketchSortedView{
		quantiles:  quantiles,
		cumWeights: weights,
		totalN:     sk.totalN,
		minItem:    sk.minItem,
		maxItem:    sk.maxItem,
	}, nil
}

// mergeWeighted merges a sorted run of values with uniform weight into the
// accumulated sorted (value, weight) arrays.
func mergeWeighted(qA []float32, wA []int64, vals []float32, weight int64) ([]float32, []int64) {
	outQ := make([]float32, 0, len(qA)+len(vals))
	outW := make([]int64, 0, len(qA)+len(vals))
	i, j := 0, 0
	for i < len(qA) && j < len(vals) {
		if qA[i] <= vals[j] {
			outQ = append(outQ, qA[i])
			outW = append(outW, wA[i])
			i++
		} else {
			outQ = append(outQ, vals[j])
			outW = append(outW, weight)
			j++
		}
	}
	for ; i < len(qA); i++ {
		outQ = append(outQ, qA[i])
		outW = append(outW, wA[i])
	}
	for ; j < len(vals); j++ {
		outQ = append(outQ, vals[j])
		outW = append(outW, weight)
	}
	return outQ, outW
}

// dedupWeighted collapses runs of equal values into single entries, summing
// their weights.
func dedupWeighted(quantiles []float32, weights []int64) ([]float32, []int64) {
	if len(quantiles) == 0 {
		return quantiles, weights
	}
	outQ := quantiles[:0]
	outW := weights[:0]
	runQ := quantiles[0]
	runW := weights[0]
	for i := 1; i < len(quantiles); i++ {
		if quantiles[i] == runQ {
			runW += weights[i]
			continue
		}
		outQ = append(outQ, runQ)
		outW = append(outW, runW)
		runQ = quantiles[i]
		runW = weights[i]
	}
	outQ = append(outQ, runQ)
	outW = append(outW, runW)
	return outQ, outW
}

// GetN returns the length of the input stream the view was built from.
func (v *ReqSketchSortedView) GetN() uint64 {
	return v.totalN
}

// GetNumRetained returns the number of entries in the view.
func (v *ReqSketchSortedView) GetNumRetained() int {
	return len(v.quantiles)
}

// GetRank returns the normalized rank of the given item, with ties included
// when inclusive is true.
func (v *ReqSketchSortedView) GetRank(item float32, inclusive bool) float64 {
	crit := internal.InequalityLT
	if inclusive {
		crit = internal.InequalityLE
	}
	index := internal.FindWithInequality(v.quantiles, 0, len(v.quantiles)-1, item, crit)
	if index == -1 {
		return 0
	}
	return float64(v.cumWeights[index]) / float64(v.totalN)
}

// GetQuantile returns the approximate quantile of the given normalized rank.
func (v *ReqSketchSortedView) GetQuantile(rank float64, inclusive bool) (float32, error) {
	if err := checkNormalizedRankBounds(rank); err != nil {
		return 0, err
	}
	naturalRank := getNaturalRank(rank, v.totalN, inclusive)
	crit := internal.InequalityGT
	if inclusive {
		crit = internal.InequalityGE
	}
	index := internal.FindWithInequality(v.cumWeights, 0, len(v.cumWeights)-1, naturalRank, crit)
	if index == -1 {
		index = len(v.cumWeights) - 1
	}
	return v.quantiles[index], nil
}

// GetCDF returns the cumulative ranks at the given split points plus a final
// 1.0 entry.
func (v *ReqSketchSortedView) GetCDF(splitPoints []float32, inclusive bool) ([]float64, error) {
	if err := checkSplitPoints(splitPoints); err != nil {
		return nil, err
	}
	buckets := make([]float64, len(splitPoints)+1)
	for i := range splitPoints {
		buckets[i] = v.GetRank(splitPoints[i], inclusive)
	}
	buckets[len(splitPoints)] = 1.0
	return buckets, nil
}

// GetPMF returns the probability masses of the intervals defined by the given
// split points.
func (v *ReqSketchSortedView) GetPMF(splitPoints []float32, inclusive bool) ([]float64, error) {
	buckets, err := v.GetCDF(splitPoints, inclusive)
	if err != nil {
		return nil, err
	}
	for i := len(buckets) - 1; i > 0; i-- {
		buckets[i] -= buckets[i-1]
	}
	return buckets, nil
}

// GetIterator returns a new iterator over the view's entries in ascending
// value order.
func (v *ReqSketchSortedView) GetIterator() *ReqSketchSortedViewIterator {
	return newReqSketchSortedViewIterator(v.quantiles, v.cumWeights)
}
