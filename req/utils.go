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
	"errors"
	"math"
)

const tailRoundingFactor = 1e7

// Relative-error coefficients of the published REQ error bound. The relative
// term scales with the rank's distance from the accurate end; the fixed term
// caps the bound near that end.
var (
	relRseFactor = math.Sqrt(0.0512 / float64(initNumberOfSections))
	fixRseFactor = 0.084
)

var (
	ErrEmpty        = errors.New("operation is undefined for an empty sketch")
	ErrInvalidK     = errors.New("k must be even and in the range [4, 1024]")
	ErrInvalidRank  = errors.New("normalized rank must be between 0 and 1 inclusive")
	ErrIncompatible = errors.New("both sketches must have the same highRankAccuracy and ltEq settings")

	errInvalidSplitPoints = errors.New("split points must be finite, unique and monotonically increasing")
)

func checkK(k int) error {
	if k < MinK || k > MaxK || k&1 == 1 {
		return ErrInvalidK
	}
	return nil
}

func checkNormalizedRankBounds(rank float64) error {
	if rank < 0 || rank > 1 {
		return ErrInvalidRank
	}
	return nil
}

func checkSplitPoints(splitPoints []float32) error {
	if len(splitPoints) == 0 {
		return errInvalidSplitPoints
	}
	for i, sp := range splitPoints {
		if math.IsNaN(float64(sp)) || math.IsInf(float64(sp), 0) {
			return errInvalidSplitPoints
		}
		if i > 0 && splitPoints[i-1] >= sp {
			return errInvalidSplitPoints
		}
	}
	return nil
}

func convertToCumulative(array []int64) int64 {
	subtotal := int64(0)
	for i := range array {
		subtotal += array[i]
		array[i] = subtotal
	}
	return subtotal
}

// getNaturalRank converts a normalized rank to a position in the cumulative
// weight scale. Rounding shields small-n tails from floating point noise.
func getNaturalRank(normalizedRank float64, totalN uint64, inclusive bool) int64 {
	naturalRank := normalizedRank * float64(totalN)
	if float64(totalN) <= tailRoundingFactor {
		naturalRank = math.Round(naturalRank*tailRoundingFactor) / tailRoundingFactor
	}
	if inclusive {
		return int64(math.Ceil(naturalRank))
	}
	return int64(math.Floor(naturalRank))
}

// exactRank reports whether estimates at the given rank are exact: either the
// sketch still retains everything, or the rank falls inside the uncompacted
// region at the accurate end of the distribution.
func exactRank(k, levels int, rank float64, hra bool, totalN uint64) bool {
	baseCap := k * initNumberOfSections
	if levels == 1 || totalN <= uint64(baseCap) {
		return true
	}
	exactRankThresh := float64(baseCap) / float64(totalN)
	if hra {
		return rank >= 1.0-exactRankThresh
	}
	return rank <= exactRankThresh
}

func getRankLB(k, levels int, rank float64, numStdDev int, hra bool, totalN uint64) float64 {
	if exactRank(k, levels, rank, hra, totalN) {
		return rank
	}
	relative := relRseFactor / float64(k)
	if hra {
		relative *= 1.0 - rank
	} else {
		relative *= rank
	}
	fixed := fixRseFactor / float64(k)
	lbRel := rank - float64(numStdDev)*relative
	lbFix := rank - float64(numStdDev)*fixed
	return math.Max(lbRel, lbFix)
}

func getRankUB(k, levels int, rank float64, numStdDev int, hra bool, totalN uint64) float64 {
	if exactRank(k, levels, rank, hra, totalN) {
		return rank
	}
	relative := relRseFactor / float64(k)
	if hra {
		relative *= 1.0 - rank
	} else {
		relative *= rank
	}
	fixed := fixRseFactor / float64(k)
	ubRel := rank + float64(numStdDev)*relative
	ubFix := rank + float64(numStdDev)*fixed
	return math.Min(ubRel, ubFix)
}

func evenlySpacedDoubles(value1, value2 float64, num int) ([]float64, error) {
	if num < 2 {
		return nil, errors.New("num must be >= 2")
	}
	out := make([]float64, num)
	out[0] = value1
	out[num-1] = value2
	if num == 2 {
		return out, nil
	}
	delta := (value2 - value1) / float64(num-1)
	for i := 1; i < num-1; i++ {
		out[i] = float64(i)*delta + value1
	}
	return out, nil
}
