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

// ReqSketchSortedViewIterator iterates over the entries of a sorted view in
// ascending value order. Call Next before accessing the first entry.
type ReqSketchSortedViewIterator struct {
	quantiles  []float32
	cumWeights []int64
	totalN     int64
	index      int
}

func newReqSketchSortedViewIterator(quantiles []float32, cumWeights []int64) *ReqSketchSortedViewIterator {
	totalN := int64(0)
	if len(cumWeights) > 0 {
		totalN = cumWeights[len(cumWeights)-1]
	}
	return &ReqSketchSortedViewIterator{
		quantiles:  quantiles,
		cumWeights: cumWeights,
		totalN:     totalN,
		index:      -1,
	}
}

func (i *ReqSketchSortedViewIterator) Next() bool {
	i.index++
	return i.index < len(i.cumWeights)
}

func (i *ReqSketchSortedViewIterator) GetQuantile() float32 {
	return i.quantiles[i.index]
}

func (i *ReqSketchSortedViewIterator) GetWeight() int64 {
	if i.index == 0 {
		return i.cumWeights[0]
	}
	return i.cumWeights[i.index] - i.cumWeights[i.index-1]
}

// GetNaturalRank returns the cumulative weight at the current entry, excluding
// the entry's own weight unless inclusive is true.
func (i *ReqSketchSortedViewIterator) GetNaturalRank(inclusive bool) int64 {
	if inclusive {
		return i.cumWeights[i.index]
	}
	if i.index == 0 {
		return 0
	}
	return i.cumWeights[i.index-1]
}

func (i *ReqSketchSortedViewIterator) GetNormalizedRank(inclusive bool) float64 {
	return float64(i.GetNaturalRank(inclusive)) / float64(i.totalN)
}
