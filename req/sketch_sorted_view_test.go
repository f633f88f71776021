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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedView_Dedup(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	for _, v := range []float32{1, 1, 2, 2, 2, 3} {
		sketch.Update(v)
	}

	view, err := sketch.GetSortedView()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), view.GetN())
	assert.Equal(t, 3, view.GetNumRetained())

	it := view.GetIterator()
	require.True(t, it.Next())
	assert.Equal(t, float32(1), it.GetQuantile())
	assert.Equal(t, int64(2), it.GetWeight())
	require.True(t, it.Next())
	assert.Equal(t, float32(2), it.GetQuantile())
	assert.Equal(t, int64(3), it.GetWeight())
	require.True(t, it.Next())
	assert.Equal(t, float32(3), it.GetQuantile())
	assert.Equal(t, int64(1), it.GetWeight())
	assert.False(t, it.Next())
}

func TestSortedView_AllRetainedKeepsDuplicates(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	for _, v := range []float32{1, 1, 2, 2, 2, 3} {
		sketch.Update(v)
	}

	view, err := sketch.GetAllRetainedSortedView()
	require.NoError(t, err)
	assert.Equal(t, 6, view.GetNumRetained())
	it := view.GetIterator()
	expected := []float32{1, 1, 2, 2, 2, 3}
	for _, want := range expected {
		require.True(t, it.Next())
		assert.Equal(t, want, it.GetQuantile())
		assert.Equal(t, int64(1), it.GetWeight())
	}
	assert.False(t, it.Next())
}

func TestSortedView_IteratorRanks(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		sketch.Update(float32(i))
	}
	view, err := sketch.GetSortedView()
	require.NoError(t, err)

	it := view.GetIterator()
	cum := int64(0)
	for it.Next() {
		assert.Equal(t, cum, it.GetNaturalRank(false))
		cum += it.GetWeight()
		assert.Equal(t, cum, it.GetNaturalRank(true))
		assert.Equal(t, float64(cum)/4, it.GetNormalizedRank(true))
	}
	assert.Equal(t, int64(4), cum)
}

func TestSortedView_CachedUntilUpdate(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	sketch.Update(1)
	first, err := sketch.GetSortedView()
	require.NoError(t, err)
	second, err := sketch.GetSortedView()
	require.NoError(t, err)
	assert.Same(t, first, second)

	sketch.Update(2)
	third, err := sketch.GetSortedView()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, uint64(2), third.GetN())
}

func TestSortedView_SnapshotUnaffectedByLaterUpdates(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	sketch.Update(1)
	view, err := sketch.GetSortedView()
	require.NoError(t, err)
	sketch.Update(2)
	sketch.Update(3)
	assert.Equal(t, uint64(1), view.GetN())
	assert.Equal(t, 1, view.GetNumRetained())
}

func TestSortedView_WeightedRanksInEstimationMode(t *testing.T) {
	sketch, err := NewBuilder().K(DefaultK).RandomSeed(11).Build()
	require.NoError(t, err)
	const n = 2000
	for i := 1; i <= n; i++ {
		sketch.Update(float32(i))
	}
	view, err := sketch.GetSortedView()
	require.NoError(t, err)
	assert.Equal(t, uint64(n), view.GetN())

	// cumulative weights are strictly increasing and end at n
	it := view.GetIterator()
	last := int64(0)
	for it.Next() {
		assert.Greater(t, it.GetNaturalRank(true), last)
		last = it.GetNaturalRank(true)
	}
	assert.Equal(t, int64(n), last)

	// rank and quantile agree through the view
	for _, rank := range []float64{0.05, 0.25, 0.5, 0.75, 0.95} {
		q, err := view.GetQuantile(rank, true)
		assert.NoError(t, err)
		r := view.GetRank(q, true)
		assert.InDelta(t, rank, r, 0.05)
	}
}

func TestSortedView_GetCdfGetPmf(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	for i := 1; i <= 10; i++ {
		sketch.Update(float32(i))
	}
	view, err := sketch.GetSortedView()
	require.NoError(t, err)

	cdf, err := view.GetCDF([]float32{5}, true)
	assert.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.0}, cdf)

	pmf, err := view.GetPMF([]float32{5}, true)
	assert.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, pmf, 1e-12)

	total := 0.0
	pmf, err = view.GetPMF([]float32{2, 4, 6, 8}, false)
	assert.NoError(t, err)
	for _, mass := range pmf {
		total += mass
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}
