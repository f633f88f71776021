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

	"github.com/openquantiles/sketches-go/internal"
)

func assertSketchesEquivalent(t *testing.T, expected, actual *ReqSketch) {
	t.Helper()
	assert.Equal(t, expected.GetK(), actual.GetK())
	assert.Equal(t, expected.GetHighRankAccuracy(), actual.GetHighRankAccuracy())
	assert.Equal(t, expected.GetLtEq(), actual.GetLtEq())
	assert.Equal(t, expected.GetN(), actual.GetN())
	assert.Equal(t, expected.GetNumRetained(), actual.GetNumRetained())
	assert.Equal(t, expected.GetNumLevels(), actual.GetNumLevels())
	if expected.IsEmpty() {
		assert.True(t, actual.IsEmpty())
		return
	}
	expMin, err := expected.GetMinItem()
	require.NoError(t, err)
	actMin, err := actual.GetMinItem()
	require.NoError(t, err)
	assert.Equal(t, expMin, actMin)
	expMax, err := expected.GetMaxItem()
	require.NoError(t, err)
	actMax, err := actual.GetMaxItem()
	require.NoError(t, err)
	assert.Equal(t, expMax, actMax)

	ranks, err := evenlySpacedDoubles(0, 1, 11)
	require.NoError(t, err)
	for _, r := range ranks {
		expQ, err := expected.GetQuantile(r, true)
		require.NoError(t, err)
		actQ, err := actual.GetQuantile(r, true)
		require.NoError(t, err)
		assert.Equal(t, expQ, actQ, "rank: %f", r)
	}
}

func TestSerialize_Empty(t *testing.T) {
	sketch, err := NewBuilder().K(50).HighRankAccuracy(false).LtEq(true).Build()
	require.NoError(t, err)
	bytes := sketch.ToSlice()
	assert.Equal(t, 8, len(bytes))
	assert.Equal(t, sketch.GetSerializedSizeBytes(), len(bytes))
	assert.Equal(t, _PREAMBLE_INTS_EMPTY_RAW, getPreInts(bytes))
	assert.Equal(t, internal.FamilyEnum.Req.Id, getFamilyID(bytes))
	assert.True(t, getEmptyFlag(bytes))
	assert.False(t, getRawItemsFlag(bytes))
	assert.False(t, getHraFlag(bytes))
	assert.True(t, getLtEqFlag(bytes))
	assert.Equal(t, 50, getK(bytes))

	decoded, err := NewReqSketchFromSlice(bytes)
	require.NoError(t, err)
	assertSketchesEquivalent(t, sketch, decoded)
}

func TestSerialize_RawItems(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	for _, v := range []float32{3, 1, 2} {
		sketch.Update(v)
	}
	bytes := sketch.ToSlice()
	assert.Equal(t, 8+4*3, len(bytes))
	assert.True(t, getRawItemsFlag(bytes))
	assert.False(t, getEmptyFlag(bytes))
	assert.Equal(t, _PREAMBLE_INTS_EMPTY_RAW, getPreInts(bytes))

	decoded, err := NewReqSketchFromSlice(bytes)
	require.NoError(t, err)
	assertSketchesEquivalent(t, sketch, decoded)
}

func TestSerialize_ExactMode(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	for i := 1; i <= 50; i++ {
		sketch.Update(float32(i))
	}
	require.False(t, sketch.IsEstimationMode())
	bytes := sketch.ToSlice()
	assert.Equal(t, _PREAMBLE_INTS_FULL, getPreInts(bytes))
	assert.False(t, getRawItemsFlag(bytes))
	assert.Equal(t, uint64(50), getN(bytes))
	assert.Equal(t, 1, getNumCompactors(bytes))
	assert.Equal(t, float32(1), getMinItemFloat(bytes))
	assert.Equal(t, float32(50), getMaxItemFloat(bytes))
	assert.Equal(t, sketch.GetSerializedSizeBytes(), len(bytes))

	decoded, err := NewReqSketchFromSlice(bytes)
	require.NoError(t, err)
	assertSketchesEquivalent(t, sketch, decoded)
}

func TestSerialize_EstimationMode(t *testing.T) {
	for _, hra := range []bool{true, false} {
		sketch, err := NewBuilder().K(DefaultK).HighRankAccuracy(hra).RandomSeed(12).Build()
		require.NoError(t, err)
		for i := 1; i <= 10000; i++ {
			sketch.Update(float32(i))
		}
		require.True(t, sketch.IsEstimationMode())
		bytes := sketch.ToSlice()
		assert.Equal(t, sketch.GetSerializedSizeBytes(), len(bytes))
		assert.Equal(t, hra, getHraFlag(bytes))

		decoded, err := NewReqSketchFromSlice(bytes)
		require.NoError(t, err)
		assertSketchesEquivalent(t, sketch, decoded)

		// a deserialized sketch keeps working
		for i := 10001; i <= 11000; i++ {
			decoded.Update(float32(i))
		}
		assert.Equal(t, uint64(11000), decoded.GetN())
	}
}

func TestSerialize_MergedSketchRoundTrip(t *testing.T) {
	a, err := NewBuilder().K(DefaultK).RandomSeed(13).Build()
	require.NoError(t, err)
	b, err := NewBuilder().K(DefaultK).RandomSeed(14).Build()
	require.NoError(t, err)
	for i := 1; i <= 500; i++ {
		a.Update(float32(i))
		b.Update(float32(i + 500))
	}
	require.NoError(t, a.Merge(b))

	decoded, err := NewReqSketchFromSlice(a.ToSlice())
	require.NoError(t, err)
	assertSketchesEquivalent(t, a, decoded)
}

func TestDeserialize_TooSmall(t *testing.T) {
	_, err := NewReqSketchFromSlice([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDeserialize_BadSerialVersion(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	sketch.Update(1)
	bytes := sketch.ToSlice()
	bytes[_SER_VER_BYTE_ADR] = 2
	_, err = NewReqSketchFromSlice(bytes)
	assert.Error(t, err)
}

func TestDeserialize_BadFamily(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	bytes := sketch.ToSlice()
	bytes[_FAMILY_BYTE_ADR] = byte(internal.FamilyEnum.Kll.Id)
	_, err = NewReqSketchFromSlice(bytes)
	assert.Error(t, err)
}

func TestDeserialize_BadK(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	bytes := sketch.ToSlice()
	internal.PutShortLE(bytes, _K_SHORT_ADR, 13)
	_, err = NewReqSketchFromSlice(bytes)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestDeserialize_InconsistentFlags(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	bytes := sketch.ToSlice()
	// empty and raw items at the same time
	bytes[_FLAGS_BYTE_ADR] |= _RAW_ITEMS_BIT_MASK
	_, err = NewReqSketchFromSlice(bytes)
	assert.Error(t, err)
}

func TestDeserialize_Truncated(t *testing.T) {
	sketch, err := NewBuilder().K(DefaultK).RandomSeed(15).Build()
	require.NoError(t, err)
	for i := 1; i <= 1000; i++ {
		sketch.Update(float32(i))
	}
	bytes := sketch.ToSlice()
	_, err = NewReqSketchFromSlice(bytes[:len(bytes)-4])
	assert.Error(t, err)
	_, err = NewReqSketchFromSlice(bytes[:_DATA_START_ADR+4])
	assert.Error(t, err)
}

func TestDeserialize_TrailingGarbage(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	for i := 1; i <= 50; i++ {
		sketch.Update(float32(i))
	}
	bytes := append(sketch.ToSlice(), 0, 0, 0, 0)
	_, err = NewReqSketchFromSlice(bytes)
	assert.Error(t, err)
}

func TestDeserialize_CorruptedWeightTotal(t *testing.T) {
	sketch, err := NewReqSketch(DefaultK, true)
	require.NoError(t, err)
	for i := 1; i <= 50; i++ {
		sketch.Update(float32(i))
	}
	bytes := sketch.ToSlice()
	bytes[_N_LONG_ADR]++ // n no longer matches the retained weight
	_, err = NewReqSketchFromSlice(bytes)
	assert.Error(t, err)
}
