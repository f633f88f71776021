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
	"encoding/binary"
	"math"

	"github.com/openquantiles/sketches-go/internal"
)

// isRawFormat reports whether the sketch serializes as bare level-0 items:
// so few items that no compaction can have happened yet, making all state
// derivable from k and the flags.
func (s *ReqSketch) isRawFormat() bool {
	return !s.IsEmpty() && s.totalN <= uint64(minSectionSize)
}

// GetSerializedSizeBytes returns the number of bytes the sketch occupies when
// serialized.
func (s *ReqSketch) GetSerializedSizeBytes() int {
	if s.IsEmpty() {
		return _DATA_START_ADR_RAW
	}
	if s.isRawFormat() {
		return _DATA_START_ADR_RAW + 4*int(s.totalN)
	}
	total := _DATA_START_ADR
	for _, c := range s.compactors {
		total += _COMPACTOR_HEADER_LEN + 4*c.buf.getCount()
	}
	return total
}

// ToSlice serializes the sketch to its compact byte form.
func (s *ReqSketch) ToSlice() []byte {
	out := make([]byte, s.GetSerializedSizeBytes())

	raw := s.isRawFormat()
	preInts := _PREAMBLE_INTS_FULL
	if s.IsEmpty() || raw {
		preInts = _PREAMBLE_INTS_EMPTY_RAW
	}
	flags := internal.BoolToInt(s.IsEmpty())*_EMPTY_BIT_MASK |
		internal.BoolToInt(s.hra)*_HRA_BIT_MASK |
		internal.BoolToInt(raw)*_RAW_ITEMS_BIT_MASK |
		internal.BoolToInt(s.ltEq)*_LT_EQ_BIT_MASK

	out[_PREAMBLE_INTS_BYTE_ADR] = byte(preInts)
	out[_SER_VER_BYTE_ADR] = byte(_SERIAL_VERSION)
	out[_FAMILY_BYTE_ADR] = byte(internal.FamilyEnum.Req.Id)
	out[_FLAGS_BYTE_ADR] = byte(flags)
	internal.PutShortLE(out, _K_SHORT_ADR, s.k)

	if s.IsEmpty() {
		return out
	}

	if raw {
		out[_NUM_COMPACTORS_ADR] = byte(s.totalN)
		buf := s.compactors[0].buf
		buf.sort()
		offset := _DATA_START_ADR_RAW
		for _, item := range buf.activeSlice() {
			binary.LittleEndian.PutUint32(out[offset:], math.Float32bits(item))
			offset += 4
		}
		return out
	}

	out[_NUM_COMPACTORS_ADR] = byte(len(s.compactors))
	binary.LittleEndian.PutUint64(out[_N_LONG_ADR:], s.totalN)
	binary.LittleEndian.PutUint32(out[_MIN_ITEM_FLOAT_ADR:], math.Float32bits(s.minItem))
	binary.LittleEndian.PutUint32(out[_MAX_ITEM_FLOAT_ADR:], math.Float32bits(s.maxItem))

	offset := _DATA_START_ADR
	for _, c := range s.compactors {
		c.buf.sort()
		binary.LittleEndian.PutUint64(out[offset+_COMPACTOR_STATE_ADR:], c.state)
		binary.LittleEndian.PutUint32(out[offset+_COMPACTOR_SECTION_SIZE_ADR:], math.Float32bits(c.sectionSizeFlt))
		out[offset+_COMPACTOR_NUM_SECTIONS_ADR] = byte(c.numSections)
		out[offset+_COMPACTOR_LG_WEIGHT_ADR] = c.lgWeight
		binary.LittleEndian.PutUint32(out[offset+_COMPACTOR_COUNT_ADR:], uint32(c.buf.getCount()))
		offset += _COMPACTOR_HEADER_LEN
		for _, item := range c.buf.activeSlice() {
			binary.LittleEndian.PutUint32(out[offset:], math.Float32bits(item))
			offset += 4
		}
	}
	return out
}

// NewReqSketchFromSlice reconstructs a sketch from its serialized byte form,
// validating the structure before any state is built. A malformed buffer
// always yields an error, never a partial sketch.
func NewReqSketchFromSlice(mem []byte) (*ReqSketch, error) {
	vlid, err := newReqSketchMemoryValidate(mem)
	if err != nil {
		return nil, err
	}
	sk, err := newReqSketch(vlid.k, vlid.hra, vlid.ltEq, newRandomBits(), nil)
	if err != nil {
		return nil, err
	}
	if vlid.emptyFlag {
		return sk, nil
	}
	if vlid.rawItemsFlag {
		for _, item := range vlid.rawItemsArr {
			sk.Update(item)
		}
		return sk, nil
	}

	compactors := make([]*reqCompactor, len(vlid.compactorBlocks))
	for i, blk := range vlid.compactorBlocks {
		sectionSize := nearestEven(blk.sectionSizeFlt)
		nomCap := nomCapMult * blk.numSections * sectionSize
		capacity := 2 * nomCap
		if capacity < len(blk.items) {
			capacity = len(blk.items)
		}
		buf := newFloatBuffer(capacity, nomCap, vlid.hra)
		buf.mergeSortIn(wrapSortedArray(blk.items, vlid.hra))
		compactors[i] = newReqCompactorFromState(
			blk.lgWeight, vlid.hra, blk.state, blk.sectionSizeFlt, blk.numSections, sk.rand, buf)
	}
	sk.compactors = compactors
	sk.totalN = vlid.n
	sk.minItem = vlid.minItem
	sk.maxItem = vlid.maxItem
	sk.maxNomSize = sk.computeMaxNomSize()
	sk.retItems = sk.computeTotalRetainedItems()
	return sk, nil
}
