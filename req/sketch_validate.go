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
	"fmt"
	"math"

	"github.com/openquantiles/sketches-go/internal"
)

type compactorBlock struct {
	state          uint64
	sectionSizeFlt float32
	numSections    int
	lgWeight       uint8
	items          []float32
}

type reqSketchMemoryValidate struct {
	srcMem []byte

	// first 8 bytes of preamble
	preInts  int
	serVer   int
	familyID int
	flags    int
	k        int

	// flag bits
	emptyFlag    bool
	hra          bool
	rawItemsFlag bool
	ltEq         bool

	// present only in the full layout, assumed otherwise
	n       uint64
	minItem float32
	maxItem float32

	rawItemsArr     []float32
	compactorBlocks []compactorBlock
}

func newReqSketchMemoryValidate(srcMem []byte) (*reqSketchMemoryValidate, error) {
	capa := len(srcMem)
	if capa < _DATA_START_ADR_RAW {
		return nil, fmt.Errorf("Memory too small: %d", capa)
	}
	preInts := getPreInts(srcMem)
	serVer := getSerVer(srcMem)
	if serVer != _SERIAL_VERSION {
		return nil, fmt.Errorf("Unsupported serial version: %d", serVer)
	}
	familyID := getFamilyID(srcMem)
	if familyID != internal.FamilyEnum.Req.Id {
		return nil, fmt.Errorf("Source not REQ: %d", familyID)
	}
	k := getK(srcMem)
	if err := checkK(k); err != nil {
		return nil, err
	}
	vlid := &reqSketchMemoryValidate{
		srcMem:       srcMem,
		preInts:      preInts,
		serVer:       serVer,
		familyID:     familyID,
		flags:        getFlags(srcMem),
		k:            k,
		emptyFlag:    getEmptyFlag(srcMem),
		hra:          getHraFlag(srcMem),
		rawItemsFlag: getRawItemsFlag(srcMem),
		ltEq:         getLtEqFlag(srcMem),
	}
	err := vlid.validate()
	return vlid, err
}

func (vlid *reqSketchMemoryValidate) validate() error {
	switch {
	case vlid.emptyFlag:
		if vlid.preInts != _PREAMBLE_INTS_EMPTY_RAW {
			return fmt.Errorf("Empty flag with preamble ints %d", vlid.preInts)
		}
		if vlid.rawItemsFlag {
			return fmt.Errorf("Empty and raw items flags both set")
		}
		if len(vlid.srcMem) != _DATA_START_ADR_RAW {
			return fmt.Errorf("Empty sketch length mismatch: %d", len(vlid.srcMem))
		}
		return nil

	case vlid.rawItemsFlag:
		if vlid.preInts != _PREAMBLE_INTS_EMPTY_RAW {
			return fmt.Errorf("Raw items flag with preamble ints %d", vlid.preInts)
		}
		count := getNumCompactors(vlid.srcMem) // item count in the raw layout
		if count < 1 || count > minSectionSize {
			return fmt.Errorf("Invalid raw item count: %d", count)
		}
		expected := _DATA_START_ADR_RAW + 4*count
		if len(vlid.srcMem) != expected {
			return fmt.Errorf("Raw sketch length mismatch: %d != %d", len(vlid.srcMem), expected)
		}
		vlid.n = uint64(count)
		vlid.rawItemsArr = make([]float32, count)
		for i := 0; i < count; i++ {
			item := math.Float32frombits(binary.LittleEndian.Uint32(vlid.srcMem[_DATA_START_ADR_RAW+4*i:]))
			if math.IsNaN(float64(item)) || math.IsInf(float64(item), 0) {
				return fmt.Errorf("Non-finite raw item at index %d", i)
			}
			vlid.rawItemsArr[i] = item
		}
		return nil

	default:
		if vlid.preInts != _PREAMBLE_INTS_FULL {
			return fmt.Errorf("Invalid preamble ints and flags combo: %d", vlid.preInts)
		}
		if len(vlid.srcMem) < _DATA_START_ADR {
			return fmt.Errorf("Memory too small for full layout: %d", len(vlid.srcMem))
		}
		numCompactors := getNumCompactors(vlid.srcMem)
		if numCompactors < 1 {
			return fmt.Errorf("Invalid compactor count: %d", numCompactors)
		}
		vlid.n = getN(vlid.srcMem)
		if vlid.n == 0 {
			return fmt.Errorf("Full layout with zero item count")
		}
		vlid.minItem = getMinItemFloat(vlid.srcMem)
		vlid.maxItem = getMaxItemFloat(vlid.srcMem)
		if !(vlid.minItem <= vlid.maxItem) {
			return fmt.Errorf("Invalid item bounds: [%f, %f]", vlid.minItem, vlid.maxItem)
		}
		return vlid.validateCompactorBlocks(numCompactors)
	}
}

func (vlid *reqSketchMemoryValidate) validateCompactorBlocks(numCompactors int) error {
	vlid.compactorBlocks = make([]compactorBlock, numCompactors)
	offset := _DATA_START_ADR
	weightedCount := uint64(0)
	for i := 0; i < numCompactors; i++ {
		if offset+_COMPACTOR_HEADER_LEN > len(vlid.srcMem) {
			return fmt.Errorf("Memory too small for compactor %d header", i)
		}
		blk := compactorBlock{
			state:          binary.LittleEndian.Uint64(vlid.srcMem[offset+_COMPACTOR_STATE_ADR:]),
			sectionSizeFlt: math.Float32frombits(binary.LittleEndian.Uint32(vlid.srcMem[offset+_COMPACTOR_SECTION_SIZE_ADR:])),
			numSections:    int(vlid.srcMem[offset+_COMPACTOR_NUM_SECTIONS_ADR]),
			lgWeight:       vlid.srcMem[offset+_COMPACTOR_LG_WEIGHT_ADR],
		}
		count := int(binary.LittleEndian.Uint32(vlid.srcMem[offset+_COMPACTOR_COUNT_ADR:]))
		if int(blk.lgWeight) != i {
			return fmt.Errorf("Compactor %d has log weight %d", i, blk.lgWeight)
		}
		if blk.numSections < initNumberOfSections {
			return fmt.Errorf("Compactor %d has %d sections", i, blk.numSections)
		}
		if nearestEven(blk.sectionSizeFlt) < minSectionSize {
			return fmt.Errorf("Compactor %d has section size %f", i, blk.sectionSizeFlt)
		}
		offset += _COMPACTOR_HEADER_LEN
		if offset+4*count > len(vlid.srcMem) {
			return fmt.Errorf("Memory too small for compactor %d items", i)
		}
		blk.items = make([]float32, count)
		prev := float32(math.Inf(-1))
		for j := 0; j < count; j++ {
			item := math.Float32frombits(binary.LittleEndian.Uint32(vlid.srcMem[offset+4*j:]))
			if math.IsNaN(float64(item)) || math.IsInf(float64(item), 0) {
				return fmt.Errorf("Non-finite item in compactor %d", i)
			}
			if item < prev {
				return fmt.Errorf("Unsorted items in compactor %d", i)
			}
			if item < vlid.minItem || item > vlid.maxItem {
				return fmt.Errorf("Item outside bounds in compactor %d", i)
			}
			blk.items[j] = item
			prev = item
		}
		offset += 4 * count
		weightedCount += uint64(count) << blk.lgWeight
		vlid.compactorBlocks[i] = blk
	}
	if offset != len(vlid.srcMem) {
		return fmt.Errorf("Sketch length mismatch: %d != %d", len(vlid.srcMem), offset)
	}
	if weightedCount != vlid.n {
		return fmt.Errorf("Weighted item count %d does not match n %d", weightedCount, vlid.n)
	}
	return nil
}
