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

// Serialized layout, little endian. Every sketch starts with the 8-byte
// preamble:
//
//	byte 0: preamble ints (2 = empty or raw items, 4 = exact or estimation)
//	byte 1: serial version (1)
//	byte 2: family id (17)
//	byte 3: flags (empty, hra, raw items, ltEq)
//	bytes 4-5: k
//	byte 6: number of compactors, or number of raw items in the raw format
//	byte 7: reserved
//
// The raw format is followed directly by the raw float items. The exact and
// estimation formats continue with n (8 bytes), min and max items (4 bytes
// each), then one block per compactor from level 0 upward:
//
//	bytes 0-7: compaction state
//	bytes 8-11: section size (float)
//	byte 12: number of sections
//	byte 13: lgWeight
//	bytes 14-15: reserved
//	bytes 16-19: number of retained items at this level
//	followed by the retained items, sorted ascending
const (
	_PREAMBLE_INTS_BYTE_ADR = 0
	_SER_VER_BYTE_ADR       = 1
	_FAMILY_BYTE_ADR        = 2
	_FLAGS_BYTE_ADR         = 3
	_K_SHORT_ADR            = 4 // to 5
	_NUM_COMPACTORS_ADR     = 6
	// byte 7 is reserved

	_DATA_START_ADR_RAW = 8  // raw items follow the preamble directly
	_N_LONG_ADR         = 8  // to 15
	_MIN_ITEM_FLOAT_ADR = 16 // to 19
	_MAX_ITEM_FLOAT_ADR = 20 // to 23
	_DATA_START_ADR     = 24 // first compactor block

	_COMPACTOR_STATE_ADR        = 0 // to 7, relative to block start
	_COMPACTOR_SECTION_SIZE_ADR = 8 // to 11
	_COMPACTOR_NUM_SECTIONS_ADR = 12
	_COMPACTOR_LG_WEIGHT_ADR    = 13
	// bytes 14-15 are reserved
	_COMPACTOR_COUNT_ADR  = 16 // to 19
	_COMPACTOR_HEADER_LEN = 20

	_SERIAL_VERSION          = 1
	_PREAMBLE_INTS_EMPTY_RAW = 2
	_PREAMBLE_INTS_FULL      = 4

	_EMPTY_BIT_MASK     = 1
	_HRA_BIT_MASK       = 2
	_RAW_ITEMS_BIT_MASK = 4
	_LT_EQ_BIT_MASK     = 8
)

func getPreInts(mem []byte) int {
	return int(mem[_PREAMBLE_INTS_BYTE_ADR] & 0xFF)
}

func getSerVer(mem []byte) int {
	return int(mem[_SER_VER_BYTE_ADR] & 0xFF)
}

func getFamilyID(mem []byte) int {
	return int(mem[_FAMILY_BYTE_ADR] & 0xFF)
}

func getFlags(mem []byte) int {
	return int(mem[_FLAGS_BYTE_ADR] & 0xFF)
}

func getEmptyFlag(mem []byte) bool {
	return (getFlags(mem) & _EMPTY_BIT_MASK) != 0
}

func getHraFlag(mem []byte) bool {
	return (getFlags(mem) & _HRA_BIT_MASK) != 0
}

func getRawItemsFlag(mem []byte) bool {
	return (getFlags(mem) & _RAW_ITEMS_BIT_MASK) != 0
}

func getLtEqFlag(mem []byte) bool {
	return (getFlags(mem) & _LT_EQ_BIT_MASK) != 0
}

func getK(mem []byte) int {
	return internal.GetShortLE(mem, _K_SHORT_ADR)
}

func getNumCompactors(mem []byte) int {
	return int(mem[_NUM_COMPACTORS_ADR] & 0xFF)
}

func getN(mem []byte) uint64 {
	return binary.LittleEndian.Uint64(mem[_N_LONG_ADR : _N_LONG_ADR+8])
}

func getMinItemFloat(mem []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(mem[_MIN_ITEM_FLOAT_ADR : _MIN_ITEM_FLOAT_ADR+4]))
}

func getMaxItemFloat(mem []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(mem[_MAX_ITEM_FLOAT_ADR : _MAX_ITEM_FLOAT_ADR+4]))
}
