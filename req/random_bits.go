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
	"math/rand"
)

// randomBits supplies the single random bit each compaction consumes. The
// sketch owns one source and shares it with all its compactors, so a fixed
// seed makes every compaction decision reproducible.
type randomBits interface {
	nextBit() bool
}

type randSource struct {
	rnd *rand.Rand
}

func newRandomBits() randomBits {
	return &randSource{rnd: rand.New(rand.NewSource(rand.Int63()))}
}

func newSeededRandomBits(seed int64) randomBits {
	return &randSource{rnd: rand.New(rand.NewSource(seed))}
}

func (r *randSource) nextBit() bool {
	return r.rnd.Intn(2) == 1
}
