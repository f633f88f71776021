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

// Builder configures and builds ReqSketch instances.
type Builder struct {
	k       int
	hra     bool
	ltEq    bool
	seed    int64
	hasSeed bool
	debug   Debug
}

// NewBuilder returns a builder with the defaults: k = 12, high rank accuracy,
// exclusive (less-than) comparison criterion, unseeded randomness.
func NewBuilder() *Builder {
	return &Builder{k: DefaultK, hra: true}
}

// K sets the accuracy parameter. Larger (even) k gives smaller relative error
// and a larger sketch.
func (b *Builder) K(k int) *Builder {
	b.k = k
	return b
}

// HighRankAccuracy chooses which end of the rank domain gets the best
// accuracy: near rank 1.0 when true (the default), near rank 0 when false.
func (b *Builder) HighRankAccuracy(hra bool) *Builder {
	b.hra = hra
	return b
}

// LtEq sets the sketch's default comparison criterion to
// less-than-or-equal. Sketches can only merge with sketches sharing the same
// setting.
func (b *Builder) LtEq(ltEq bool) *Builder {
	b.ltEq = ltEq
	return b
}

// RandomSeed fixes the seed of the compaction coin flips, making the sketch
// fully deterministic for a given update sequence.
func (b *Builder) RandomSeed(seed int64) *Builder {
	b.seed = seed
	b.hasSeed = true
	return b
}

// Debug installs a diagnostics sink receiving structural events.
func (b *Builder) Debug(debug Debug) *Builder {
	b.debug = debug
	return b
}

// Build validates the configuration and returns a new empty sketch.
func (b *Builder) Build() (*ReqSketch, error) {
	rnd := newRandomBits()
	if b.hasSeed {
		rnd = newSeededRandomBits(b.seed)
	}
	return newReqSketch(b.k, b.hra, b.ltEq, rnd, b.debug)
}
