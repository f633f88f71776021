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

package internal

import (
	"golang.org/x/exp/constraints"
)

type Inequality int

const (
	InequalityLT Inequality = iota
	InequalityLE
	InequalityGE
	InequalityGT
)

// FindWithInequality searches the sorted region arr[low..high] (inclusive bounds)
// for the index best satisfying the given criterion with respect to v:
//
//	LT: the highest index with arr[index] <  v
//	LE: the highest index with arr[index] <= v
//	GE: the lowest index with arr[index]  >= v
//	GT: the lowest index with arr[index]  >  v
//
// Returns -1 if no index in the region satisfies the criterion. Duplicate values
// resolve to the boundary of the run of duplicates appropriate for the criterion.
func FindWithInequality[T constraints.Ordered](arr []T, low int, high int, v T, crit Inequality) int {
	if len(arr) == 0 || high < low {
		return -1
	}
	switch crit {
	case InequalityLT:
		return findHighest(arr, low, high, func(x T) bool { return x < v })
	case InequalityLE:
		return findHighest(arr, low, high, func(x T) bool { return x <= v })
	case InequalityGE:
		return findLowest(arr, low, high, func(x T) bool { return x >= v })
	case InequalityGT:
		return findLowest(arr, low, high, func(x T) bool { return x > v })
	default:
		panic("invalid inequality")
	}
}

func findHighest[T constraints.Ordered](arr []T, low int, high int, pred func(T) bool) int {
	lo, hi := low, high
	found := -1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if pred(arr[mid]) {
			found = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return found
}

func findLowest[T constraints.Ordered](arr []T, low int, high int, pred func(T) bool) int {
	lo, hi := low, high
	found := -1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if pred(arr[mid]) {
			found = mid
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return found
}
