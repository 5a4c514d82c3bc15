// Copyright 2011 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package editdist computes Levenshtein distance for "did you mean"
// diagnostics: misspelled CLI flags, expectation selectors, and
// declaration names in verifier output.
package editdist

// Distance computes the edit distance between s1 and s2. When
// allowReplacements is false, only insertions and deletions count (a
// substitution costs two edits instead of one). If maxDistance is
// nonzero, the search is capped and returns maxDistance+1 the moment
// every entry in the current row exceeds it, bounding the work for long
// inputs known to be a mismatch.
func Distance(s1, s2 string, allowReplacements bool, maxDistance int) int {
	m := len(s1)
	n := len(s2)

	row := make([]int, n+1)
	for i := 1; i <= n; i++ {
		row[i] = i
	}

	for y := 1; y <= m; y++ {
		row[0] = y
		bestThisRow := row[0]

		previous := y - 1
		for x := 1; x <= n; x++ {
			oldRow := row[x]
			if allowReplacements {
				v := 0
				if s1[y-1] != s2[x-1] {
					v = 1
				}
				row[x] = min(previous+v, min(row[x-1], row[x])+1)
			} else {
				if s1[y-1] == s2[x-1] {
					row[x] = previous
				} else {
					row[x] = min(row[x-1], row[x]) + 1
				}
			}
			previous = oldRow
			bestThisRow = min(bestThisRow, row[x])
		}

		if maxDistance != 0 && bestThisRow > maxDistance {
			return maxDistance + 1
		}
	}

	return row[n]
}

func min(i, j int) int {
	if i < j {
		return i
	}
	return j
}

// maxValidDistance is the threshold past which a suggestion is
// considered too far from the input to be worth surfacing.
const maxValidDistance = 3

// Suggest returns the candidate closest to text, or "" if none is
// within maxValidDistance edits.
func Suggest(text string, candidates []string) string {
	best := ""
	bestDistance := maxValidDistance + 1
	for _, c := range candidates {
		d := Distance(c, text, true, maxValidDistance)
		if d < bestDistance {
			bestDistance = d
			best = c
		}
	}
	return best
}
