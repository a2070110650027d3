/*
Copyright 2021 Stefan Prodan

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package release

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
)

// Compare orders release identifiers by splitting them into digit and non-digit runs.
// Digit runs are compared numerically, the other runs lexically.
// When all runs are equal, the identifiers are compared as plain strings.
// The result is -1 if a < b, 0 if a == b and +1 if a > b.
func Compare(a, b string) int {
	ra, rb := splitRuns(a), splitRuns(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if c := compareRun(ra[i], rb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ra) < len(rb):
		return -1
	case len(ra) > len(rb):
		return 1
	}
	return strings.Compare(a, b)
}

// ByVersion sorts release identifiers in ascending order.
type ByVersion []string

func (v ByVersion) Len() int           { return len(v) }
func (v ByVersion) Swap(i, j int)      { v[i], v[j] = v[j], v[i] }
func (v ByVersion) Less(i, j int) bool { return Compare(v[i], v[j]) < 0 }

// Filter returns the releases that satisfy the semver constraint, highest first.
// Releases that are not valid semantic versions are skipped.
func (c *Catalog) Filter(constraint string) ([]string, error) {
	cons, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("semver '%s' parse failed, error: %w", constraint, err)
	}

	releases, err := c.Releases()
	if err != nil {
		return nil, err
	}

	var matches []*semver.Version
	index := make(map[*semver.Version]string)
	for _, r := range releases {
		v, err := semver.NewVersion(r)
		if err != nil {
			continue
		}
		if cons.Check(v) {
			matches = append(matches, v)
			index[v] = r
		}
	}

	sort.Sort(sort.Reverse(semver.Collection(matches)))

	result := make([]string, 0, len(matches))
	for _, v := range matches {
		result = append(result, index[v])
	}
	return result, nil
}

type run struct {
	text    string
	numeric bool
}

func splitRuns(s string) []run {
	var runs []run
	var sb strings.Builder
	numeric := false
	for i, r := range s {
		isDigit := unicode.IsDigit(r)
		if i > 0 && isDigit != numeric {
			runs = append(runs, run{text: sb.String(), numeric: numeric})
			sb.Reset()
		}
		numeric = isDigit
		sb.WriteRune(r)
	}
	if sb.Len() > 0 {
		runs = append(runs, run{text: sb.String(), numeric: numeric})
	}
	return runs
}

func compareRun(a, b run) int {
	if a.numeric && b.numeric {
		na, errA := strconv.ParseUint(a.text, 10, 64)
		nb, errB := strconv.ParseUint(b.text, 10, 64)
		if errA == nil && errB == nil {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(a.text, b.text)
}
