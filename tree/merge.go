// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package tree

// Merge folds addition into base in place.
//
// A key missing from base is copied over. A key present on both sides is
// merged recursively only when both values are maps. When the base value is a
// leaf, or the addition value is not a map, the base value is kept and the
// addition is dropped without error. Callers that need to know about such
// collisions should use MergeReport.
func Merge(base *Map, addition *Map) {
	MergeReport(base, addition, nil)
}

// Collision describes an addition that Merge dropped because base already
// held a leaf at the same path.
type Collision struct {
	Path    []string
	Kept    Node
	Dropped Node
}

// MergeReport behaves exactly like Merge and additionally calls dropped for
// every value that was discarded. dropped may be nil.
func MergeReport(base *Map, addition *Map, dropped func(Collision)) {
	mergeAt(nil, base, addition, dropped)
}

func mergeAt(path []string, base *Map, addition *Map, dropped func(Collision)) {
	if base == nil {
		return
	}
	addition.Range(func(key string, value Node) bool {
		existing, ok := base.Get(key)
		if !ok {
			base.Set(key, value)
			return true
		}
		existingMap, baseIsMap := existing.(*Map)
		valueMap, addIsMap := value.(*Map)
		if baseIsMap && addIsMap {
			mergeAt(appendPath(path, key), existingMap, valueMap, dropped)
			return true
		}
		if dropped != nil {
			dropped(Collision{Path: appendPath(path, key), Kept: existing, Dropped: value})
		}
		return true
	})
}

func appendPath(path []string, key string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, key)
}
