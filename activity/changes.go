// ABOUTME: Field-level diff between two versions of a record
// ABOUTME: Compares JSON field names so activity details use the wire names
package activity

import (
	"encoding/json"
	"sort"
)

var ignoredFields = map[string]bool{
	"Id":        true,
	"createdAt": true,
	"updatedAt": true,
}

// ChangedFields returns the sorted JSON field names whose values differ.
// Bookkeeping fields (id and timestamps) are ignored.
func ChangedFields(before, after any) []string {
	oldMap, err1 := toMap(before)
	newMap, err2 := toMap(after)
	if err1 != nil || err2 != nil {
		return nil
	}

	var changes []string
	for key, newVal := range newMap {
		if ignoredFields[key] {
			continue
		}
		oldVal, exists := oldMap[key]
		if !exists || !deepEqual(oldVal, newVal) {
			changes = append(changes, key)
		}
	}
	for key := range oldMap {
		if _, exists := newMap[key]; !exists && !ignoredFields[key] {
			changes = append(changes, key)
		}
	}
	sort.Strings(changes)
	return changes
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// deepEqual compares values by their JSON encoding.
func deepEqual(a, b any) bool {
	aJSON, err1 := json.Marshal(a)
	bJSON, err2 := json.Marshal(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(aJSON) == string(bJSON)
}
