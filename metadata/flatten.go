// Package metadata turns the unstructured nested metadata of an acquisition
// into the flat, human-readable artifacts recorded alongside the converted
// images: a key/value CSV, HTML summary tables, a settings XML, and the
// results summary handed to the LIMS upload step.
package metadata

import (
	"fmt"
	"sort"
)

// Separator joins nested metadata keys when flattening.
const Separator = "|"

// Flatten collapses a nested metadata mapping into a single level, joining
// keys with Separator. Non-map values are rendered with fmt.Sprint.
func Flatten(nested map[string]interface{}) map[string]string {
	flat := make(map[string]string)
	flattenInto(flat, "", nested)
	return flat
}

func flattenInto(flat map[string]string, prefix string, nested map[string]interface{}) {
	for k, v := range nested {
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}

		if child, ok := v.(map[string]interface{}); ok {
			flattenInto(flat, key, child)
			continue
		}

		flat[key] = fmt.Sprint(v)
	}
}

// SortedKeys returns the flattened keys in lexicographic order so that
// emitted artifacts are deterministic.
func SortedKeys(flat map[string]string) []string {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value for key, or fallback when absent.
func Get(flat map[string]string, key, fallback string) string {
	if v, ok := flat[key]; ok {
		return v
	}
	return fallback
}
