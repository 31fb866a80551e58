// Package merge combines nested option maps.
//
// Later sources win, nested maps are merged key by key, and slices and scalar
// leaves from a source replace whatever the target held.
package merge

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/mitchellh/copystructure"
)

// Recursive merges sources into a copy of target and returns the copy.
// Neither target nor any source is modified.
func Recursive(target map[string]any, sources ...map[string]any) (map[string]any, error) {
	result, err := Clone(target)
	if err != nil {
		return nil, err
	}

	for _, src := range sources {
		if len(src) == 0 {
			continue
		}

		// sources are copied so nested maps in the result never alias caller state
		srcCopy, err := Clone(src)
		if err != nil {
			return nil, err
		}

		if err := mergo.Merge(&result, srcCopy, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge options: %w", err)
		}
	}

	return result, nil
}

// Clone returns a deep copy of m. A nil map yields an empty, non-nil map.
func Clone(m map[string]any) (map[string]any, error) {
	if m == nil {
		return map[string]any{}, nil
	}

	copied, err := copystructure.Copy(m)
	if err != nil {
		return nil, fmt.Errorf("failed to copy options: %w", err)
	}

	return copied.(map[string]any), nil
}

// Get walks m along keys and returns the value found there.
func Get(m map[string]any, keys ...string) (any, bool) {
	var current any = m
	for _, key := range keys {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Bool looks up a boolean leaf, returning def when it is absent or not a bool.
func Bool(m map[string]any, def bool, keys ...string) bool {
	v, ok := Get(m, keys...)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}
