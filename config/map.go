// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

// Map is a Source backed by nested maps. Nested maps are flattened
// into dot separated keys.
type Map map[string]any

// Apply implements the Source interface.
func (m Map) Apply(store Store) error {
	return applyMap(store, "", m)
}

func applyMap(store Store, prefix string, m map[string]any) error {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		if sub, ok := v.(map[string]any); ok {
			err := applyMap(store, key, sub)
			if err != nil {
				return err
			}
			continue
		}
		err := store.Set(key, v)
		if err != nil {
			return err
		}
	}
	return nil
}
