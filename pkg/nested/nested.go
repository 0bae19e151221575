// Package nested provides path-based access into nested string-keyed
// mappings, the in-memory shape of composite documents.
package nested

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissing indicates that a path segment was absent, or that an
// intermediate value was not itself a nested mapping.
var ErrMissing = errors.New("nested: path not found")

// Get walks doc by successive key lookup and returns the value at path.
func Get(doc map[string]any, path []string) (any, error) {
	var current any = doc
	for i, segment := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a mapping", ErrMissing, strings.Join(path[:i], "/"))
		}
		current, ok = m[segment]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissing, strings.Join(path[:i+1], "/"))
		}
	}
	return current, nil
}

// Put writes value at path, creating intermediate mappings as needed. It
// fails when an intermediate value exists but is not a mapping.
func Put(doc map[string]any, path []string, value any) error {
	if len(path) == 0 {
		return fmt.Errorf("nested: empty path")
	}
	parent, err := fetchOrCreate(doc, path[:len(path)-1])
	if err != nil {
		return err
	}
	parent[path[len(path)-1]] = value
	return nil
}

// Delete removes the value at path. Missing paths are a no-op.
func Delete(doc map[string]any, path []string) {
	if len(path) == 0 {
		return
	}
	var current any = doc
	for _, segment := range path[:len(path)-1] {
		m, ok := current.(map[string]any)
		if !ok {
			return
		}
		current, ok = m[segment]
		if !ok {
			return
		}
	}
	if m, ok := current.(map[string]any); ok {
		delete(m, path[len(path)-1])
	}
}

// fetchOrCreate returns the mapping at path, creating empty mappings along
// the way.
func fetchOrCreate(doc map[string]any, path []string) (map[string]any, error) {
	current := doc
	for i, segment := range path {
		next, ok := current[segment]
		if !ok {
			created := make(map[string]any)
			current[segment] = created
			current = created
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("nested: %s exists and is not a mapping", strings.Join(path[:i+1], "/"))
		}
		current = m
	}
	return current, nil
}
