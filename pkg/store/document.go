package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// applyFieldUpdates applies dotted-path partial writes to a document by
// round-tripping it through its JSON form, mirroring how a document store
// addresses fields. Intermediate maps are created as needed; a path segment
// that lands on a non-object is an error.
func applyFieldUpdates(doc interface{}, updates []FieldUpdate) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %v", err)
	}
	tree := map[string]interface{}{}
	if err := json.Unmarshal(b, &tree); err != nil {
		return fmt.Errorf("failed to unmarshal document: %v", err)
	}

	for _, update := range updates {
		vb, err := json.Marshal(update.Value)
		if err != nil {
			return fmt.Errorf("failed to marshal value for %s: %v", update.Path, err)
		}
		var value interface{}
		if err := json.Unmarshal(vb, &value); err != nil {
			return fmt.Errorf("failed to unmarshal value for %s: %v", update.Path, err)
		}

		segments := strings.Split(update.Path, ".")
		node := tree
		for i, segment := range segments[:len(segments)-1] {
			child, ok := node[segment]
			if !ok {
				next := map[string]interface{}{}
				node[segment] = next
				node = next
				continue
			}
			childMap, ok := child.(map[string]interface{})
			if !ok {
				return fmt.Errorf("path %s is not addressable at %s", update.Path, strings.Join(segments[:i+1], "."))
			}
			node = childMap
		}
		node[segments[len(segments)-1]] = value
	}

	b, err = json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal updated document: %v", err)
	}
	if err := json.Unmarshal(b, doc); err != nil {
		return fmt.Errorf("failed to unmarshal updated document: %v", err)
	}
	return nil
}
