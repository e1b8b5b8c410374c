// Package seed bundles the reference catalog used to bootstrap an empty store.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed products.json
var productsJSON []byte

// Products decodes the bundled catalog into loose records ready for import
func Products() ([]map[string]any, error) {
	var records []map[string]any
	if err := json.Unmarshal(productsJSON, &records); err != nil {
		return nil, fmt.Errorf("failed to decode seed products: %w", err)
	}
	return records, nil
}
