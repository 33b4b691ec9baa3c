package route

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadCategory reads a Category from a JSON file.
func LoadCategory(path string) (Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Category{}, fmt.Errorf("route: read %q: %w", path, err)
	}
	var cat Category
	if err := json.Unmarshal(data, &cat); err != nil {
		return Category{}, fmt.Errorf("route: parse %q: %w", path, err)
	}
	return cat, nil
}

// SaveCategory writes a Category to path as indented JSON.
func SaveCategory(path string, cat Category) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("route: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("route: write %q: %w", path, err)
	}
	return nil
}
