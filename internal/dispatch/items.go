package dispatch

import (
	"encoding/json"
	"fmt"
	"os"

	"outreach/internal/model"
)

// LoadItems reads a JSON array of outreach items from path.
func LoadItems(path string) ([]model.OutreachItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading outreach items: %w", err)
	}

	var items []model.OutreachItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing outreach items from %s: %w", path, err)
	}

	for i, item := range items {
		if item.Site == "" {
			return nil, fmt.Errorf("item %d in %s has no site", i, path)
		}
	}

	return items, nil
}
