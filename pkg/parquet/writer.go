package parquet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteJSON serializes tables into dir, one JSON file per row group named
// "<table name>-<group index>.json". Each file holds a JSON array of
// records. Returns the paths written, in order.
func WriteJSON(dir string, tables []*Table) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create json dir: %w", err)
	}

	var written []string
	for _, table := range tables {
		for i, group := range table.Groups {
			records := group.Rows
			if records == nil {
				records = []Record{}
			}

			data, err := json.Marshal(records)
			if err != nil {
				return written, fmt.Errorf("%w: %s: %v", ErrUnsupportedType, table.Name, err)
			}

			path := filepath.Join(dir, fmt.Sprintf("%s-%04d.json", table.Name, i))
			if err := os.WriteFile(path, data, 0644); err != nil {
				return written, fmt.Errorf("write %s: %w", path, err)
			}
			written = append(written, path)
		}
	}

	return written, nil
}
