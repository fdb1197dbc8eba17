package position

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"coinsentry/internal/model"
)

// loadSnapshot reads the persisted position map from a JSON file.
// A missing file yields an empty map, not an error.
func loadSnapshot(filePath string) (map[string]model.Position, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.Position{}, nil
		}
		return nil, err
	}
	positions := map[string]model.Position{}
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", filePath, err)
	}
	return positions, nil
}

// saveSnapshot rewrites the whole snapshot file. The write goes
// through a temp file and rename so a crash mid-write cannot leave a
// truncated snapshot behind.
func saveSnapshot(filePath string, positions map[string]model.Position) error {
	data, err := json.MarshalIndent(positions, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
