package capture

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveBatch writes each capture in batch to dir as
// capture-<timestamp>-<id>.png and returns the written paths. The directory
// is created when missing.
func SaveBatch(dir string, batch Batch) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}
	paths := make([]string, 0, batch.Len())
	for _, c := range batch.Captures {
		name := fmt.Sprintf("capture-%s-%s.png", c.TakenAt.Format("20060102-150405.000"), c.ID)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, c.PNG, 0o600); err != nil {
			return paths, fmt.Errorf("write capture %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
