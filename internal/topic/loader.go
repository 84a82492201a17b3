package topic

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaychia/coinmeme/internal/domain"
	"github.com/jaychia/coinmeme/internal/logger"
)

const (
	briefPrefix = "brief_"
	briefSuffix = ".json"
)

// Load reads all topic briefs from a directory. Brief files are named
// brief_*.json; anything else is ignored. Files that fail to parse are
// skipped with a warning rather than failing the whole load, so one bad
// brief does not take the tool down.
// Parameters:
//   - dir: directory holding the brief files.
//
// Returns:
//   - []domain.Topic: topics in lexicographic filename order; empty when the
//     directory holds no valid briefs.
//   - error: non-nil only when the directory itself cannot be read.
func Load(dir string) ([]domain.Topic, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic directory: %w", err)
	}

	// os.ReadDir sorts by filename, which keeps the UI listing stable.
	topics := make([]domain.Topic, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, briefPrefix) || !strings.HasSuffix(name, briefSuffix) {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable topic brief %s: %v", name, err)
			continue
		}

		var t domain.Topic
		if err := json.Unmarshal(data, &t); err != nil {
			logger.Warn("Skipping malformed topic brief %s: %v", name, err)
			continue
		}
		if t.Title == "" {
			logger.Warn("Skipping topic brief %s: missing search term", name)
			continue
		}

		t.SourceFile = path
		topics = append(topics, t)
	}

	return topics, nil
}
