package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fieldpatch/fieldpatch/internal/patch"
)

// BatchFile is the on-disk form of a mutation batch: the target table plus
// an ordered request list. YAML and JSON are both accepted, chosen by file
// extension.
type BatchFile struct {
	Table    string          `json:"table" yaml:"table"`
	Requests []patch.Request `json:"requests" yaml:"requests"`
}

// LoadBatchFile reads and parses a batch file.
func LoadBatchFile(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch file: %w", err)
	}

	var batch BatchFile
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("batch file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("batch file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("batch file %s: unsupported extension (want .json, .yaml, or .yml)", path)
	}

	if batch.Table == "" {
		return nil, fmt.Errorf("batch file %s: table is required", path)
	}
	if len(batch.Requests) == 0 {
		return nil, fmt.Errorf("batch file %s: at least one request is required", path)
	}
	return &batch, nil
}
