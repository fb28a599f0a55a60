package summarizer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/ronbun/pkg/utils"
)

// SaveArtifact writes a summary as a markdown file named after the paper,
// creating dir if needed. Returns the file path and its size in bytes.
func SaveArtifact(dir, paperName, text string) (string, int64, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("create summaries dir: %w", err)
	}
	name := utils.CleanFilename(paperName) + "_summary.md"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", 0, fmt.Errorf("write summary: %w", err)
	}
	return path, int64(len(text)), nil
}
