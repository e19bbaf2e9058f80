package tokenlist

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed baseline.json
var embeddedBaseline []byte

// LoadBaseline returns the bundled baseline document, or the document at path when set
func LoadBaseline(path string) (*Document, error) {
	data := embeddedBaseline
	source := "embedded baseline"
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read baseline file: %w", err)
		}
		source = path
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", source, err)
	}
	return &doc, nil
}
