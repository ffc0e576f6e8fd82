package config

import (
	"fmt"
	"os"

	"lynxform/pkg/models"
)

// LoadMapping reads and validates a type-mapping definition file. Invalid
// rule configs are rejected here, before any record is processed.
func LoadMapping(filePath string) (*models.TypeMapping, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file '%s': %w", filePath, err)
	}

	mapping, err := models.LoadMapping(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping file '%s': %w", filePath, err)
	}
	return mapping, nil
}
