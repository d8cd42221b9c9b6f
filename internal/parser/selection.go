package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/brizzai/httpdeco/internal/logger"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Selection restricts which operations are imported and overrides their descriptions
type Selection struct {
	file *SelectionFile
}

// NewSelection creates a Selection that includes every operation
func NewSelection() *Selection {
	return &Selection{file: &SelectionFile{}}
}

// Load reads a selection file. A missing file leaves the selection unchanged.
func (s *Selection) Load(filePath string) error {
	if filePath == "" {
		return nil
	}

	logger.Info("Loading route selection", zap.String("file", filePath))
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		logger.Warn("Selection file not found, importing every operation", zap.String("file", filePath))
		return nil
	}
	if err != nil {
		return err
	}

	var file SelectionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse selection file: %w", err)
	}
	s.file = &file
	return nil
}

// Includes reports whether method on path is selected. An empty selection includes everything.
func (s *Selection) Includes(path, method string) bool {
	if s == nil || s.file == nil || len(s.file.Routes) == 0 {
		return true
	}

	for _, route := range s.file.Routes {
		if route.Path != path {
			continue
		}
		for _, m := range route.Methods {
			if strings.EqualFold(m, method) {
				return true
			}
		}
		return false
	}
	return false
}

// Description returns the override for method on path, or original when there is none
func (s *Selection) Description(path, method, original string) string {
	if s == nil || s.file == nil {
		return original
	}

	for _, desc := range s.file.Descriptions {
		if desc.Path != path {
			continue
		}
		for _, update := range desc.Updates {
			if strings.EqualFold(update.Method, method) {
				return update.NewDescription
			}
		}
		break
	}
	return original
}
