package feed

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_sources.yml
var defaultSourcesYAML []byte

type sourceTable struct {
	Defaults   sourceDefaults      `yaml:"defaults"`
	Categories map[string][]Source `yaml:"categories"`
}

type sourceDefaults struct {
	Timeout  int `yaml:"timeout"` // seconds
	MaxItems int `yaml:"max_items"`
}

// ConfigCache holds the feed source table loaded from a YAML file. The table
// can be reloaded at any time without touching the aggregation code.
type ConfigCache struct {
	sourcesFile string
	sources     []Source
	mu          sync.RWMutex
}

func NewConfigCache(sourcesFile string) *ConfigCache {
	return &ConfigCache{sourcesFile: sourcesFile}
}

// Run loads the source table. The built-in table is used when the file does not exist.
func (cc *ConfigCache) Run() error {
	data, origin, err := cc.readSourcesFile()
	if err != nil {
		return err
	}

	sources, err := parseSourceTable(data)
	if err != nil {
		return fmt.Errorf("invalid source table %s: %w", origin, err)
	}

	cc.mu.Lock()
	cc.sources = sources
	cc.mu.Unlock()

	slog.Debug("Source table loaded", "origin", origin, "sources", len(sources))
	return nil
}

func (cc *ConfigCache) GetSources() []Source {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	sourcesCopy := make([]Source, len(cc.sources))
	copy(sourcesCopy, cc.sources)
	return sourcesCopy
}

func (cc *ConfigCache) GetSourceCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.sources)
}

func (cc *ConfigCache) readSourcesFile() ([]byte, string, error) {
	if cc.sourcesFile == "" {
		return defaultSourcesYAML, "built-in", nil
	}

	data, err := os.ReadFile(cc.sourcesFile)
	if os.IsNotExist(err) {
		slog.Debug("Sources file not found, using built-in table", "path", cc.sourcesFile)
		return defaultSourcesYAML, "built-in", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	return data, cc.sourcesFile, nil
}

func parseSourceTable(data []byte) ([]Source, error) {
	var table sourceTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for key := range table.Categories {
		if _, err := ParseCategory(key); err != nil {
			return nil, err
		}
	}

	if table.Defaults.Timeout < 0 || table.Defaults.MaxItems < 0 {
		return nil, fmt.Errorf("defaults must be non-negative")
	}

	var sources []Source
	for _, category := range Categories {
		for i, source := range table.Categories[string(category)] {
			source.Category = category

			if source.Timeout == 0 {
				source.Timeout = table.Defaults.Timeout
			}
			if source.MaxItems == 0 {
				source.MaxItems = table.Defaults.MaxItems
			}

			if err := validateSource(source); err != nil {
				return nil, fmt.Errorf("%s source at index %d: %w", category, i, err)
			}

			sources = append(sources, source)
		}
	}

	return sources, nil
}

func validateSource(source Source) error {
	requiredFields := map[string]string{
		"source name": source.Name,
		"source URL":  source.URL,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if !isWebURL(source.URL) {
		return fmt.Errorf("source URL must be an absolute http(s) URL: %s", source.URL)
	}

	nonNegativeFields := map[string]int{
		"max items": source.MaxItems,
		"timeout":   source.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	for i, filter := range source.Filters {
		if !filterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
