package sources

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedFile lists source URLs to register at startup, so a fresh install
// can ship with a known set of catalogues.
type SeedFile struct {
	Sources []SeedSource `yaml:"sources"`
}

// SeedSource is one seed entry. Name is optional; when empty the host of
// the URL is used until the first sync reads the document's own name.
type SeedSource struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name,omitempty"`
}

// LoadSeedFile reads and validates a YAML seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range seed.Sources {
		entry := &seed.Sources[i]
		parsed, err := url.Parse(entry.URL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return nil, fmt.Errorf("seed entry %d has invalid url %q", i, entry.URL)
		}
		if strings.TrimSpace(entry.Name) == "" {
			entry.Name = parsed.Host
		}
	}

	return &seed, nil
}
