package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Shop is one Fullbay shop account the ingestor pulls invoices for.
type Shop struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	APIKey string `yaml:"api_key"`
}

const (
	apiKeyEnvPrefix   = "FULLBAY_API_KEY_"
	shopNameEnvPrefix = "FULLBAY_SHOP_NAME_"
)

// loadShops collects shop credentials from the environment, merged with an
// optional YAML file. Environment variables follow the pattern
// FULLBAY_API_KEY_<SHOP_ID> with an optional FULLBAY_SHOP_NAME_<SHOP_ID>.
// An env var wins over a file entry with the same shop id.
func loadShops(shopsFile string) ([]Shop, error) {
	byID := make(map[string]Shop)

	if shopsFile != "" {
		fileShops, err := loadShopsFile(shopsFile)
		if err != nil {
			return nil, err
		}
		for _, s := range fileShops {
			byID[s.ID] = s
		}
	}

	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, apiKeyEnvPrefix) || value == "" {
			continue
		}
		shopID := strings.TrimPrefix(key, apiKeyEnvPrefix)
		if shopID == "" {
			continue
		}

		shop := Shop{ID: shopID, APIKey: value}
		if name := os.Getenv(shopNameEnvPrefix + shopID); name != "" {
			shop.Name = name
		} else if existing, found := byID[shopID]; found {
			shop.Name = existing.Name
		}
		byID[shopID] = shop
	}

	shops := make([]Shop, 0, len(byID))
	for _, s := range byID {
		if s.APIKey == "" {
			return nil, fmt.Errorf("shop %q has no API key", s.ID)
		}
		shops = append(shops, s)
	}
	sort.Slice(shops, func(i, j int) bool { return shops[i].ID < shops[j].ID })

	return shops, nil
}

func loadShopsFile(path string) ([]Shop, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading shops file %s: %w", path, err)
	}

	var doc struct {
		Shops []Shop `yaml:"shops"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing shops file %s: %w", path, err)
	}

	for i, s := range doc.Shops {
		if s.ID == "" {
			return nil, fmt.Errorf("shops file %s: entry %d has no id", path, i+1)
		}
	}
	return doc.Shops, nil
}

// MaskAPIKey renders an API key safe for logs, keeping only the last four
// characters.
func MaskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
