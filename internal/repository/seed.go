package repository

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"boutique/internal/domain"
)

//go:embed seed.json
var seedJSON []byte

type catalogFile struct {
	Categories []domain.Category `json:"categories"`
	Products   []domain.Product  `json:"products"`
}

// LoadCatalog читает каталог из JSON-файла; при пустом пути используется
// встроенный набор товаров.
func LoadCatalog(path string) ([]domain.Product, []domain.Category, error) {
	raw := seedJSON
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read catalog: %w", err)
		}
	}
	var cf catalogFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := make(map[string]bool, len(cf.Products))
	for _, p := range cf.Products {
		if p.ID == "" {
			return nil, nil, fmt.Errorf("catalog product without id: %q", p.Name)
		}
		if seen[p.ID] {
			return nil, nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return cf.Products, cf.Categories, nil
}
