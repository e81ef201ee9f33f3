package retail

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Retailers []RetailerSpec `yaml:"retailers"`
}

// LoadCatalog reads extra retailer specs from a YAML file:
//
//	retailers:
//	  - brand: Wine Warehouse
//	    base_url: https://shop.example.com
//	    search_path: /search
//	    query_param: q
//	    card_selector: div.product a
//	    max_items: 8
//
// An empty path yields no specs.
func LoadCatalog(path string) ([]RetailerSpec, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read retailer catalog %s", path)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML
func ParseCatalog(data []byte) ([]RetailerSpec, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "decode retailer catalog")
	}

	for _, spec := range file.Retailers {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Retailers, nil
}
