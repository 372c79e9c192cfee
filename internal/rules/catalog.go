package rules

import (
	_ "embed"
)

// defaultCatalogYAML is the built-in rule catalog used when no catalog
// directory is configured.
//
//go:embed catalog/default.yaml
var defaultCatalogYAML []byte
