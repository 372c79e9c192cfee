package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const supportedSchemaVersion = "1.0.0"

var compareExprRe = regexp.MustCompile(`^\s*(>=|<=|==|!=|>|<)\s*(.+?)\s*$`)

// ParseCompareExpr parses a comparison like "> 16" or "== approved" into a
// typed expression. Numeric right-hand sides compare numerically, everything
// else compares as a case-insensitive string (== / != only).
func ParseCompareExpr(s string) (*CompareExpr, error) {
	m := compareExprRe.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid comparison expression %q", s)
	}

	expr := &CompareExpr{Op: m[1], Literal: m[2]}
	if n, err := strconv.ParseFloat(m[2], 64); err == nil {
		expr.Number = n
		expr.Numeric = true
	} else if expr.Op != "==" && expr.Op != "!=" {
		return nil, fmt.Errorf("operator %q requires a numeric operand, got %q", expr.Op, m[2])
	}

	return expr, nil
}

// LoadDefault parses and validates the embedded default catalog.
func LoadDefault() (*Catalog, error) {
	catalog, err := parseCatalog(defaultCatalogYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return catalog, nil
}

// LoadDir loads every YAML catalog file under dir, in filename order, and
// merges their checks into one catalog. An empty dir yields the embedded
// default catalog.
func LoadDir(dir string) (*Catalog, error) {
	if dir == "" {
		return LoadDefault()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog dir: %w", err)
	}

	merged := &Catalog{SchemaVersion: supportedSchemaVersion}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		var file Catalog
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}

		if merged.Name == "" {
			merged.Name = file.Name
		}
		merged.Checks = append(merged.Checks, file.Checks...)
		loaded++
	}

	if loaded == 0 {
		return LoadDefault()
	}

	if err := merged.Compile(); err != nil {
		return nil, err
	}
	return merged, nil
}

func parseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := compileCatalog(&catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Compile validates the catalog and pre-compiles its patterns and
// expressions. Catalogs built in code must be compiled before use.
func (c *Catalog) Compile() error {
	return compileCatalog(c)
}

// compileCatalog validates the catalog and pre-compiles regexes and
// comparison expressions so evaluation never parses strings.
func compileCatalog(catalog *Catalog) error {
	if catalog.SchemaVersion == "" {
		return fmt.Errorf("schema_version is required")
	}
	if catalog.SchemaVersion != supportedSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s", catalog.SchemaVersion)
	}
	if len(catalog.Checks) == 0 {
		return fmt.Errorf("catalog defines no checks")
	}

	seen := make(map[string]int, len(catalog.Checks))
	for i, check := range catalog.Checks {
		if check.ID == "" {
			return fmt.Errorf("check %d: id is required", i)
		}
		if _, dup := seen[check.ID]; dup {
			return fmt.Errorf("duplicate check id %q", check.ID)
		}
		seen[check.ID] = i

		if check.Category == "" {
			return fmt.Errorf("check %s: category is required", check.ID)
		}
		if check.Weight < 0 {
			return fmt.Errorf("check %s: weight must be non-negative", check.ID)
		}

		switch check.Algorithm {
		case AlgorithmPatternMatch:
			if check.Params.Pattern == "" {
				return fmt.Errorf("check %s: pattern_match requires params.pattern", check.ID)
			}
			re, err := regexp.Compile(check.Params.Pattern)
			if err != nil {
				return fmt.Errorf("check %s: invalid pattern: %w", check.ID, err)
			}
			check.compiledPattern = re
		case AlgorithmContentAnalysis:
			// format descriptor is optional field by field
		case AlgorithmCrossReference:
			if len(check.Locations) < 2 {
				return fmt.Errorf("check %s: cross_reference requires at least 2 locations", check.ID)
			}
		default:
			return fmt.Errorf("check %s: unknown algorithm %q", check.ID, check.Algorithm)
		}

		if len(check.Locations) == 0 && check.Algorithm != AlgorithmContentAnalysis {
			return fmt.Errorf("check %s: at least one location is required", check.ID)
		}

		// Dependencies must point at earlier checks so the executor can
		// resolve them in a single ordered pass.
		for _, dep := range check.DependsOn {
			depIdx, ok := seen[dep]
			if !ok || depIdx >= i {
				return fmt.Errorf("check %s: dependency %q must reference an earlier check", check.ID, dep)
			}
		}

		for _, cond := range check.Conditions {
			if err := compileCondition(catalog, check.ID, cond); err != nil {
				return err
			}
		}
	}

	return nil
}

func compileCondition(catalog *Catalog, checkID string, cond *Condition) error {
	switch cond.Type {
	case ConditionClusterSize, ConditionProjectType, ConditionDocumentAvailability,
		ConditionApprovalStatus, ConditionNetworkComplexity, ConditionCustom:
	default:
		return fmt.Errorf("check %s: unknown condition type %q", checkID, cond.Type)
	}

	if strings.EqualFold(cond.LogicOperator, "or") {
		catalog.Warnings = append(catalog.Warnings, fmt.Sprintf(
			"check %s: logic_operator %q is not supported; conditions combine with AND", checkID, cond.LogicOperator))
	}

	if cond.Expression != "" {
		expr, err := ParseCompareExpr(cond.Expression)
		if err != nil {
			return fmt.Errorf("check %s: %w", checkID, err)
		}
		cond.compiled = expr
	}

	return nil
}
