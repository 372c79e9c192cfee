package rules

import (
	"regexp"

	"github.com/siteops/doc-validator-api/internal/models"
)

// Algorithm is the closed set of check algorithms. Dispatch over this enum is
// resolved at catalog load, not by runtime string lookup.
type Algorithm string

const (
	AlgorithmPatternMatch    Algorithm = "pattern_match"
	AlgorithmContentAnalysis Algorithm = "content_analysis"
	AlgorithmCrossReference  Algorithm = "cross_reference"
)

// ConditionType tags the conditional-logic variants a check may carry.
type ConditionType string

const (
	ConditionClusterSize          ConditionType = "cluster_size"
	ConditionProjectType          ConditionType = "project_type"
	ConditionDocumentAvailability ConditionType = "document_availability"
	ConditionApprovalStatus       ConditionType = "approval_status"
	ConditionNetworkComplexity    ConditionType = "network_complexity"
	ConditionCustom               ConditionType = "custom"
)

// FieldRef points at one field in one document type.
type FieldRef struct {
	Document models.DocumentType `yaml:"document"`
	Path     string              `yaml:"path"`
}

// CompareExpr is a comparison parsed once at catalog load from strings like
// "> 16" or "== approved". Replaces ad hoc operator string-splitting at
// evaluation time.
type CompareExpr struct {
	Op      string
	Number  float64
	Literal string
	Numeric bool
}

// Condition decides whether a check applies to a given document set and
// project context. Evaluation is a pure function of its inputs.
type Condition struct {
	Type       ConditionType       `yaml:"type"`
	Document   models.DocumentType `yaml:"document,omitempty"`
	Field      string              `yaml:"field,omitempty"`
	Expression string              `yaml:"expression,omitempty"`
	Value      any                 `yaml:"value,omitempty"`
	Documents  []string            `yaml:"documents,omitempty"`

	// Parsed and retained but never consulted: conditions always combine
	// with AND. The loader warns when a catalog sets "or".
	LogicOperator string `yaml:"logic_operator,omitempty"`

	compiled *CompareExpr
}

// Expr returns the comparison compiled at load time, or nil when the
// condition has no expression.
func (c *Condition) Expr() *CompareExpr {
	return c.compiled
}

// Params carries the algorithm-specific knobs of a check.
type Params struct {
	Pattern        string `yaml:"pattern,omitempty"`
	Required       bool   `yaml:"required,omitempty"`
	MinLength      int    `yaml:"min_length,omitempty"`
	MaxLength      int    `yaml:"max_length,omitempty"`
	ValueType      string `yaml:"value_type,omitempty"`
	Recommendation string `yaml:"recommendation,omitempty"`
}

// CheckDefinition is one entry of the rule catalog. Immutable after load.
type CheckDefinition struct {
	ID          string       `yaml:"id"`
	Category    string       `yaml:"category"`
	Description string       `yaml:"description"`
	Weight      float64      `yaml:"weight"`
	Required    bool         `yaml:"required"`
	Algorithm   Algorithm    `yaml:"algorithm"`
	Locations   []FieldRef   `yaml:"locations"`
	Params      Params       `yaml:"params"`
	DependsOn   []string     `yaml:"depends_on,omitempty"`
	Conditions  []*Condition `yaml:"conditions,omitempty"`

	compiledPattern *regexp.Regexp
}

// Pattern returns the regex compiled at load time for pattern_match checks.
func (c *CheckDefinition) Pattern() *regexp.Regexp {
	return c.compiledPattern
}

// Catalog is the ordered, validated rule table for validation runs.
type Catalog struct {
	SchemaVersion string             `yaml:"schema_version"`
	Name          string             `yaml:"name"`
	Checks        []*CheckDefinition `yaml:"checks"`

	// Non-fatal findings from validation, surfaced by the caller.
	Warnings []string `yaml:"-"`
}

// ByID returns the check with the given id, or nil.
func (c *Catalog) ByID(id string) *CheckDefinition {
	for _, chk := range c.Checks {
		if chk.ID == id {
			return chk
		}
	}
	return nil
}
