package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/siteops/doc-validator-api/internal/models"
	"github.com/siteops/doc-validator-api/internal/rules"
)

// Applicability is the outcome of conditional-logic evaluation for one check.
type Applicability struct {
	Applicable bool
	Details    map[string]any
}

var (
	gridSizeRe  = regexp.MustCompile(`(\d+)\s*[xX]\s*(\d+)`)
	firstIntRe  = regexp.MustCompile(`\d+`)
	complexRank = map[string]float64{"low": 1, "medium": 2, "high": 3}
)

// ParseClusterSize converts a cluster-size string into a node count.
// "10x10" parses as a grid (rows × cols), otherwise the first integer in the
// string is used, otherwise 0.
func ParseClusterSize(s string) int {
	if m := gridSizeRe.FindStringSubmatch(s); m != nil {
		rows, _ := strconv.Atoi(m[1])
		cols, _ := strconv.Atoi(m[2])
		return rows * cols
	}
	if m := firstIntRe.FindString(s); m != "" {
		n, _ := strconv.Atoi(m)
		return n
	}
	return 0
}

// evaluateConditions combines a check's conditions with AND semantics.
// A condition that errors internally fails open: the check stays applicable
// and the error is recorded under details["error"]. A broken condition must
// not silently skip a required check.
func evaluateConditions(conds []*rules.Condition, docs map[models.DocumentType]*models.Document, pctx models.ProjectContext) Applicability {
	result := Applicability{Applicable: true, Details: map[string]any{}}

	for i, cond := range conds {
		ok, err := evaluateConditionSafe(cond, docs, pctx)
		key := fmt.Sprintf("condition_%d_%s", i, cond.Type)
		if err != nil {
			result.Details["error"] = err.Error()
			result.Details[key] = "error (treated as applicable)"
			continue
		}
		result.Details[key] = ok
		if !ok {
			result.Applicable = false
		}
	}

	return result
}

func evaluateConditionSafe(cond *rules.Condition, docs map[models.DocumentType]*models.Document, pctx models.ProjectContext) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("condition %s panicked: %v", cond.Type, r)
		}
	}()
	return evaluateCondition(cond, docs, pctx)
}

func evaluateCondition(cond *rules.Condition, docs map[models.DocumentType]*models.Document, pctx models.ProjectContext) (bool, error) {
	switch cond.Type {
	case rules.ConditionClusterSize:
		raw, found := conditionInput(cond, docs, pctx, "cluster_size")
		if !found {
			return false, fmt.Errorf("cluster size not found in documents or context")
		}
		nodes := ParseClusterSize(raw)
		expr := cond.Expr()
		if expr == nil {
			return false, fmt.Errorf("cluster_size condition requires an expression")
		}
		return compareNumber(expr, float64(nodes))

	case rules.ConditionProjectType:
		v, found := contextString(pctx, "project_type")
		if !found {
			return false, nil
		}
		if expr := cond.Expr(); expr != nil {
			return compareString(expr, v)
		}
		return strings.EqualFold(v, asString(cond.Value)), nil

	case rules.ConditionDocumentAvailability:
		for _, name := range cond.Documents {
			doc, ok := docs[models.DocumentType(name)]
			if !ok || len(doc.Content) == 0 {
				return false, nil
			}
		}
		return true, nil

	case rules.ConditionApprovalStatus:
		key := cond.Field
		if key == "" {
			key = "approval_status"
		}
		v, found := contextString(pctx, key)
		if !found {
			return false, nil
		}
		return matchValue(v, cond.Value), nil

	case rules.ConditionNetworkComplexity:
		v, found := contextString(pctx, "network_complexity")
		if !found {
			return false, nil
		}
		if expr := cond.Expr(); expr != nil {
			rank, ok := complexRank[strings.ToLower(v)]
			if !ok {
				return false, fmt.Errorf("unknown network complexity %q", v)
			}
			return compareNumber(expr, rank)
		}
		return strings.EqualFold(v, asString(cond.Value)), nil

	case rules.ConditionCustom:
		raw, found := conditionInput(cond, docs, pctx, cond.Field)
		if !found {
			return false, nil
		}
		if expr := cond.Expr(); expr != nil {
			return compareString(expr, raw)
		}
		if cond.Value != nil {
			return matchValue(raw, cond.Value), nil
		}
		return strings.TrimSpace(raw) != "", nil

	default:
		return false, fmt.Errorf("unknown condition type %q", cond.Type)
	}
}

// conditionInput pulls the condition's input either from a document field or
// from the project context.
func conditionInput(cond *rules.Condition, docs map[models.DocumentType]*models.Document, pctx models.ProjectContext, contextKey string) (string, bool) {
	if cond.Document != "" && cond.Field != "" {
		if doc, ok := docs[cond.Document]; ok {
			if raw, found := doc.Lookup(cond.Field); found {
				s := strings.TrimSpace(asString(raw))
				if s != "" {
					return s, true
				}
			}
		}
		// Fall through to context: a survey may omit a field the caller knows.
	}
	if contextKey == "" {
		contextKey = cond.Field
	}
	return contextString(pctx, contextKey)
}

func matchValue(v string, expected any) bool {
	switch exp := expected.(type) {
	case []any:
		for _, item := range exp {
			if strings.EqualFold(v, asString(item)) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range exp {
			if strings.EqualFold(v, item) {
				return true
			}
		}
		return false
	default:
		return strings.EqualFold(v, asString(expected))
	}
}

func compareNumber(expr *rules.CompareExpr, n float64) (bool, error) {
	if !expr.Numeric {
		return false, fmt.Errorf("expression %q is not numeric", expr.Op+" "+expr.Literal)
	}
	switch expr.Op {
	case ">":
		return n > expr.Number, nil
	case ">=":
		return n >= expr.Number, nil
	case "<":
		return n < expr.Number, nil
	case "<=":
		return n <= expr.Number, nil
	case "==":
		return n == expr.Number, nil
	case "!=":
		return n != expr.Number, nil
	default:
		return false, fmt.Errorf("unknown operator %q", expr.Op)
	}
}

func compareString(expr *rules.CompareExpr, s string) (bool, error) {
	if expr.Numeric {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return compareNumber(expr, n)
		}
	}
	switch expr.Op {
	case "==":
		return strings.EqualFold(strings.TrimSpace(s), expr.Literal), nil
	case "!=":
		return !strings.EqualFold(strings.TrimSpace(s), expr.Literal), nil
	default:
		return false, fmt.Errorf("operator %q requires a numeric value, got %q", expr.Op, s)
	}
}
