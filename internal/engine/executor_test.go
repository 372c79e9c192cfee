package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/doc-validator-api/internal/models"
	"github.com/siteops/doc-validator-api/internal/rules"
)

func compiledCheck(t *testing.T, check *rules.CheckDefinition) *rules.CheckDefinition {
	t.Helper()
	catalog := &rules.Catalog{
		SchemaVersion: "1.0.0",
		Checks:        []*rules.CheckDefinition{check},
	}
	require.NoError(t, catalog.Compile())
	return catalog.Checks[0]
}

func projectDoc(docType models.DocumentType, section, field, value string) *models.Document {
	return &models.Document{
		Type: docType,
		Content: models.ContentTree{
			section: {"key_values": map[string]any{field: value}},
		},
	}
}

func TestExecuteCheck_PatternMatch(t *testing.T) {
	check := compiledCheck(t, &rules.CheckDefinition{
		ID:          "vlan_format",
		Category:    "Network Configuration",
		Description: "VLAN id format",
		Weight:      2.0,
		Algorithm:   rules.AlgorithmPatternMatch,
		Locations: []rules.FieldRef{
			{Document: models.DocumentSiteSurveyPart2, Path: "Network.key_values.mgmt_vlan"},
		},
		Params: rules.Params{Pattern: `^\d{1,4}$`},
	})

	t.Run("matching value passes", func(t *testing.T) {
		docs := docsByType(projectDoc(models.DocumentSiteSurveyPart2, "Network", "mgmt_vlan", "120"))
		result := executeCheck(check, docs, nil, nil)
		assert.Equal(t, models.CheckStatusPass, result.Status)
		assert.Equal(t, 1.0, result.Score)
	})

	t.Run("non-matching value fails", func(t *testing.T) {
		docs := docsByType(projectDoc(models.DocumentSiteSurveyPart2, "Network", "mgmt_vlan", "vlan-120"))
		result := executeCheck(check, docs, nil, nil)
		assert.Equal(t, models.CheckStatusFail, result.Status)
		assert.Equal(t, 0.0, result.Score)
		assert.NotEmpty(t, result.Recommendations)
	})

	t.Run("missing field fails", func(t *testing.T) {
		docs := docsByType(projectDoc(models.DocumentSiteSurveyPart2, "Network", "other", "x"))
		result := executeCheck(check, docs, nil, nil)
		assert.Equal(t, models.CheckStatusFail, result.Status)
	})

	t.Run("every occurrence must match", func(t *testing.T) {
		multi := compiledCheck(t, &rules.CheckDefinition{
			ID:        "vlan_everywhere",
			Category:  "Network Configuration",
			Algorithm: rules.AlgorithmPatternMatch,
			Locations: []rules.FieldRef{
				{Document: models.DocumentSiteSurveyPart2, Path: "Network.key_values.mgmt_vlan"},
				{Document: models.DocumentInstallPlan, Path: "Network.key_values.mgmt_vlan"},
			},
			Params: rules.Params{Pattern: `^\d{1,4}$`},
		})
		docs := docsByType(
			projectDoc(models.DocumentSiteSurveyPart2, "Network", "mgmt_vlan", "120"),
			projectDoc(models.DocumentInstallPlan, "Network", "mgmt_vlan", "vlan 120"),
		)
		result := executeCheck(multi, docs, nil, nil)
		assert.Equal(t, models.CheckStatusFail, result.Status)
	})
}

func TestExecuteCheck_ContentAnalysis(t *testing.T) {
	check := compiledCheck(t, &rules.CheckDefinition{
		ID:          "project_name_provided",
		Category:    "Project Details",
		Description: "Project name provided",
		Weight:      3.0,
		Required:    true,
		Algorithm:   rules.AlgorithmContentAnalysis,
		Locations: []rules.FieldRef{
			{Document: models.DocumentSiteSurveyPart1, Path: "Project Details.key_values.project_name"},
		},
		Params: rules.Params{Required: true, MinLength: 1},
	})

	t.Run("present value passes", func(t *testing.T) {
		docs := docsByType(projectDoc(models.DocumentSiteSurveyPart1, "Project Details", "project_name", "Mainz DC Expansion"))
		result := executeCheck(check, docs, nil, nil)
		assert.Equal(t, models.CheckStatusPass, result.Status)
	})

	t.Run("empty value fails closed", func(t *testing.T) {
		docs := docsByType(projectDoc(models.DocumentSiteSurveyPart1, "Project Details", "project_name", ""))
		result := executeCheck(check, docs, nil, nil)
		assert.Equal(t, models.CheckStatusFail, result.Status)
		assert.Equal(t, 0.0, result.Score)
	})

	t.Run("short value fails min length", func(t *testing.T) {
		long := compiledCheck(t, &rules.CheckDefinition{
			ID:        "addr",
			Category:  "Project Details",
			Algorithm: rules.AlgorithmContentAnalysis,
			Locations: []rules.FieldRef{
				{Document: models.DocumentSiteSurveyPart1, Path: "Project Details.key_values.site_address"},
			},
			Params: rules.Params{Required: true, MinLength: 10},
		})
		docs := docsByType(projectDoc(models.DocumentSiteSurveyPart1, "Project Details", "site_address", "short"))
		result := executeCheck(long, docs, nil, nil)
		assert.Equal(t, models.CheckStatusFail, result.Status)
	})

	t.Run("non-numeric value fails number type", func(t *testing.T) {
		numeric := compiledCheck(t, &rules.CheckDefinition{
			ID:        "racks",
			Category:  "Rack Layout",
			Algorithm: rules.AlgorithmContentAnalysis,
			Locations: []rules.FieldRef{
				{Document: models.DocumentSiteSurveyPart2, Path: "Rack Layout.key_values.rack_count"},
			},
			Params: rules.Params{Required: true, ValueType: "number"},
		})
		docs := docsByType(projectDoc(models.DocumentSiteSurveyPart2, "Rack Layout", "rack_count", "several"))
		result := executeCheck(numeric, docs, nil, nil)
		assert.Equal(t, models.CheckStatusFail, result.Status)
	})
}

func crossRefCheck(t *testing.T) *rules.CheckDefinition {
	t.Helper()
	return compiledCheck(t, &rules.CheckDefinition{
		ID:          "project_name_consistent",
		Category:    "Cross-Document Consistency",
		Description: "Project name agrees across documents",
		Weight:      3.0,
		Algorithm:   rules.AlgorithmCrossReference,
		Locations: []rules.FieldRef{
			{Document: models.DocumentSiteSurveyPart1, Path: "Project Details.key_values.project_name"},
			{Document: models.DocumentInstallPlan, Path: "Project.key_values.project_name"},
		},
	})
}

func TestExecuteCheck_CrossReference(t *testing.T) {
	check := crossRefCheck(t)

	t.Run("identical values pass with score 1", func(t *testing.T) {
		docs := docsByType(
			projectDoc(models.DocumentSiteSurveyPart1, "Project Details", "project_name", "Mainz DC"),
			projectDoc(models.DocumentInstallPlan, "Project", "project_name", "Mainz DC"),
		)
		result := executeCheck(check, docs, nil, nil)
		assert.Equal(t, models.CheckStatusPass, result.Status)
		assert.Equal(t, 1.0, result.Score)
	})

	t.Run("disjoint values fail with score 0", func(t *testing.T) {
		docs := docsByType(
			projectDoc(models.DocumentSiteSurveyPart1, "Project Details", "project_name", "aaaa"),
			projectDoc(models.DocumentInstallPlan, "Project", "project_name", "zzzz"),
		)
		result := executeCheck(check, docs, nil, nil)
		assert.Equal(t, models.CheckStatusFail, result.Status)
		assert.Equal(t, 0.0, result.Score)
	})

	t.Run("single document yields warning", func(t *testing.T) {
		docs := docsByType(projectDoc(models.DocumentSiteSurveyPart1, "Project Details", "project_name", "Mainz DC"))
		result := executeCheck(check, docs, nil, nil)
		assert.Equal(t, models.CheckStatusWarning, result.Status)
		assert.Contains(t, result.Message, "insufficient documents")
	})
}

func TestExecuteCheck_DependencyGate(t *testing.T) {
	dependent := &rules.CheckDefinition{
		ID:        "engineering_approval",
		Category:  "Approvals",
		Algorithm: rules.AlgorithmContentAnalysis,
		Locations: []rules.FieldRef{
			{Document: models.DocumentSiteSurveyPart1, Path: "Approvals.key_values.engineering_approval"},
		},
		Params:    rules.Params{Required: true},
		DependsOn: []string{"customer_signoff"},
	}
	catalog := &rules.Catalog{
		SchemaVersion: "1.0.0",
		Checks: []*rules.CheckDefinition{
			{
				ID:        "customer_signoff",
				Category:  "Approvals",
				Algorithm: rules.AlgorithmContentAnalysis,
				Locations: []rules.FieldRef{
					{Document: models.DocumentSiteSurveyPart1, Path: "Approvals.key_values.customer_signoff"},
				},
				Params: rules.Params{Required: true},
			},
			dependent,
		},
	}
	require.NoError(t, catalog.Compile())

	docs := docsByType(projectDoc(models.DocumentSiteSurveyPart1, "Approvals", "engineering_approval", "J. Doe"))

	t.Run("unsatisfied dependency short-circuits", func(t *testing.T) {
		prior := map[string]*models.CheckResult{
			"customer_signoff": {CheckID: "customer_signoff", Status: models.CheckStatusFail},
		}
		result := executeCheck(dependent, docs, nil, prior)
		assert.Equal(t, models.CheckStatusNotApplicable, result.Status)
		assert.Contains(t, result.Message, "customer_signoff")
	})

	t.Run("satisfied dependency executes", func(t *testing.T) {
		prior := map[string]*models.CheckResult{
			"customer_signoff": {CheckID: "customer_signoff", Status: models.CheckStatusPass},
		}
		result := executeCheck(dependent, docs, nil, prior)
		assert.Equal(t, models.CheckStatusPass, result.Status)
	})
}

func TestExecuteCheck_ConditionsNotMet(t *testing.T) {
	check := compiledCheck(t, &rules.CheckDefinition{
		ID:        "loading_dock",
		Category:  "Site Readiness",
		Algorithm: rules.AlgorithmContentAnalysis,
		Locations: []rules.FieldRef{
			{Document: models.DocumentSiteSurveyPart1, Path: "Site Readiness.key_values.loading_dock"},
		},
		Params: rules.Params{Required: true},
		Conditions: []*rules.Condition{{
			Type:       rules.ConditionClusterSize,
			Document:   models.DocumentSiteSurveyPart1,
			Field:      "Cluster Configuration.key_values.cluster_size",
			Expression: "> 8",
		}},
	})

	docs := docsByType(surveyDoc("2x2"))
	result := executeCheck(check, docs, nil, nil)

	assert.Equal(t, models.CheckStatusNotApplicable, result.Status)
	assert.Equal(t, "conditions not met", result.Message)
}

func TestCharSetSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, charSetSimilarity("abc", "abc"))
	assert.Equal(t, 0.0, charSetSimilarity("abc", "xyz"))
	assert.Equal(t, 0.0, charSetSimilarity("", "abc"))
	assert.InDelta(t, 0.5, charSetSimilarity("ab", "abcd"), 0.001)
}
