package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticRule(id string, cat RuleCategory, passed bool) Rule {
	return Rule{
		ID:       id,
		Name:     id,
		Category: cat,
		Evaluate: func(*Envelope) RuleResult {
			return RuleResult{Passed: passed}
		},
	}
}

func TestRegistry(t *testing.T) {
	ClearRules()
	defer ClearRules()

	RegisterRule(staticRule("z-naming", CategoryNaming, true))
	RegisterRule(staticRule("b-maint", CategoryMaintenance, true))
	RegisterRule(staticRule("a-maint", CategoryMaintenance, false))

	assert.Equal(t, 3, RuleCount())

	var ids []string
	for _, r := range AllRules() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a-maint", "b-maint", "z-naming"}, ids)

	assert.Len(t, RulesByCategory(CategoryMaintenance), 2)
	assert.Empty(t, RulesByCategory(CategoryDAX))

	rule, ok := GetRule("z-naming")
	require.True(t, ok)
	assert.Equal(t, CategoryNaming, rule.Category)

	_, ok = GetRule("missing")
	assert.False(t, ok)
}

func TestRegisterRule_Panics(t *testing.T) {
	ClearRules()
	defer ClearRules()

	RegisterRule(staticRule("dup", CategoryDAX, true))

	assert.Panics(t, func() { RegisterRule(staticRule("dup", CategoryDAX, true)) })
	assert.Panics(t, func() { RegisterRule(staticRule("", CategoryDAX, true)) })
	assert.Panics(t, func() { RegisterRule(Rule{ID: "no-eval"}) })
}

func TestEvaluate_GroupsAndCounts(t *testing.T) {
	rules := []Rule{
		staticRule("m1", CategoryMaintenance, true),
		staticRule("m2", CategoryMaintenance, false),
		staticRule("d1", CategoryDAX, false),
		staticRule("n1", CategoryNaming, true),
	}

	report := evaluate(rules, &Envelope{})

	assert.Equal(t, 4, report.TotalRules)
	assert.Equal(t, 2, report.PassedRules)
	assert.Equal(t, 2, report.FailedRules)
	require.Len(t, report.Categories, 3)

	maint := report.Categories[0]
	assert.Equal(t, CategoryMaintenance, maint.Category)
	assert.Equal(t, "Maintenance", maint.DisplayName)
	assert.Equal(t, 2, maint.TotalRules)
	assert.Equal(t, 1, maint.PassedRules)
	assert.Equal(t, 1, maint.FailedRules)
	require.Len(t, maint.Findings, 2)
	assert.Equal(t, []string{}, maint.Findings[0].AffectedObjects)

	sum := 0
	for _, c := range report.Categories {
		sum += c.TotalRules
		assert.Equal(t, c.TotalRules, c.PassedRules+c.FailedRules)
	}
	assert.Equal(t, report.TotalRules, sum)
}

func TestEvaluateRules_NoRules(t *testing.T) {
	ClearRules()

	report := EvaluateRules(&Envelope{})

	assert.Equal(t, 0, report.TotalRules)
	assert.Equal(t, []CategoryReport{}, report.Categories)
}

func TestRuleCategory_DisplayName(t *testing.T) {
	assert.Equal(t, "DAX Expressions", CategoryDAX.DisplayName())
	assert.Equal(t, "custom", RuleCategory("custom").DisplayName())
}
