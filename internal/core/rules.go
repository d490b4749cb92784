package core

// rules.go evaluates best-practice rules against an assembled envelope.
//
// Rules only read the envelope, so they work the same for every front-end
// and for cached analyses. Each rule reports pass/fail, a one-line detail,
// and the objects ("Table.Column", "From -> To", ...) it flagged.

// RuleCategory groups rules for display.
type RuleCategory string

const (
	CategoryMaintenance RuleCategory = "maintenance"
	CategoryDAX         RuleCategory = "dax"
	CategoryNaming      RuleCategory = "naming"
	CategoryModeling    RuleCategory = "modeling"
	CategoryFormatting  RuleCategory = "formatting"
)

var categoryOrder = []RuleCategory{
	CategoryMaintenance,
	CategoryDAX,
	CategoryNaming,
	CategoryModeling,
	CategoryFormatting,
}

var categoryNames = map[RuleCategory]string{
	CategoryMaintenance: "Maintenance",
	CategoryDAX:         "DAX Expressions",
	CategoryNaming:      "Naming Conventions",
	CategoryModeling:    "Modeling",
	CategoryFormatting:  "Formatting",
}

// DisplayName returns the human-readable category name.
func (c RuleCategory) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

func (c RuleCategory) order() int {
	for i, cat := range categoryOrder {
		if cat == c {
			return i
		}
	}
	return len(categoryOrder)
}

// Rule is one best-practice check.
type Rule struct {
	ID          string
	Name        string
	Description string
	Category    RuleCategory
	Evaluate    func(env *Envelope) RuleResult
}

// RuleResult is the outcome of one rule.
type RuleResult struct {
	Passed          bool     `json:"passed" yaml:"passed"`
	Details         string   `json:"details" yaml:"details"`
	AffectedObjects []string `json:"affected_objects" yaml:"affected_objects"`
}

// RuleFinding pairs a rule's identity with its result.
type RuleFinding struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Category    RuleCategory `json:"category" yaml:"category"`
	RuleResult  `yaml:",inline"`
}

// CategoryReport summarizes one category.
type CategoryReport struct {
	Category    RuleCategory  `json:"category" yaml:"category"`
	DisplayName string        `json:"display_name" yaml:"display_name"`
	Findings    []RuleFinding `json:"findings" yaml:"findings"`
	TotalRules  int           `json:"total_rules" yaml:"total_rules"`
	PassedRules int           `json:"passed_rules" yaml:"passed_rules"`
	FailedRules int           `json:"failed_rules" yaml:"failed_rules"`
}

// RuleReport is the result of running every registered rule.
type RuleReport struct {
	Categories  []CategoryReport `json:"categories" yaml:"categories"`
	TotalRules  int              `json:"total_rules" yaml:"total_rules"`
	PassedRules int              `json:"passed_rules" yaml:"passed_rules"`
	FailedRules int              `json:"failed_rules" yaml:"failed_rules"`
}

// EvaluateRules runs every registered rule against env. Categories without
// rules are omitted.
func EvaluateRules(env *Envelope) RuleReport {
	return evaluate(AllRules(), env)
}

func evaluate(rules []Rule, env *Envelope) RuleReport {
	report := RuleReport{Categories: []CategoryReport{}}
	index := make(map[RuleCategory]int)

	for _, rule := range rules {
		result := rule.Evaluate(env)
		if result.AffectedObjects == nil {
			result.AffectedObjects = []string{}
		}

		i, ok := index[rule.Category]
		if !ok {
			report.Categories = append(report.Categories, CategoryReport{
				Category:    rule.Category,
				DisplayName: rule.Category.DisplayName(),
			})
			i = len(report.Categories) - 1
			index[rule.Category] = i
		}
		cat := &report.Categories[i]

		cat.Findings = append(cat.Findings, RuleFinding{
			ID:          rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Category:    rule.Category,
			RuleResult:  result,
		})
		cat.TotalRules++
		report.TotalRules++
		if result.Passed {
			cat.PassedRules++
			report.PassedRules++
		} else {
			cat.FailedRules++
			report.FailedRules++
		}
	}

	return report
}
