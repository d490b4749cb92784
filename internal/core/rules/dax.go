package rules

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	lineCommentRe   = regexp.MustCompile(`(?m)//.*$`)
	blockCommentRe  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	divisionRe      = regexp.MustCompile(`[^/]/[^/]`)
	divideFuncRe    = regexp.MustCompile(`(?i)DIVIDE\s*\(`)
	intersectFuncRe = regexp.MustCompile(`(?i)INTERSECT\s*\(`)
	treatasFuncRe   = regexp.MustCompile(`(?i)TREATAS\s*\(`)
	iferrorFuncRe   = regexp.MustCompile(`(?i)IFERROR\s*\(`)
)

func init() {
	core.RegisterRule(core.Rule{
		ID:          "no-duplicate-measures",
		Name:        "No two measures have same definition",
		Description: "Avoid duplicate measure expressions to prevent maintenance issues",
		Category:    core.CategoryDAX,
		Evaluate:    noDuplicateMeasures,
	})
	core.RegisterRule(core.Rule{
		ID:          "use-divide-function",
		Name:        "Use the DIVIDE function for division",
		Description: "Use DIVIDE() instead of / for division to handle division by zero",
		Category:    core.CategoryDAX,
		Evaluate: measuresMatching("%d measures use / instead of DIVIDE()", "All divisions use DIVIDE()", func(expr string) bool {
			code := blockCommentRe.ReplaceAllString(lineCommentRe.ReplaceAllString(expr, ""), "")
			return divisionRe.MatchString(code) && !divideFuncRe.MatchString(code)
		}),
	})
	core.RegisterRule(core.Rule{
		ID:          "use-treatas-over-intersect",
		Name:        "Use TREATAS instead of INTERSECT for virtual relationships",
		Description: "TREATAS is more efficient than INTERSECT for virtual relationships",
		Category:    core.CategoryDAX,
		Evaluate: measuresMatching("%d measures use INTERSECT instead of TREATAS", "No measures use INTERSECT", func(expr string) bool {
			return intersectFuncRe.MatchString(expr) && !treatasFuncRe.MatchString(expr)
		}),
	})
	core.RegisterRule(core.Rule{
		ID:          "avoid-iferror",
		Name:        "Avoid using IFERROR function",
		Description: "IFERROR can mask real issues, use IF(ISERROR()) pattern instead",
		Category:    core.CategoryDAX,
		Evaluate: measuresMatching("%d measures use IFERROR", "No measures use IFERROR", func(expr string) bool {
			return iferrorFuncRe.MatchString(expr)
		}),
	})
}

// measuresMatching flags every measure whose expression satisfies match.
func measuresMatching(failDetail, passDetail string, match func(expr string) bool) func(*core.Envelope) core.RuleResult {
	return func(env *core.Envelope) core.RuleResult {
		var flagged []string
		for _, m := range env.Measures {
			if match(str(m, "Expression")) {
				flagged = append(flagged, qualify(str(m, "TableName"), str(m, "Name")))
			}
		}
		return result(flagged, failDetail, passDetail)
	}
}

func noDuplicateMeasures(env *core.Envelope) core.RuleResult {
	groups := make(map[string][]string)
	var order []string
	for _, m := range env.Measures {
		expr := strings.TrimSpace(str(m, "Expression"))
		if expr == "" {
			continue
		}
		key := whitespaceRe.ReplaceAllString(strings.ToLower(expr), " ")
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], qualify(str(m, "TableName"), str(m, "Name")))
	}

	var duplicates []string
	for _, key := range order {
		if len(groups[key]) > 1 {
			duplicates = append(duplicates, groups[key]...)
		}
	}
	return result(duplicates, "%d measures share a definition with another measure", "No duplicate measure definitions")
}
