package rules

import (
	"strings"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

func init() {
	core.RegisterRule(core.Rule{
		ID:          "avoid-bidirectional-relationships",
		Name:        "Avoid bi-directional relationships",
		Description: "CrossFilteringBehavior should be OneDirection to avoid performance issues",
		Category:    core.CategoryModeling,
		Evaluate: relationshipsMatching("%d bi-directional relationships found", "No bi-directional relationships", func(rel core.Row) bool {
			behavior := str(rel, "CrossFilteringBehavior")
			return behavior == "BothDirections" || behavior == "Both"
		}),
	})
	core.RegisterRule(core.Rule{
		ID:          "set-isavailableinmdx-false",
		Name:        "Set IsAvailableInMDX to false",
		Description: "IsAvailableInMDX should be False for better performance",
		Category:    core.CategoryModeling,
		Evaluate: columnsMatching("%d columns have IsAvailableInMDX set to true", "All columns have IsAvailableInMDX set to false", func(col core.Row) bool {
			return flag(col, "IsAvailableInMDX")
		}),
	})
	core.RegisterRule(core.Rule{
		ID:          "avoid-datetime-columns",
		Name:        "Split date and time",
		Description: "DateTime columns should be split into separate date and time columns",
		Category:    core.CategoryModeling,
		Evaluate: columnsMatching("%d DateTime columns found", "No DateTime columns found", func(col core.Row) bool {
			return strings.EqualFold(str(col, "DataType"), "dateTime")
		}),
	})
	core.RegisterRule(core.Rule{
		ID:          "avoid-many-to-many",
		Name:        "Avoid Many to Many relationships",
		Description: "Many to Many relationships can cause performance issues",
		Category:    core.CategoryModeling,
		Evaluate: relationshipsMatching("%d many-to-many relationships found", "No many-to-many relationships", func(rel core.Row) bool {
			return strings.HasPrefix(str(rel, "Cardinality"), "M:M")
		}),
	})
}

func relationshipsMatching(failDetail, passDetail string, match func(core.Row) bool) func(*core.Envelope) core.RuleResult {
	return func(env *core.Envelope) core.RuleResult {
		var flagged []string
		for _, rel := range env.Relationships {
			if match(rel) {
				flagged = append(flagged, str(rel, "FromTableName")+" -> "+str(rel, "ToTableName"))
			}
		}
		return result(flagged, failDetail, passDetail)
	}
}
