package rules

import (
	"strings"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

func init() {
	core.RegisterRule(core.Rule{
		ID:          "tables-have-relationships",
		Name:        "Ensure tables have relationships",
		Description: "Tables should be connected to at least one other table via relationships",
		Category:    core.CategoryMaintenance,
		Evaluate:    tablesHaveRelationships,
	})
	core.RegisterRule(core.Rule{
		ID:          "measures-have-descriptions",
		Name:        "Measures have descriptions",
		Description: "Every measure should carry a description for report authors",
		Category:    core.CategoryMaintenance,
		Evaluate:    measuresHaveDescriptions,
	})
	core.RegisterRule(core.Rule{
		ID:          "objects-have-descriptions",
		Name:        "Visible objects have descriptions",
		Description: "All visible columns and measures should have descriptions",
		Category:    core.CategoryMaintenance,
		Evaluate:    objectsWithoutDescription(false),
	})
	core.RegisterRule(core.Rule{
		ID:          "all-objects-have-descriptions",
		Name:        "All columns and measures have descriptions",
		Description: "All columns and measures should have descriptions for better documentation",
		Category:    core.CategoryMaintenance,
		Evaluate:    objectsWithoutDescription(true),
	})
	core.RegisterRule(core.Rule{
		ID:          "display-folders-used",
		Name:        "Display folders are used to improve measure organization",
		Description: "Display folders should be used for better organization of measures",
		Category:    core.CategoryMaintenance,
		Evaluate:    measuresWithoutFolder("All measures use display folders"),
	})
	core.RegisterRule(core.Rule{
		ID:          "measures-in-display-folders",
		Name:        "Measures are grouped into Display Folders for organization",
		Description: "All measures should be organized into display folders",
		Category:    core.CategoryMaintenance,
		Evaluate:    measuresWithoutFolder("All measures are in display folders"),
	})
}

func tablesHaveRelationships(env *core.Envelope) core.RuleResult {
	related := make(map[string]bool)
	for _, rel := range env.Relationships {
		related[str(rel, "FromTableName")] = true
		related[str(rel, "ToTableName")] = true
	}

	var disconnected []string
	for _, name := range modelTables(env) {
		if !related[name] {
			disconnected = append(disconnected, name)
		}
	}

	return result(disconnected, "%d tables have no relationships", "All tables have relationships")
}

func measuresHaveDescriptions(env *core.Envelope) core.RuleResult {
	var missing []string
	for _, m := range env.Measures {
		if blank(m, "Description") {
			missing = append(missing, measureName(m))
		}
	}
	return result(missing, "%d measures have no description", "All measures have descriptions")
}

// objectsWithoutDescription flags columns then measures with no
// description. Hidden columns count only when includeHidden is set.
func objectsWithoutDescription(includeHidden bool) func(*core.Envelope) core.RuleResult {
	return func(env *core.Envelope) core.RuleResult {
		var missing []string
		for _, col := range modelColumns(env) {
			if !includeHidden && flag(col, "IsHidden") {
				continue
			}
			if blank(col, "Description") {
				missing = append(missing, qualify(str(col, "TableName"), str(col, "ColumnName")))
			}
		}
		for _, m := range env.Measures {
			if blank(m, "Description") {
				missing = append(missing, measureName(m))
			}
		}
		return result(missing, "%d objects have no description", "All objects have descriptions")
	}
}

func measuresWithoutFolder(passDetail string) func(*core.Envelope) core.RuleResult {
	return func(env *core.Envelope) core.RuleResult {
		var flagged []string
		for _, m := range env.Measures {
			if blank(m, "DisplayFolder") {
				flagged = append(flagged, measureName(m))
			}
		}
		return result(flagged, "%d measures have no display folder", passDetail)
	}
}

func blank(row core.Row, key string) bool {
	return strings.TrimSpace(str(row, key)) == ""
}
