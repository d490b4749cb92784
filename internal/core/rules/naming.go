package rules

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

var (
	specialCharsRe = regexp.MustCompile(`[^\w\s]`)
	camelCaseRe    = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
)

var keySuffixes = []string{"_ID", "_Key", "_key", "_KEY"}

func init() {
	core.RegisterRule(core.Rule{
		ID:          "no-special-characters",
		Name:        "Objects should not contain special characters",
		Description: "Table, column, and measure names should not contain special characters",
		Category:    core.CategoryNaming,
		Evaluate: namesMatching("%d objects contain special characters", "No objects contain special characters", func(name string) bool {
			return specialCharsRe.MatchString(name)
		}),
	})
	core.RegisterRule(core.Rule{
		ID:          "columns-use-camel-case",
		Name:        "Column names use Camel Case consistently",
		Description: "All column names should follow camelCase naming convention",
		Category:    core.CategoryNaming,
		Evaluate: columnsMatching("%d columns do not use camelCase", "All columns use camelCase", func(col core.Row) bool {
			return !camelCaseRe.MatchString(str(col, "ColumnName"))
		}),
	})
	core.RegisterRule(core.Rule{
		ID:          "id-columns-naming",
		Name:        "ID columns end with _ID or _Key",
		Description: "Columns containing IDs should end with _ID or _Key",
		Category:    core.CategoryNaming,
		Evaluate: columnsMatching("%d ID columns do not end with _ID or _Key", "All ID columns end with _ID or _Key", func(col core.Row) bool {
			return isIDColumn(str(col, "ColumnName"))
		}),
	})
	core.RegisterRule(core.Rule{
		ID:          "tables-use-singular-nouns",
		Name:        "Tables use singular nouns for naming",
		Description: "Table names should use singular nouns instead of plural",
		Category:    core.CategoryNaming,
		Evaluate:    tablesUseSingularNouns,
	})
}

// isIDColumn reports an ID-like column name without a key suffix.
func isIDColumn(name string) bool {
	if !strings.Contains(name, "ID") && !strings.Contains(name, "Id") && !strings.Contains(name, "id") {
		return false
	}
	for _, suffix := range keySuffixes {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	return true
}

func tablesUseSingularNouns(env *core.Envelope) core.RuleResult {
	var plural []string
	for _, name := range modelTables(env) {
		if strings.HasSuffix(strings.ToLower(name), "s") {
			plural = append(plural, name)
		}
	}
	return result(plural, "%d tables use plural nouns", "All tables use singular nouns")
}

// namesMatching checks table, column, and measure names.
func namesMatching(failDetail, passDetail string, match func(name string) bool) func(*core.Envelope) core.RuleResult {
	return func(env *core.Envelope) core.RuleResult {
		var flagged []string
		for _, name := range modelTables(env) {
			if match(name) {
				flagged = append(flagged, name)
			}
		}
		for _, col := range env.Columns {
			table := str(col, "TableName")
			if isAutoDateTable(table) {
				continue
			}
			if name := str(col, "ColumnName"); match(name) {
				flagged = append(flagged, qualify(table, name))
			}
		}
		for _, m := range env.Measures {
			if match(str(m, "Name")) {
				flagged = append(flagged, measureName(m))
			}
		}
		return result(flagged, failDetail, passDetail)
	}
}
