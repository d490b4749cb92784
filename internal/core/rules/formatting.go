package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

func init() {
	core.RegisterRule(core.Rule{
		ID:          "relationships-use-integer-type",
		Name:        "Relationship columns should be of integer data type",
		Description: "For better performance, relationship columns should use integer data types",
		Category:    core.CategoryFormatting,
		Evaluate:    relationshipsUseIntegerType,
	})
	core.RegisterRule(core.Rule{
		ID:          "capitalize-first-letter",
		Name:        "First letter of columns/measures should be capitalized",
		Description: "All columns and measures should start with a capital letter",
		Category:    core.CategoryFormatting,
		Evaluate:    capitalizeFirstLetter,
	})
	core.RegisterRule(core.Rule{
		ID:          "percentage-format",
		Name:        "Percentage should be formatted with thousand separator and 1 decimal",
		Description: "Percentage measures should use proper formatting",
		Category:    core.CategoryFormatting,
		Evaluate:    percentageFormat,
	})
	core.RegisterRule(core.Rule{
		ID:          "no-trailing-spaces",
		Name:        "Objects should not start and end with space",
		Description: "Table, column, and measure names should not have leading or trailing spaces",
		Category:    core.CategoryFormatting,
		Evaluate: namesMatching("%d objects have leading or trailing spaces", "No objects have leading or trailing spaces", func(name string) bool {
			return name != strings.TrimSpace(name)
		}),
	})
}

func relationshipsUseIntegerType(env *core.Envelope) core.RuleResult {
	keys := make(map[string]bool)
	for _, rel := range env.Relationships {
		if col := str(rel, "FromColumnName"); col != "" {
			keys[qualify(str(rel, "FromTableName"), col)] = true
		}
		if col := str(rel, "ToColumnName"); col != "" {
			keys[qualify(str(rel, "ToTableName"), col)] = true
		}
	}

	return columnsMatching("%d relationship columns are not integer type", "All relationship columns use integer data types", func(col core.Row) bool {
		if !keys[qualify(str(col, "TableName"), str(col, "ColumnName"))] {
			return false
		}
		return !strings.EqualFold(str(col, "DataType"), "int64")
	})(env)
}

func capitalizeFirstLetter(env *core.Envelope) core.RuleResult {
	var flagged []string
	for _, col := range modelColumns(env) {
		if startsLower(str(col, "ColumnName")) {
			flagged = append(flagged, qualify(str(col, "TableName"), str(col, "ColumnName")))
		}
	}
	for _, m := range env.Measures {
		if startsLower(str(m, "Name")) {
			flagged = append(flagged, measureName(m))
		}
	}
	return result(flagged, "%d objects don't start with a capital letter", "All objects start with a capital letter")
}

// startsLower reports whether the first rune changes when upper-cased.
func startsLower(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return false
	}
	return unicode.ToUpper(r) != r
}

// percentageFormat expects measures named like percentages to carry a
// format string with a thousand separator, a decimal and a percent sign.
func percentageFormat(env *core.Envelope) core.RuleResult {
	var flagged []string
	for _, m := range env.Measures {
		name := strings.ToLower(str(m, "Name"))
		if !strings.Contains(name, "percent") && !strings.Contains(name, "%") {
			continue
		}
		format := str(m, "FormatString")
		if !strings.Contains(format, ",") || !strings.Contains(format, ".") || !strings.Contains(format, "%") {
			flagged = append(flagged, measureName(m))
		}
	}
	return result(flagged, "%d percentage measures have incorrect formatting", "All percentage measures have correct formatting")
}
