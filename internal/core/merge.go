package core

// MergeSchema aligns the declared schema columns and the calculated columns
// into one table.
//
// Both sides are extended to the union of their column sets (missing cells
// are nil) and concatenated, primary rows first. Existing columns are never
// renamed or reordered: the result lists primary's columns, then the columns
// only secondary has. Rows are not de-duplicated. nil inputs count as empty
// datasets, and neither input is modified.
func MergeSchema(primary, secondary *Dataset) *Dataset {
	left := primary.Clone()
	right := secondary.Clone()

	for _, col := range left.Columns {
		if !right.HasColumn(col) {
			addNullColumn(right, col)
		}
	}
	for _, col := range right.Columns {
		if !left.HasColumn(col) {
			addNullColumn(left, col)
		}
	}

	merged := &Dataset{
		Columns: left.Columns,
		Rows:    make([]Row, 0, len(left.Rows)+len(right.Rows)),
	}
	merged.Rows = append(merged.Rows, left.Rows...)
	merged.Rows = append(merged.Rows, right.Rows...)
	return merged
}

// addNullColumn appends col to ds and sets it to nil on every row.
func addNullColumn(ds *Dataset, col string) {
	ds.Columns = append(ds.Columns, col)
	for _, row := range ds.Rows {
		row[col] = nil
	}
}
