package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// TablePage is the row preview of one extracted table.
type TablePage struct {
	Analysis  *core.Analysis
	Table     core.TableResult
	Preview   []core.Row
	TotalRows int
	Profile   []core.ColumnProfile
}

// Table renders a table preview with its column profile.
func Table(data TablePage) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw("<p>")
		p.link(AnalysisURL(data.Analysis.ID), data.Analysis.FileName)
		p.raw("</p>")
		p.el("h1", data.Table.Name)

		if !data.Table.OK() {
			p.render(ErrorAlert(data.Table.Err.Error(), "The table's data could not be read from this archive", ""))
			return p.err
		}

		p.raw(`<p class="muted">`)
		p.text(fmt.Sprintf("Showing %d of %d rows", len(data.Preview), data.TotalRows))
		p.raw("</p>")

		if len(data.Profile) > 0 {
			p.raw("<section><h2>Column profile</h2>")
			profileTable(p, data.Profile)
			p.raw("</section>")
		}

		p.raw("<section><h2>Rows</h2>")
		p.rowsTable(data.Table.Rows.Columns, data.Preview)
		p.raw("</section>")
		return p.err
	})
	return Layout(data.Table.Name, body)
}

func profileTable(p *page, profiles []core.ColumnProfile) {
	p.raw("<table><thead><tr><th>Column</th><th>Values</th><th>Nulls</th><th>Distinct</th><th>Min</th><th>Max</th><th>Mean</th><th>Median</th><th>Std dev</th></tr></thead><tbody>")
	for _, c := range profiles {
		p.raw("<tr>")
		p.el("td", c.Name)
		p.el("td", strconv.Itoa(c.Count))
		p.el("td", strconv.Itoa(c.Nulls))
		p.el("td", strconv.Itoa(c.Distinct))
		if c.Numeric {
			for _, v := range []float64{c.Min, c.Max, c.Mean, c.Median, c.StdDev} {
				p.el("td", strconv.FormatFloat(v, 'g', 6, 64))
			}
		} else {
			p.raw(`<td colspan="5" class="muted">not numeric</td>`)
		}
		p.raw("</tr>")
	}
	p.raw("</tbody></table>")
}
