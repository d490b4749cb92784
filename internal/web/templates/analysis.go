package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// Analysis renders the overview of one analyzed archive. Sections without
// rows are left out.
func Analysis(a *core.Analysis) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		env := a.Envelope

		p.el("h1", a.FileName)
		p.raw(`<p class="muted">Analyzed `)
		p.text(formatTime(a.CreatedAt))
		p.raw(" in ")
		p.text(a.Duration.Round(time.Millisecond).String())
		p.raw(" &middot; ")
		p.link(ExportURL(a.ID), "Download workbook")
		p.raw("</p>")

		failed := a.FailedTables()
		p.raw(`<div class="metrics">`)
		metric(p, "Model size", env.ModelSize)
		metric(p, "Tables", strconv.Itoa(env.NumberOfTables))
		metric(p, "Unreadable tables", strconv.Itoa(len(failed)))
		metric(p, "Rules passed", fmt.Sprintf("%d / %d", a.Findings.PassedRules, a.Findings.TotalRules))
		p.raw("</div>")

		if len(a.Tables) > 0 {
			p.raw("<section><h2>Table data</h2><table><thead><tr><th>Table</th><th>Rows</th><th>Status</th></tr></thead><tbody>")
			for _, t := range a.Tables {
				p.raw("<tr><td>")
				p.link(TableURL(a.ID, t.Name), t.Name)
				p.raw("</td>")
				if t.OK() {
					p.el("td", strconv.Itoa(t.Rows.Len()))
					p.raw(`<td class="pass">read</td>`)
				} else {
					p.raw("<td></td>")
					p.raw(`<td class="fail">`)
					p.text(t.Err.Error())
					p.raw("</td>")
				}
				p.raw("</tr>")
			}
			p.raw("</tbody></table></section>")
		}

		for _, s := range core.Sections(env) {
			if len(s.Rows) == 0 {
				continue
			}
			p.raw("<section>")
			p.el("h2", s.Title)
			p.rowsTable(s.Columns, s.Rows)
			p.raw("</section>")
		}

		findings(p, a.Findings)
		return p.err
	})
	return Layout(a.FileName, body)
}

func metric(p *page, label, value string) {
	p.raw(`<div class="metric"><span class="muted">`)
	p.text(label)
	p.raw("</span><b>")
	p.text(value)
	p.raw("</b></div>")
}

func findings(p *page, report core.RuleReport) {
	if report.TotalRules == 0 {
		return
	}
	p.raw("<section><h2>Best practices</h2>")
	for _, cat := range report.Categories {
		p.raw("<h3>")
		p.text(fmt.Sprintf("%s (%d/%d passed)", cat.DisplayName, cat.PassedRules, cat.TotalRules))
		p.raw("</h3><table><thead><tr><th>Rule</th><th>Result</th><th>Details</th><th>Affected</th></tr></thead><tbody>")
		for _, f := range cat.Findings {
			p.raw(`<tr><td title="`)
			p.text(f.Description)
			p.raw(`">`)
			p.text(f.Name)
			p.raw("</td>")
			if f.Passed {
				p.raw(`<td class="pass">pass</td>`)
			} else {
				p.raw(`<td class="fail">fail</td>`)
			}
			p.el("td", f.Details)
			p.el("td", strings.Join(f.AffectedObjects, "\n"))
			p.raw("</tr>")
		}
		p.raw("</tbody></table>")
	}
	p.raw("</section>")
}
