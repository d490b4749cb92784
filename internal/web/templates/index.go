package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// IndexPage is the upload form with recent history.
type IndexPage struct {
	History     []core.HistoryEntry
	MaxFileSize string
	Alert       *core.UserMessage
}

// Index renders the upload page.
func Index(data IndexPage) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw("<h1>Inspect a Power BI report</h1>")
		if data.Alert != nil {
			p.render(ErrorAlert(data.Alert.Message, data.Alert.Action, data.Alert.Code))
		}

		p.raw(`<section><h2>Upload</h2>`)
		p.raw(`<form method="post" action="/analyze" enctype="multipart/form-data">`)
		p.raw(`<p><input type="file" name="file" accept=".pbix" required></p>`)
		p.raw(`<p><label><input type="checkbox" name="mode" value="strict"> Stop on the first unreadable table</label></p>`)
		p.raw(`<p><button type="submit">Analyze</button> <span class="muted">Maximum size `)
		p.text(data.MaxFileSize)
		p.raw("</span></p></form></section>")

		p.raw("<section><h2>Recent analyses</h2>")
		if len(data.History) == 0 {
			p.raw(`<p class="muted">No analyses yet.</p>`)
		} else {
			historyTable(p, data.History)
		}
		p.raw("</section>")
		return p.err
	})
	return Layout("Upload", body)
}

func historyTable(p *page, entries []core.HistoryEntry) {
	p.raw("<table><thead><tr><th>File</th><th>When</th><th>Model size</th><th>Tables</th><th>Failed</th><th>Mode</th><th>Source</th><th>Status</th></tr></thead><tbody>")
	for _, e := range entries {
		p.raw("<tr><td>")
		// Only successful analyses can still be in the cache.
		if e.Status == core.StatusOK {
			p.link(AnalysisURL(e.ID), e.FileName)
		} else {
			p.text(e.FileName)
		}
		p.raw("</td>")
		p.el("td", formatTime(e.CreatedAt))
		p.el("td", e.ModelSize)
		p.el("td", strconv.Itoa(e.TableCount))
		p.el("td", strconv.Itoa(e.FailedTables))
		p.el("td", e.Mode)
		p.el("td", e.Source)
		if e.Status == core.StatusOK {
			p.raw(`<td class="pass">ok</td>`)
		} else {
			p.raw(`<td class="fail" title="`)
			p.text(e.Error)
			p.raw(`">failed</td>`)
		}
		p.raw("</tr>")
	}
	p.raw("</tbody></table>")
}
