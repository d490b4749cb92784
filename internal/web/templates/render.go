// Package templates renders the dashboard pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/pbixinspect/internal/core"
)

// page accumulates HTML output and keeps the first write error.
type page struct {
	ctx context.Context
	w   io.Writer
	err error
}

func newPage(ctx context.Context, w io.Writer) *page {
	return &page{ctx: ctx, w: w}
}

// raw writes trusted markup.
func (p *page) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

// text writes s HTML-escaped.
func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

// el writes <tag>text</tag> with escaped text.
func (p *page) el(tag, s string) {
	p.raw("<" + tag + ">")
	p.text(s)
	p.raw("</" + tag + ">")
}

// link writes an anchor. href must already be a safe path.
func (p *page) link(href templ.SafeURL, label string) {
	p.raw(`<a href="`)
	p.text(string(href))
	p.raw(`">`)
	p.text(label)
	p.raw("</a>")
}

func (p *page) render(c templ.Component) {
	if p.err != nil {
		return
	}
	p.err = c.Render(p.ctx, p.w)
}

// rowsTable writes rows as an HTML table in the given column order.
func (p *page) rowsTable(columns []string, rows []core.Row) {
	p.raw(`<div class="scroll"><table><thead><tr>`)
	for _, c := range columns {
		p.el("th", c)
	}
	p.raw("</tr></thead><tbody>")
	for _, row := range rows {
		p.raw("<tr>")
		for _, c := range columns {
			p.el("td", FormatValue(row[c]))
		}
		p.raw("</tr>")
	}
	p.raw("</tbody></table></div>")
}

// FormatValue renders one cell for display. Null renders empty.
func FormatValue(v core.Value) string {
	switch val := core.NormalizeValue(v).(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// AnalysisURL is the dashboard path of an analysis.
func AnalysisURL(id string) templ.SafeURL {
	return templ.SafeURL("/analysis/" + url.PathEscape(id))
}

// TableURL is the dashboard path of one table of an analysis.
func TableURL(id, table string) templ.SafeURL {
	return templ.SafeURL("/analysis/" + url.PathEscape(id) + "/table/" + url.PathEscape(table))
}

// ExportURL is the workbook download path of an analysis.
func ExportURL(id string) templ.SafeURL {
	return templ.SafeURL("/analysis/" + url.PathEscape(id) + "/export.xlsx")
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
