package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const styles = `body{font-family:system-ui,sans-serif;margin:0;color:#1f2937;background:#f9fafb}
header{background:#111827;color:#f9fafb;padding:12px 24px}
header a{color:#f9fafb;text-decoration:none;font-weight:600}
main{max-width:1200px;margin:0 auto;padding:24px}
section{background:#fff;border:1px solid #e5e7eb;border-radius:6px;padding:16px;margin-bottom:16px}
h1{font-size:1.5rem}h2{font-size:1.15rem;margin-top:0}
table{border-collapse:collapse;width:100%;font-size:.85rem}
th,td{border:1px solid #e5e7eb;padding:4px 8px;text-align:left;vertical-align:top;white-space:pre-wrap}
th{background:#f3f4f6}
.scroll{overflow-x:auto;max-height:480px;overflow-y:auto}
.metrics{display:flex;gap:16px;flex-wrap:wrap}
.metric{background:#fff;border:1px solid #e5e7eb;border-radius:6px;padding:12px 16px;min-width:140px}
.metric b{display:block;font-size:1.4rem}
.alert{border:1px solid #fca5a5;background:#fef2f2;color:#991b1b;border-radius:6px;padding:12px 16px;margin-bottom:16px}
.pass{color:#047857}.fail{color:#b91c1c}
.muted{color:#6b7280;font-size:.85rem}`

// Layout wraps body in the dashboard page chrome.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw("<title>")
		p.text(title)
		p.raw(" - PBIX Inspector</title><style>" + styles + "</style></head><body>")
		p.raw(`<header><a href="/">PBIX Inspector</a></header><main>`)
		p.render(body)
		p.raw("</main></body></html>")
		return p.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.raw(`<div class="alert" role="alert"><strong>`)
		p.text(message)
		p.raw("</strong>")
		if action != "" {
			p.raw("<div>")
			p.text(action)
			p.raw("</div>")
		}
		if code != "" {
			p.raw(`<div class="muted">Code: `)
			p.text(code)
			p.raw("</div>")
		}
		p.raw("</div>")
		return p.err
	})
}

// ErrorPage is a full page holding only an error alert.
func ErrorPage(message, action, code string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := newPage(ctx, w)
		p.render(ErrorAlert(message, action, code))
		p.raw(`<p><a href="/">Back to upload</a></p>`)
		return p.err
	})
	return Layout("Error", body)
}
