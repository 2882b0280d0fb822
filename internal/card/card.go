// Package card builds the appointment confirmation card and rasterizes it to
// PNG with headless Chromium.
package card

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ayumi-hirano/schedcal/internal/dateutil"
	"github.com/ayumi-hirano/schedcal/internal/model"
)

const (
	// Card dimensions match the 340px fixed-width layout the UI captures.
	DefaultWidth      = 340
	DefaultHeight     = 260
	DefaultTimeoutSec = 20
)

var cardTmpl = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<style>
  body { margin: 0; font-family: "Hiragino Sans", "Noto Sans JP", sans-serif; background: #fff; }
  .card { width: {{.Width}}px; box-sizing: border-box; padding: 24px; color: #1f2937;
          border: 1px solid #d1d5db; border-radius: 8px; }
  .name { text-align: center; font-size: 20px; font-weight: 700; margin: 0 0 6px; color: {{.Accent}}; }
  .kind { text-align: center; font-size: 14px; color: #4b5563; margin: 0 0 10px; }
  .when { border-top: 1px solid #e5e7eb; margin-top: 10px; padding-top: 10px; }
  .when .label { font-size: 16px; font-weight: 600; margin: 0 0 4px; }
  .when .value { font-size: 18px; text-align: center; padding: 6px 0; background: {{.Tint}}; border-radius: 4px; margin: 0; }
  .thanks { text-align: center; font-size: 14px; color: #6b7280; margin: 16px 0 0; }
</style>
</head>
<body>
<div class="card" data-ready="true">
  <p class="name">{{.DisplayName}}</p>
  <p class="kind">({{.CategoryLabel}}) のご予定、承りました。</p>
  <div class="when">
    <p class="label">日時:</p>
    <p class="value">{{.When}}</p>
  </div>
  <p class="thanks">ご確認ありがとうございます。</p>
</div>
</body>
</html>`))

// accent colors per category, tracking the UI palette. Unknown categories
// fall back to gray.
var palette = map[model.Category]struct{ Accent, Tint string }{
	model.CategoryCounseling: {"#be185d", "#fdf2f8"},
	model.CategoryWork:       {"#6d28d9", "#f5f3ff"},
	model.CategoryPrivate:    {"#b91c1c", "#fef2f2"},
}

type cardData struct {
	Width         int
	DisplayName   string
	CategoryLabel string
	When          string
	Accent        string
	Tint          string
}

// RenderHTML produces the standalone confirmation card document for one
// appointment.
func RenderHTML(a model.Appointment) ([]byte, error) {
	data := cardData{
		Width:       DefaultWidth,
		DisplayName: a.DisplayName,
		When:        a.Time,
		Accent:      "#374151",
		Tint:        "#f3f4f6",
	}
	if d, err := dateutil.ParseDate(a.Date); err == nil {
		data.When = dateutil.FormatLong(d) + " " + a.Time
	}
	if info, ok := a.Category.Info(); ok {
		data.CategoryLabel = info.Label
	} else {
		data.CategoryLabel = string(a.Category)
	}
	if p, ok := palette[a.Category]; ok {
		data.Accent = p.Accent
		data.Tint = p.Tint
	}

	var buf bytes.Buffer
	if err := cardTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("card: render template: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderOptions controls the Chromium capture.
type RenderOptions struct {
	Width   int
	Height  int
	Timeout time.Duration
}

// Rasterize renders the appointment card and captures it as a PNG through a
// headless Chromium instance. It fails when no browser is available, which
// the HTTP layer reports as a temporary outage.
func Rasterize(parentCtx context.Context, a model.Appointment, opts RenderOptions) ([]byte, error) {
	html, err := RenderHTML(a)
	if err != nil {
		return nil, err
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeoutSec * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	url := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(url),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("card: chromedp run failed: %w", err)
	}
	return png, nil
}
