// CLAUDE:SUMMARY Renders a sanitized markdown dump of the result page for diagnosing selector or label drift.
// Package snapshot turns a rendered result page into readable markdown. It
// is a diagnostic aid: when the form's markup changes, the dump shows what
// the extractor was given.
package snapshot

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// Renderer converts page HTML to markdown. Safe for concurrent use.
type Renderer struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

// New returns a Renderer with the UGC sanitizing policy and table support.
func New() *Renderer {
	return &Renderer{
		policy: bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Markdown sanitizes html (scripts, styles and form controls are dropped)
// and converts it. Relative links resolve against pageURL.
func (r *Renderer) Markdown(html, pageURL string) (string, error) {
	clean := r.policy.Sanitize(html)
	if strings.TrimSpace(clean) == "" {
		return "", nil
	}
	var (
		md  string
		err error
	)
	if pageURL != "" {
		md, err = r.conv.ConvertString(clean, converter.WithDomain(pageURL))
	} else {
		md, err = r.conv.ConvertString(clean)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}
