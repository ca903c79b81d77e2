package snapshot

import (
	"strings"
	"testing"
)

func TestMarkdown_DropsScripts(t *testing.T) {
	html := `<html><head><style>body{color:red}</style></head><body>
<script>window.secret = "leak";</script>
<h1>Ward Lookup</h1>
<p>Ward: 42</p>
<form><input type="text" name="address"></form>
</body></html>`

	md, err := New().Markdown(html, "https://www.chicago.gov/")
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	if strings.Contains(md, "leak") || strings.Contains(md, "color:red") {
		t.Fatalf("script or style content survived:\n%s", md)
	}
	if !strings.Contains(md, "Ward Lookup") || !strings.Contains(md, "Ward: 42") {
		t.Fatalf("page text missing:\n%s", md)
	}
}

func TestMarkdown_RendersTableRows(t *testing.T) {
	html := `<table><tr><th>Label</th><th>Value</th></tr><tr><td>Alderman</td><td>Jane Doe</td></tr></table>`

	md, err := New().Markdown(html, "")
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	if !strings.Contains(md, "Alderman") || !strings.Contains(md, "Jane Doe") {
		t.Fatalf("table row missing:\n%s", md)
	}
	if !strings.Contains(md, "|") {
		t.Fatalf("expected a markdown table:\n%s", md)
	}
}

func TestMarkdown_Empty(t *testing.T) {
	md, err := New().Markdown("<script>x()</script>", "")
	if err != nil {
		t.Fatalf("markdown: %v", err)
	}
	if md != "" {
		t.Fatalf("got %q, want empty", md)
	}
}
