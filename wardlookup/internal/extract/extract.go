// CLAUDE:SUMMARY Field Extractor: a regex pass over visible text and a table pass over the DOM, merged with table values winning.
// Package extract pulls ward, alderperson, office address and ward phone out
// of whatever the lookup form rendered. Both passes are pure functions over
// a snapshot; neither can fail.
package extract

import "unicode/utf8"

// PreviewRunes bounds RawExtraction.RawText.
const PreviewRunes = 500

// Fields is a partial record. Empty string means absent.
type Fields struct {
	Ward          string
	Alderperson   string
	OfficeAddress string
	WardPhone     string
}

// Merge combines a text-pass and a table-pass record. A non-empty table
// value always replaces the text value for the same field.
func Merge(text, table Fields) Fields {
	out := text
	if table.Ward != "" {
		out.Ward = table.Ward
	}
	if table.Alderperson != "" {
		out.Alderperson = table.Alderperson
	}
	if table.OfficeAddress != "" {
		out.OfficeAddress = table.OfficeAddress
	}
	if table.WardPhone != "" {
		out.WardPhone = table.WardPhone
	}
	return out
}

// RawExtraction is the extractor's output for one lookup.
type RawExtraction struct {
	Fields
	RawText string // first PreviewRunes runes of the visible text
	Found   bool   // Ward or Alderperson present
}

// Extract runs the text pass over text and the table pass over html, then
// merges them.
func Extract(text, html string) RawExtraction {
	f := Merge(TextPass(text), TablePass(html))
	return RawExtraction{
		Fields:  f,
		RawText: preview(text, PreviewRunes),
		Found:   f.Ward != "" || f.Alderperson != "",
	}
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
