package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TablePass reads two-column label/value rows from every table in html.
// Within the pass a later matching row overwrites an earlier one.
func TablePass(html string) Fields {
	var f Fields
	if strings.TrimSpace(html) == "" {
		return f
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return f
	}

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(cellText(cells.Eq(0)))
		value := cellText(cells.Eq(1))
		if value == "" {
			return
		}
		classify(&f, label, value)
	})
	return f
}

func classify(f *Fields, label, value string) {
	switch {
	case strings.Contains(label, "ward") &&
		!strings.Contains(label, "phone") && !strings.Contains(label, "address"):
		f.Ward = value
	case strings.Contains(label, "alderman") || strings.Contains(label, "alderwoman"):
		f.Alderperson = value
	case strings.Contains(label, "office") && strings.Contains(label, "address"):
		f.OfficeAddress = value
	case strings.Contains(label, "phone"):
		f.WardPhone = value
	}
}

// cellText returns the cell's text with runs of whitespace collapsed.
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
