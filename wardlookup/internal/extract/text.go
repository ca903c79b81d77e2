package extract

import (
	"regexp"
	"strings"
)

// Per field, patterns are tried in order and the first match wins. A
// labelled value runs to the end of the label's own line. The last phone
// pattern has no group: the whole match is the number.
var (
	wardPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Ward:\s*(\d+)`),
		regexp.MustCompile(`(?i)Ward\s+(\d+)`),
	}
	alderpersonPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Alderman:[ \t]*(.+)`),
		regexp.MustCompile(`(?i)Alderwoman:[ \t]*(.+)`),
		regexp.MustCompile(`(?i)Alderperson:[ \t]*(.+)`),
	}
	officePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Office Address:[ \t]*(.+)`),
	}
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Ward Phone:[ \t]*(.+)`),
		regexp.MustCompile(`\(\d{3}\)\s*\d{3}-\d{4}`),
	}
)

// TextPass matches the label patterns against the page's visible text.
func TextPass(text string) Fields {
	return Fields{
		Ward:          firstMatch(wardPatterns, text),
		Alderperson:   firstMatch(alderpersonPatterns, text),
		OfficeAddress: firstMatch(officePatterns, text),
		WardPhone:     firstMatch(phonePatterns, text),
	}
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := m[0]
		if len(m) > 1 {
			v = m[1]
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
