package source

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Layout-fallback extraction: each field is tried against an ordered list of
// selectors spanning the historical page layouts of a source; the first
// non-empty result wins. Layout drift is an operational concern, handled by
// appending selectors, not a structural one.

// FirstText returns the trimmed text of the first selector that matches a
// non-empty element.
func FirstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// FirstAttr returns the trimmed attribute value of the first selector that
// matches an element carrying it.
func FirstAttr(doc *goquery.Document, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if val, ok := doc.Find(sel).First().Attr(attr); ok {
			if val = strings.TrimSpace(val); val != "" {
				return val
			}
		}
	}
	return ""
}

// FirstHTML returns the inner HTML of the first selector that matches a
// non-empty element.
func FirstHTML(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if html, err := node.Html(); err == nil {
			if html = strings.TrimSpace(html); html != "" {
				return html
			}
		}
	}
	return ""
}

// CollectText returns the trimmed text of every element matched by the first
// selector that yields any results.
func CollectText(doc *goquery.Document, selectors ...string) []string {
	for _, sel := range selectors {
		matches := doc.Find(sel)
		if matches.Length() == 0 {
			continue
		}
		var out []string
		matches.Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				out = append(out, text)
			}
		})
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
