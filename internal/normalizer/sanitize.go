package normalizer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// disallowedTags are removed wholesale, including their content.
const disallowedTags = "script, style, iframe, form, input, object, embed"

// SanitizeHTML strips active content from scraped HTML: script/style/iframe/
// form/input elements, inline on* event-handler attributes, and javascript:
// URLs. Returns the empty string for empty input, and the raw text when the
// input cannot be parsed as HTML.
func SanitizeHTML(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return trimmed
	}

	doc.Find(disallowedTags).Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		kept := node.Attr[:0]
		for _, attr := range node.Attr {
			key := strings.ToLower(attr.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if (key == "href" || key == "src") &&
				strings.HasPrefix(strings.ToLower(strings.TrimSpace(attr.Val)), "javascript:") {
				continue
			}
			kept = append(kept, attr)
		}
		node.Attr = kept
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return trimmed
	}
	return strings.TrimSpace(out)
}
