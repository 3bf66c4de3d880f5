package ai

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var urlRe = regexp.MustCompile(`https?://[^\s<>"'()]+[^\s<>"'().,]`)

// ExtractLinks pulls every hyperlink target out of a post body, first via DOM
// traversal and then via a regex sweep for URLs the markup missed. Regex hits
// are deduplicated against DOM hits; original order is preserved. The model's
// own link extraction is unreliable, so these are passed along as hints.
func ExtractLinks(html string) []string {
	var links []string
	seen := make(map[string]bool)

	add := func(link string) {
		if link == "" || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			href = strings.TrimSpace(href)
			if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
				add(href)
			}
		})
	}

	for _, link := range urlRe.FindAllString(html, -1) {
		add(link)
	}

	return links
}
