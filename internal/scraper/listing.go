package scraper

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"insightdeal/dealworker/helpers"
	"insightdeal/dealworker/logger"
	apperrors "insightdeal/dealworker/pkg/errors"
	"insightdeal/dealworker/services/cache"
)

// ListingScraper is a config-driven scraper that reads a community's board
// listing and the content of individual posts.
type ListingScraper struct {
	URL       string
	CacheKey  string
	CacheSvc  cache.Service
	BlockTime time.Duration
	BaseURL   string

	community       string
	limit           int
	selectors       Selectors
	skipRow         RowFilter
	titleHandler    ElementHandler
	shippingHandler ElementHandler
	log             *logger.Logger
}

// NewListingScraper creates a scraper from its configuration.
func NewListingScraper(config ScraperConfig, cacheSvc cache.Service) *ListingScraper {
	return &ListingScraper{
		URL:             config.URL,
		CacheKey:        config.CacheKey,
		CacheSvc:        cacheSvc,
		BlockTime:       time.Duration(config.BlockTime) * time.Second,
		BaseURL:         config.BaseURL,
		community:       config.Community,
		limit:           config.Limit,
		selectors:       config.Selectors,
		skipRow:         config.SkipRow,
		titleHandler:    config.TitleHandler,
		shippingHandler: config.ShippingHandler,
		log:             logger.ForScraper(config.Community),
	}
}

// Community returns the community name.
func (s *ListingScraper) Community() string {
	return s.community
}

// fetchWithBlock fetches a URL unless the community's block key is set; a
// rate-limited response sets the key so later cycles back off.
func (s *ListingScraper) fetchWithBlock(pageURL string) (io.Reader, error) {
	if s.CacheSvc != nil && s.CacheKey != "" {
		if _, err := s.CacheSvc.Get(s.CacheKey); err == nil {
			return nil, apperrors.NewRateLimit(s.community, s.BlockTime)
		}
	}

	utf8Body, err := helpers.FetchWithRandomHeaders(pageURL)
	if err != nil {
		if s.CacheSvc != nil && s.CacheKey != "" && strings.HasPrefix(err.Error(), "rate limited") {
			s.CacheSvc.Set(s.CacheKey, []byte(fmt.Sprintf("%d", int(s.BlockTime/time.Second))), s.BlockTime)
		}
		return nil, err
	}
	return utf8Body, nil
}

// ListPosts fetches the board listing and extracts post candidates in page
// order.
func (s *ListingScraper) ListPosts() ([]PostCandidate, error) {
	body, err := s.fetchWithBlock(s.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, apperrors.NewParsing(s.community, "HTML 파싱 오류", err)
	}

	var candidates []PostCandidate
	doc.Find(s.selectors.PostList).EachWithBreak(func(i int, row *goquery.Selection) bool {
		if s.limit > 0 && len(candidates) >= s.limit {
			return false
		}
		if candidate := s.processRow(row); candidate != nil {
			candidates = append(candidates, *candidate)
		}
		return true
	})

	s.log.Debug().Int("count", len(candidates)).Msg("Collected post candidates")
	return candidates, nil
}

func (s *ListingScraper) processRow(row *goquery.Selection) *PostCandidate {
	if s.selectors.ClassFilter != "" && row.HasClass(s.selectors.ClassFilter) {
		return nil
	}
	if s.skipRow != nil && s.skipRow(row) {
		return nil
	}

	var title string
	if s.titleHandler != nil {
		title = strings.TrimSpace(s.titleHandler(row))
	} else {
		title = strings.TrimSpace(row.Find(s.selectors.Title).First().Text())
	}
	if title == "" {
		return nil
	}

	linkSel := row.Find(s.selectors.Link).First()
	href, exists := linkSel.Attr("href")
	if !exists {
		return nil
	}
	link := s.ResolveURL(strings.TrimSpace(href))
	if link == "" {
		return nil
	}

	candidate := &PostCandidate{
		Community: s.community,
		Title:     title,
		PostLink:  link,
	}

	if s.selectors.ListShop != "" {
		candidate.ListShop = strings.TrimSpace(row.Find(s.selectors.ListShop).First().Text())
	}
	if s.selectors.ListPrice != "" {
		candidate.ListPrice = strings.TrimSpace(row.Find(s.selectors.ListPrice).First().Text())
	}
	if s.shippingHandler != nil {
		candidate.ListShipping = strings.TrimSpace(s.shippingHandler(row))
	} else if s.selectors.ListShipping != "" {
		candidate.ListShipping = strings.TrimSpace(row.Find(s.selectors.ListShipping).First().Text())
	}
	if s.selectors.ListCategory != "" {
		candidate.ListCategory = strings.TrimSpace(row.Find(s.selectors.ListCategory).First().Text())
	}
	if s.selectors.Thumbnail != "" {
		if src, ok := row.Find(s.selectors.Thumbnail).First().Attr("src"); ok {
			candidate.Thumbnail = s.ResolveURL(strings.TrimSpace(src))
		}
	}

	return candidate
}

// FetchContent fetches a post page and returns the HTML of its content
// container. Posts without a recognizable body yield an empty string.
func (s *ListingScraper) FetchContent(postLink string) (string, error) {
	body, err := s.fetchWithBlock(postLink)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", apperrors.NewParsing(s.community, "HTML 파싱 오류", err)
	}

	content := doc.Find(s.selectors.Content).First()
	if content.Length() == 0 {
		return "", nil
	}
	html, err := goquery.OuterHtml(content)
	if err != nil {
		return "", apperrors.NewParsing(s.community, "본문 추출 오류", err)
	}
	return html, nil
}

// ResolveURL resolves a possibly relative URL against the scraper's base URL.
func (s *ListingScraper) ResolveURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
