package scraper

import "github.com/PuerkitoBio/goquery"

// PostCandidate is one listing row, collected before any detail-page work.
// The List* fields are hints read off the board listing itself; they take
// precedence over AI output later in the pipeline.
type PostCandidate struct {
	Community    string `json:"community"`
	Title        string `json:"title"`
	PostLink     string `json:"post_link"`
	ListShop     string `json:"list_shop,omitempty"`
	ListPrice    string `json:"list_price,omitempty"`
	ListShipping string `json:"list_shipping,omitempty"`
	ListCategory string `json:"list_category,omitempty"`
	Thumbnail    string `json:"thumbnail,omitempty"`
}

// Scraper is the contract every community scraper implements.
type Scraper interface {
	// ListPosts retrieves the current board listing, newest first.
	ListPosts() ([]PostCandidate, error)

	// FetchContent retrieves the content HTML of a single post. An empty
	// string with a nil error means the post had no recognizable body.
	FetchContent(postLink string) (string, error)

	// Community returns the community name for logging and persistence.
	Community() string
}

// ElementHandler customizes extraction for a single listing row element.
type ElementHandler func(*goquery.Selection) string

// RowFilter reports whether a listing row should be skipped entirely.
type RowFilter func(*goquery.Selection) bool

// Selectors contains the CSS selectors for one community's board markup.
type Selectors struct {
	PostList     string
	Title        string
	Link         string
	Thumbnail    string
	ListShop     string
	ListPrice    string
	ListShipping string
	ListCategory string
	Content      string
	ClassFilter  string
}

// ScraperConfig configures one ListingScraper.
type ScraperConfig struct {
	URL       string
	CacheKey  string
	BlockTime int
	BaseURL   string
	Community string
	Limit     int
	Selectors Selectors

	// Optional row-level overrides
	SkipRow         RowFilter
	TitleHandler    ElementHandler
	ShippingHandler ElementHandler
}
