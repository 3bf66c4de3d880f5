package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"insightdeal/dealworker/config"
	"insightdeal/dealworker/services/cache"
)

const defaultBlockTime = 500

var quasarReplyCountRe = regexp.MustCompile(`\s*댓글\s*\[\d+\]$`)

// Registry builds the full set of community scrapers. The set is static;
// adding a community means adding a config here.
func Registry(cfg *config.Config, cacheSvc cache.Service) []Scraper {
	configurations := []ScraperConfig{
		{
			// 뽐뿌 (뽐뿌게시판)
			URL:       cfg.PpomURL,
			CacheKey:  "ppomppu_rate_limited",
			BlockTime: defaultBlockTime,
			BaseURL:   "https://www.ppomppu.co.kr/zboard/",
			Community: "뽐뿌",
			Limit:     cfg.ScrapeLimit,
			Selectors: Selectors{
				PostList:     "#revolution_main_table tbody tr.baseList",
				Title:        "a.baseList-title",
				Link:         "a.baseList-title",
				Thumbnail:    "a.baseList-thumb img",
				ListShipping: "span.baseList-ship",
				Content:      "td.board-contents",
			},
			SkipRow:         skipPpomGeneral,
			ShippingHandler: ppomShippingHandler,
		},
		{
			// 뽐뿌 해외포럼
			URL:       cfg.PpomEnURL,
			CacheKey:  "ppomppu_en_rate_limited",
			BlockTime: defaultBlockTime,
			BaseURL:   "https://www.ppomppu.co.kr/zboard/",
			Community: "뽐뿌해외",
			Limit:     cfg.ScrapeLimit,
			Selectors: Selectors{
				PostList:     "#revolution_main_table tbody tr.baseList",
				Title:        "a.baseList-title",
				Link:         "a.baseList-title",
				Thumbnail:    "a.baseList-thumb img",
				ListShipping: "span.baseList-ship",
				Content:      "td.board-contents",
			},
			SkipRow:         skipPpomGeneral,
			ShippingHandler: ppomShippingHandler,
		},
		{
			// 클리앙 알뜰구매
			URL:       cfg.ClienURL,
			CacheKey:  "clien_rate_limited",
			BlockTime: defaultBlockTime,
			BaseURL:   "https://www.clien.net",
			Community: "클리앙",
			Limit:     cfg.ScrapeLimit,
			Selectors: Selectors{
				PostList:  "div.list_item.symph_row",
				Title:     "a[data-role='list-title-text']",
				Link:      "a[data-role='list-title-text']",
				Thumbnail: "div.list_img a.list_thumbnail img",
				Content:   "td.board-contents, div.view_content",
			},
			// 품절 게시물 제외
			SkipRow: func(row *goquery.Selection) bool {
				soldOut := row.Find("span.icon_info").First()
				return soldOut.Length() > 0 && strings.Contains(soldOut.Text(), "품절")
			},
		},
		{
			// 에펨코리아 핫딜
			URL:       cfg.FMKoreaURL,
			CacheKey:  "fmkorea_rate_limited",
			BlockTime: defaultBlockTime,
			BaseURL:   "https://www.fmkorea.com",
			Community: "펨코",
			Limit:     cfg.ScrapeLimit,
			Selectors: Selectors{
				PostList:  "ul li.li",
				Title:     "h3.title a",
				Link:      "h3.title a",
				Thumbnail: "a img.thumb",
				Content:   "td.board-contents, div.view_content",
			},
		},
		{
			// 루리웹 예판/핫딜
			URL:       cfg.RuliwebURL,
			CacheKey:  "ruliweb_rate_limited",
			BlockTime: defaultBlockTime,
			BaseURL:   "https://bbs.ruliweb.com",
			Community: "루리웹",
			Limit:     cfg.ScrapeLimit,
			Selectors: Selectors{
				PostList:     "tr.table_body.normal",
				Title:        "a.subject_link, span.subject",
				Link:         "a.subject_link, a.board_list_item",
				Thumbnail:    "a.thumbnail img",
				ListCategory: "td.divsn a, span.divsn",
				Content:      "td.board-contents, div.view_content",
			},
		},
		{
			// 퀘이사존 지름/할인정보
			URL:       cfg.QuasarURL,
			CacheKey:  "quasar_rate_limited",
			BlockTime: defaultBlockTime,
			BaseURL:   "https://quasarzone.com",
			Community: "퀘이사존",
			Limit:     cfg.ScrapeLimit,
			Selectors: Selectors{
				PostList:     "div.market-type-list table tbody tr",
				Title:        "p.tit a.subject-link",
				Link:         "p.tit a.subject-link",
				Thumbnail:    "div.thumb-wrap a.thumb img",
				ListShop:     "span.brand",
				ListPrice:    "span.text-orange",
				ListCategory: "span.category",
				Content:      "td.board-contents, div.view_content",
				ClassFilter:  "notice",
			},
			TitleHandler: func(row *goquery.Selection) string {
				raw := row.Find("p.tit a.subject-link").First().Text()
				return quasarReplyCountRe.ReplaceAllString(strings.TrimSpace(raw), "")
			},
			ShippingHandler: quasarShippingHandler,
		},
	}

	scrapers := make([]Scraper, 0, len(configurations))
	for _, sc := range configurations {
		scrapers = append(scrapers, NewListingScraper(sc, cacheSvc))
	}
	return scrapers
}

// skipPpomGeneral drops rows the board marks as [일반] chatter.
func skipPpomGeneral(row *goquery.Selection) bool {
	tag := row.Find("small.baseList-small").First()
	return tag.Length() > 0 && strings.Contains(tag.Text(), "[일반]")
}

// ppomShippingHandler reads the listing shipping badge; a bare number means
// won.
func ppomShippingHandler(row *goquery.Selection) string {
	fee := strings.TrimSpace(row.Find("span.baseList-ship").First().Text())
	if fee == "" {
		return ""
	}
	if isDigits(fee) {
		return fee + "원"
	}
	return fee
}

// quasarShippingHandler finds the row span that carries the 배송비 label and
// strips the label off.
func quasarShippingHandler(row *goquery.Selection) string {
	var fee string
	row.Find("span").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if strings.Contains(text, "배송비") {
			fee = strings.TrimSpace(strings.ReplaceAll(text, "배송비", ""))
			return false
		}
		return true
	})
	return fee
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
