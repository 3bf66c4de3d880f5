package pipeline

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"insightdeal/dealworker/internal/ai"
	"insightdeal/dealworker/internal/imagecache"
	"insightdeal/dealworker/internal/models"
	"insightdeal/dealworker/internal/normalize"
	"insightdeal/dealworker/internal/scraper"
	"insightdeal/dealworker/logger"
	apperrors "insightdeal/dealworker/pkg/errors"
)

// priceOverrideMarkers in an AI price string mean the title parenthetical was
// not actually a price, so the AI value wins.
var priceOverrideMarkers = []string{"할인", "쿠폰", "~", "N/A", "적립"}

// decorativeImageMarkers filter out emoji and board furniture when picking a
// post's representative image.
var decorativeImageMarkers = []string{"emoticon", "icon"}

// ContentFetcher retrieves the content HTML of a post.
type ContentFetcher func(postLink string) (string, error)

// Engine turns one post candidate into zero or more finalized Deal records by
// fusing listing hints, title-derived fields, AI extraction and the image/OCR
// side-channel.
type Engine struct {
	parser   *ai.Parser
	images   *imagecache.Cache
	resolver Resolver
	log      *logger.Logger
}

// New creates a reconciliation engine.
func New(parser *ai.Parser, images *imagecache.Cache, resolver Resolver) *Engine {
	return &Engine{
		parser:   parser,
		images:   images,
		resolver: resolver,
		log:      logger.ForComponent("pipeline"),
	}
}

// ProcessPost runs the full per-post state machine: title scan, AI scan,
// per-candidate fusion, dedup, image assignment. Missing fields degrade to
// sentinels; only a fetch failure or an empty AI result stops the post.
func (e *Engine) ProcessPost(ctx context.Context, communityID uint, candidate scraper.PostCandidate, fetchContent ContentFetcher) PostResult {
	title := normalize.StripReplyCount(candidate.Title)
	log := e.log.WithField("post_link", candidate.PostLink)
	log.Debug().Str("title", title).Msg("Processing post")

	contentHTML, err := fetchContent(candidate.PostLink)
	if err != nil {
		return failed(candidate, apperrors.NewNetwork(candidate.Community, "본문 조회 실패", err))
	}

	// Title-derived fields
	titleShop := normalize.ShopFromTitle(title)
	titlePrice := normalize.PriceFromTitle(title)
	titleShipping := e.listingShipping(candidate, title)

	// 목록 카테고리가 있으면 그대로 쓰고, 없을 때만 분류 모델을 부른다
	category := "기타"
	if hint := strings.TrimSpace(candidate.ListCategory); hint != "" {
		category = hint
	} else if info := e.parser.ParseTitle(ctx, title); info != nil {
		category = info.Category
	}

	aiResult := e.parser.ParseContent(ctx, title, contentHTML, candidate.PostLink)
	if len(aiResult.Deals) == 0 {
		return skipped(candidate, "AI 추출 결과 없음")
	}

	bodyDoc, _ := goquery.NewDocumentFromReader(strings.NewReader(contentHTML))
	representativeImage := e.representativeImage(candidate, bodyDoc)
	combinedText := title
	if bodyDoc != nil {
		combinedText += "\n" + bodyDoc.Text()
	}

	sum := md5.Sum([]byte(candidate.PostLink))
	groupID := hex.EncodeToString(sum[:])

	var deals []models.Deal
	seenTitles := make(map[string]bool)
	for _, item := range aiResult.Deals {
		productTitle := normalize.Text(item.ProductTitle)
		if seenTitles[productTitle] {
			continue
		}
		seenTitles[productTitle] = true

		ecommerceLink := e.resolveLink(item.EcommerceLink)

		shipping := titleShipping
		ocrNeeded := shipping == normalize.UnknownInfo && item.DealType == ai.DealStandard
		imageURL, _, ocrText := e.images.FetchAndCache(representativeImage, ocrNeeded)
		if ocrNeeded && containsFreeShipping(ocrText) {
			shipping = normalize.FreeShipping
		}
		if shipping == normalize.UnknownInfo {
			shipping = normalize.ShippingFee(item.ShippingFee)
		}
		if shipping == normalize.UnknownInfo && aiResult.ShippingFee != "" {
			shipping = normalize.ShippingFee(aiResult.ShippingFee)
		}

		price := e.fusePrice(candidate, titlePrice, item.Price)
		shop := e.fuseShop(candidate, titleShop, aiResult.ShopName, ecommerceLink, combinedText)

		deal := models.Deal{
			SourceCommunityID: communityID,
			Title:             productTitle,
			PostLink:          candidate.PostLink,
			ShopName:          shop,
			Price:             price,
			ShippingFee:       shipping,
			ImageURL:          imageURL,
			Category:          category,
			IsClosed:          item.IsClosed,
			DealType:          string(item.DealType),
			ContentHTML:       contentHTML,
			GroupID:           groupID,
			HasOptions:        item.Options != "",
			OptionsData:       item.Options,
		}
		if ecommerceLink != "" {
			deal.EcommerceLink = &ecommerceLink
		}
		deals = append(deals, deal)
	}

	log.Debug().Int("deals", len(deals)).Msg("Post reconciled")
	return PostResult{Candidate: candidate, Deals: deals}
}

// listingShipping fuses the list-row shipping hint with the title-derived
// value; the hint wins when it resolves to something known.
func (e *Engine) listingShipping(candidate scraper.PostCandidate, title string) string {
	if candidate.ListShipping != "" {
		if fee := normalize.ShippingFee(candidate.ListShipping); fee != normalize.UnknownInfo {
			return fee
		}
	}
	return normalize.ShippingFromTitle(title)
}

// fusePrice implements the title-wins price policy: the title (or list-row)
// price holds unless it is a sentinel or the raw AI price carries a
// discount/coupon/range marker, in which case the AI price takes over; if the
// AI price itself normalizes to a sentinel, fall back to the title price.
func (e *Engine) fusePrice(candidate scraper.PostCandidate, titlePrice, aiPriceRaw string) string {
	code := titlePrice
	if candidate.ListPrice != "" {
		if p := normalize.Price(candidate.ListPrice); !priceSentinel(p) {
			code = p
		}
	}

	price := code
	if priceSentinel(price) || containsAny(aiPriceRaw, priceOverrideMarkers) {
		price = aiPrice(aiPriceRaw)
	}
	if priceSentinel(price) {
		price = code
	}
	return price
}

// aiPrice normalizes a model-emitted price string. A percentage is a discount
// rate, not a price; "40% 할인" must never collapse into "40원".
func aiPrice(raw string) string {
	if strings.Contains(raw, "%") {
		return normalize.UnknownInfo
	}
	return normalize.Price(raw)
}

// fuseShop walks the shop precedence chain: list row, title bracket, AI post
// guess, link domain, then keyword inference over title+body text.
func (e *Engine) fuseShop(candidate scraper.PostCandidate, titleShop, aiShop, ecommerceLink, combinedText string) string {
	shop := normalize.UnknownInfo
	if candidate.ListShop != "" {
		shop = normalize.ShopName(candidate.ListShop)
	}
	if shop == normalize.UnknownInfo {
		shop = titleShop
	}
	if shop == normalize.UnknownInfo && aiShop != "" {
		shop = normalize.ShopName(aiShop)
	}
	if shop == normalize.UnknownInfo && ecommerceLink != "" {
		shop = normalize.ShopFromLink(ecommerceLink)
	}
	if shop == normalize.UnknownInfo {
		shop = normalize.ShopFromText(combinedText)
	}
	return shop
}

// resolveLink repairs, decodes and follows the AI-supplied link. Empty in,
// empty out.
func (e *Engine) resolveLink(rawLink string) string {
	if strings.TrimSpace(rawLink) == "" {
		return ""
	}
	if e.resolver == nil {
		return DecodeTarget(RepairURL(rawLink))
	}
	return e.resolver.Resolve(rawLink)
}

// representativeImage picks one image for the whole post: the listing
// thumbnail when present, else the first body image that is not board
// furniture.
func (e *Engine) representativeImage(candidate scraper.PostCandidate, bodyDoc *goquery.Document) string {
	if candidate.Thumbnail != "" {
		return candidate.Thumbnail
	}
	if bodyDoc == nil {
		return ""
	}

	base, _ := url.Parse(candidate.PostLink)
	var found string
	bodyDoc.Find("img").EachWithBreak(func(i int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			if src, ok = img.Attr("lazy_src"); !ok || src == "" {
				if src, ok = img.Attr("data-original"); !ok || src == "" {
					return true
				}
			}
		}
		if containsAny(strings.ToLower(src), decorativeImageMarkers) {
			return true
		}
		if base != nil {
			if ref, err := url.Parse(src); err == nil {
				src = base.ResolveReference(ref).String()
			}
		}
		found = src
		return false
	})
	return found
}

func priceSentinel(p string) bool {
	return p == normalize.UnknownInfo || p == normalize.PriceVaries
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func containsFreeShipping(ocrText string) bool {
	return strings.Contains(ocrText, "무료배송") || strings.Contains(ocrText, "무료 배송")
}
