package ai

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"insightdeal/dealworker/internal/normalize"
	"insightdeal/dealworker/logger"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	bareJSONRe   = regexp.MustCompile(`(?s)\{.*\}`)
	bareWonRe    = regexp.MustCompile(`^\d+원$`)
	digitsRe     = regexp.MustCompile(`\d+`)
)

// maxFallbackTitleLen caps the synthetic fallback deal's title
const maxFallbackTitleLen = 100

// Parser turns unstructured post bodies into structured deal candidates via
// the injected Generator. ParseContent never fails: malformed model output
// degrades to a fallback deal built from the pre-extracted links.
type Parser struct {
	gen Generator
	log *logger.Logger
}

// NewParser creates a Parser around a Generator.
func NewParser(gen Generator) *Parser {
	return &Parser{
		gen: gen,
		log: logger.ForComponent("ai"),
	}
}

// ParseContent analyzes one post body and returns the post-level shop guess
// plus zero or more deal candidates in body order. The returned Result is
// never nil.
func (p *Parser) ParseContent(ctx context.Context, originalTitle, contentHTML, postLink string) *Result {
	links := ExtractLinks(contentHTML)

	raw, err := p.gen.Generate(ctx, buildContentPrompt(originalTitle, contentHTML, postLink, links))
	if err != nil {
		p.log.Warn().Err(err).Str("post", postLink).Msg("Model call failed, using fallback deal")
		return fallbackResult(links, originalTitle)
	}

	jsonStr, ok := extractJSON(raw)
	if !ok {
		p.log.Warn().Str("post", postLink).Msg("No JSON object in model response, using fallback deal")
		return fallbackResult(links, originalTitle)
	}

	var result Result
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		p.log.Warn().Err(err).Str("post", postLink).Msg("Model JSON unparseable, using fallback deal")
		return fallbackResult(links, originalTitle)
	}

	for i := range result.Deals {
		deal := &result.Deals[i]

		if deal.DealType == "" {
			deal.DealType = DealStandard
		}

		// 제목이 달러 표기인데 모델이 원화로 답한 경우 교정
		if foreignCurrencyTitle(originalTitle) && bareWonRe.MatchString(deal.Price) {
			deal.Price = "$" + digitsRe.FindString(deal.Price)
		}

		// 링크가 비어 있으면 본문에서 추출한 첫 링크로 보충
		if deal.EcommerceLink == "" && len(links) > 0 {
			deal.EcommerceLink = links[0]
		}
	}

	p.log.Debug().Int("deals", len(result.Deals)).Str("post", postLink).Msg("Model extraction complete")
	return &result
}

// ParseTitle runs the lightweight title-only classification round trip.
// Returns nil when the model fails; the caller falls back to defaults.
func (p *Parser) ParseTitle(ctx context.Context, title string) *TitleInfo {
	raw, err := p.gen.Generate(ctx, buildTitlePrompt(title))
	if err != nil {
		p.log.Warn().Err(err).Msg("Title classification failed")
		return nil
	}

	jsonStr, ok := extractJSON(raw)
	if !ok {
		return nil
	}

	var info TitleInfo
	if err := json.Unmarshal([]byte(jsonStr), &info); err != nil {
		return nil
	}

	if !ValidCategory(info.Category) {
		info.Category = "기타"
	}
	return &info
}

// extractJSON scans a raw model response for a fenced ```json block first,
// then for any brace-delimited object. First match wins.
func extractJSON(raw string) (string, bool) {
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if m := bareJSONRe.FindString(raw); m != "" {
		return m, true
	}
	return "", false
}

// foreignCurrencyTitle reports whether the listing title signals a non-KRW
// price.
func foreignCurrencyTitle(title string) bool {
	return strings.Contains(title, "달러") || strings.Contains(title, "$")
}

// fallbackResult builds the degenerate single-deal result used when the model
// response is unusable. With no links available it yields zero deals.
func fallbackResult(links []string, originalTitle string) *Result {
	if len(links) == 0 {
		return &Result{ShopName: normalize.UnknownInfo, Deals: nil}
	}

	title := originalTitle
	if runes := []rune(title); len(runes) > maxFallbackTitleLen {
		title = string(runes[:maxFallbackTitleLen])
	}

	return &Result{
		ShopName: normalize.UnknownInfo,
		Deals: []Deal{{
			ProductTitle:  title,
			Price:         normalize.UnknownInfo,
			ShippingFee:   normalize.UnknownInfo,
			EcommerceLink: links[0],
			IsClosed:      false,
			DealType:      DealStandard,
		}},
	}
}
