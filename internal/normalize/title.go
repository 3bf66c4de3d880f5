package normalize

import (
	"regexp"
	"strings"
)

var (
	shopBracketRe   = regexp.MustCompile(`^\[(.*?)\]`)
	trailingParenRe = regexp.MustCompile(`\(([^)]+)\)$`)
	replyCountRe    = regexp.MustCompile(`\s*\(\d+\)$`)
)

// titleFreeKeywords treat a title as free shipping even without a matching
// parenthetical segment
var titleFreeKeywords = []string{"무배", "무료배송", "택배비 포함", "무료"}

// StripReplyCount removes the trailing "(N)" reply-count suffix boards append
// to listing titles.
func StripReplyCount(title string) string {
	return strings.TrimSpace(replyCountRe.ReplaceAllString(title, ""))
}

// ShopFromTitle extracts the leading bracketed shop token from a listing title
// and standardizes it.
func ShopFromTitle(title string) string {
	m := shopBracketRe.FindStringSubmatch(title)
	if m == nil {
		return UnknownInfo
	}
	return ShopName(m[1])
}

// PriceFromTitle extracts a canonical price from the trailing parenthesized
// group of a listing title, e.g. "(20,000원/무료)".
func PriceFromTitle(title string) string {
	m := trailingParenRe.FindStringSubmatch(title)
	if m == nil {
		return UnknownInfo
	}
	for _, part := range strings.Split(m[1], "/") {
		price := Price(part)
		if price != PriceVaries && price != UnknownInfo {
			return price
		}
	}
	return UnknownInfo
}

// ShippingFromTitle extracts a canonical shipping fee from a listing title,
// checking the trailing parenthesized group first and falling back to
// free-shipping keywords anywhere in the title.
func ShippingFromTitle(title string) string {
	if m := trailingParenRe.FindStringSubmatch(title); m != nil {
		for _, part := range strings.Split(m[1], "/") {
			fee := ShippingFee(part)
			if fee != UnknownInfo {
				return fee
			}
		}
	}
	for _, k := range titleFreeKeywords {
		if strings.Contains(title, k) {
			return FreeShipping
		}
	}
	return UnknownInfo
}
