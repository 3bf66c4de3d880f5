// Package normalize contains the pure string-to-canonical-string mappers the
// extraction pipeline relies on. Every function is total: any input, including
// the empty string, maps to a sentinel or a pattern-formatted value.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Sentinel values. A field is always stored/compared in one of these or a
// pattern-formatted value, never raw input.
const (
	UnknownInfo      = "정보 없음"
	PriceVaries      = "가격 상이"
	FreeShipping     = "무료"
	ShippingIncluded = "배송비 포함"
)

var (
	nonDigitRe    = regexp.MustCompile(`[^0-9]`)
	nonDollarRe   = regexp.MustCompile(`[^\d.]`)
	shippingSegRe = regexp.MustCompile(`[,()]`)
)

// freeShippingKeywords mark a shipping segment as free
var freeShippingKeywords = []string{"무료", "무배", "free"}

// shopAliases maps known spellings to a single canonical shop label. Ordered
// so that longer aliases win over their substrings.
var shopAliases = []struct {
	alias     string
	canonical string
}{
	{"알리익스프레스", "알리"},
	{"aliexpress", "알리"},
	{"알리", "알리"},
	{"네이버 스마트스토어", "네이버"},
	{"naver smartstore", "네이버"},
	{"스마트스토어", "네이버"},
	{"naver", "네이버"},
	{"g마켓", "G마켓"},
	{"gmarket", "G마켓"},
	{"옥션", "옥션"},
	{"auction", "옥션"},
	{"11번가", "11번가"},
	{"11st", "11번가"},
	{"쿠팡", "쿠팡"},
	{"coupang", "쿠팡"},
	{"롯데온", "롯데온"},
	{"lotteon", "롯데온"},
	{"티몬", "티몬"},
	{"tmon", "티몬"},
	{"costco", "Costco"},
	{"코스트코", "Costco"},
	{"wish", "Wish"},
}

// Price coerces a raw price string into its canonical form: "N,NNN원" for KRW,
// "$X.XX" for dollar amounts, or a sentinel when nothing usable remains.
func Price(input string) string {
	s := strings.TrimSpace(input)
	if s == "" || strings.Contains(s, UnknownInfo) || strings.Contains(s, "상이") {
		return PriceVaries
	}

	// Dollar prices: currency symbol or a decimal point without the 원 marker
	isDollar := (strings.Contains(s, "$") || strings.Contains(s, ".")) && !strings.Contains(s, "원")
	if isDollar {
		num := nonDollarRe.ReplaceAllString(s, "")
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			return "$" + strconv.FormatFloat(f, 'f', 2, 64)
		}
	}

	digits := nonDigitRe.ReplaceAllString(s, "")
	if digits == "" {
		return UnknownInfo
	}
	return groupDigits(digits) + "원"
}

// ShippingFee coerces a raw shipping string into 무료, 배송비 포함, the original
// numeric string, or the unknown sentinel.
func ShippingFee(input string) string {
	s := strings.TrimSpace(input)
	if s == "" || strings.Contains(s, UnknownInfo) {
		return UnknownInfo
	}
	for _, part := range shippingSegRe.Split(s, -1) {
		p := strings.ToLower(strings.TrimSpace(part))
		if strings.Contains(p, "포함") {
			return ShippingIncluded
		}
		for _, k := range freeShippingKeywords {
			if strings.Contains(p, k) {
				return FreeShipping
			}
		}
	}
	if (strings.Contains(s, "배송비") || strings.Contains(s, "착불")) && strings.ContainsAny(s, "0123456789") {
		return s
	}
	return UnknownInfo
}

// ShopName standardizes a shop name against the alias table, falling back to
// the trimmed input when no alias matches.
func ShopName(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return UnknownInfo
	}
	lower := strings.ToLower(s)
	for _, a := range shopAliases {
		if strings.Contains(lower, a.alias) {
			return a.canonical
		}
	}
	return s
}

// Text trims an arbitrary text field, substituting the unknown sentinel for
// empty input.
func Text(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return UnknownInfo
	}
	return s
}

// groupDigits inserts thousands separators into a bare digit string
func groupDigits(digits string) string {
	// Drop leading zeros the way integer parsing would
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	var b strings.Builder
	n := len(digits)
	for i, r := range digits {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
