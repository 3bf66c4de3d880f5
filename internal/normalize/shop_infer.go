package normalize

import (
	"net/url"
	"strings"
)

// domainShops maps e-commerce hostnames to canonical shop labels. Checked as
// suffix/substring so subdomains and country variants match.
var domainShops = []struct {
	domain string
	shop   string
}{
	{"smartstore.naver.com", "네이버"},
	{"shopping.naver.com", "네이버"},
	{"naver.com", "네이버"},
	{"coupang.com", "쿠팡"},
	{"aliexpress.com", "알리"},
	{"11st.co.kr", "11번가"},
	{"gmarket.co.kr", "G마켓"},
	{"auction.co.kr", "옥션"},
	{"lotteon.com", "롯데온"},
	{"tmon.co.kr", "티몬"},
	{"costco.co.kr", "Costco"},
	{"wish.com", "Wish"},
}

// benefitKeywords are coupon/card-issuer names checked before general
// marketplace keywords when inferring a shop from free text.
var benefitKeywords = []struct {
	keyword string
	shop    string
}{
	{"카카오페이", "카카오페이"},
	{"네이버페이", "네이버페이"},
	{"토스", "토스"},
	{"페이코", "페이코"},
	{"삼성카드", "삼성카드"},
	{"현대카드", "현대카드"},
	{"신한카드", "신한카드"},
}

// ShopFromLink infers a canonical shop label from an e-commerce URL's domain.
func ShopFromLink(rawURL string) string {
	if strings.TrimSpace(rawURL) == "" {
		return UnknownInfo
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return UnknownInfo
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domainShops {
		if host == d.domain || strings.HasSuffix(host, "."+d.domain) {
			return d.shop
		}
	}
	return UnknownInfo
}

// ShopFromText infers a shop label from combined title+body text. Coupon and
// card-issuer keywords are checked before marketplace names: a "카카오페이 X 쿠폰"
// post is a 카카오페이 benefit even when it names a marketplace.
func ShopFromText(text string) string {
	if strings.TrimSpace(text) == "" {
		return UnknownInfo
	}
	for _, b := range benefitKeywords {
		if strings.Contains(text, b.keyword) {
			return b.shop
		}
	}
	lower := strings.ToLower(text)
	for _, a := range shopAliases {
		if strings.Contains(lower, a.alias) {
			return a.canonical
		}
	}
	return UnknownInfo
}
