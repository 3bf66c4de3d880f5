package ai

import (
	"encoding/json"
	"strings"
)

// DealType tags a deal candidate with its archetype. The model is instructed
// to emit one of these tags; anything unrecognized degrades to DealStandard.
type DealType string

const (
	// DealStandard is a single item at a single price
	DealStandard DealType = "일반"
	// DealOptions is one base product with size/color variants collapsed into
	// a single deal priced "starting at ~"
	DealOptions DealType = "옵션"
	// DealCoupon is a coupon/discount benefit rather than a purchase price
	DealCoupon DealType = "쿠폰"
	// DealPreorder is a pre-order listing
	DealPreorder DealType = "사전예약"
	// DealSoldOut is an already closed/sold-out listing
	DealSoldOut DealType = "품절"
	// DealEvent is a point-reward or participation event
	DealEvent DealType = "이벤트"
	// DealInfo is a multi-link promotional announcement collapsed into a
	// single event-style deal
	DealInfo DealType = "안내"
)

// ParseDealType normalizes a model-emitted tag into a known DealType.
func ParseDealType(s string) DealType {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "옵션", "options":
		return DealOptions
	case "쿠폰", "coupon", "discount":
		return DealCoupon
	case "사전예약", "preorder", "pre-order":
		return DealPreorder
	case "품절", "soldout", "sold-out":
		return DealSoldOut
	case "이벤트", "event", "reward":
		return DealEvent
	case "안내", "info", "informational":
		return DealInfo
	default:
		return DealStandard
	}
}

// UnmarshalJSON accepts whatever tag spelling the model produced.
func (d *DealType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = ParseDealType(s)
	return nil
}

// Deal is one structured deal candidate extracted from a post body.
type Deal struct {
	ProductTitle  string   `json:"product_title"`
	Price         string   `json:"price"`
	ShippingFee   string   `json:"shipping_fee"`
	EcommerceLink string   `json:"ecommerce_link"`
	IsClosed      bool     `json:"is_closed"`
	DealType      DealType `json:"deal_type"`
	Options       string   `json:"options,omitempty"`
}

// Result is the model's full answer for one post: a post-level shop-name
// guess plus zero or more deal candidates, in body order.
type Result struct {
	ShopName string `json:"shop_name"`
	// Post-level shipping guess; most responses carry shipping per deal, but
	// some models emit it once for the whole post.
	ShippingFee string `json:"shipping_fee,omitempty"`
	Deals       []Deal `json:"deals"`
}

// TitleInfo is the lightweight title-only classification result. The model
// answers with shop and product-name fields too, but category is the only
// signal consumed downstream; shop and shipping come from the stronger body
// extraction and the title scan.
type TitleInfo struct {
	Category string `json:"category"`
}

// Categories is the closed category list the title classifier may choose from.
var Categories = []string{
	"디지털/가전", "PC/하드웨어", "음식/식품", "의류/패션", "생활/잡화",
	"모바일/상품권", "패키지/이용권", "적립/이벤트", "기타", "해외핫딜", "알리익스프레스",
}

// ValidCategory reports whether c is in the closed category list.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}
