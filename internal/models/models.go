package models

import (
	"time"
)

// Community is static reference data for a scraped forum, seeded once.
type Community struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"size:50;unique;not null"`
	BaseURL string `json:"base_url" gorm:"size:255;not null"`

	Deals []Deal `json:"-" gorm:"foreignKey:SourceCommunityID"`
}

// Deal is one purchasable offer extracted from one community post. The pair
// (post_link, title) is unique: a second extraction attempt for the same post
// and cleaned title is a no-op. All deals from one post share a group_id
// derived from the post URL.
type Deal struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	SourceCommunityID uint      `json:"source_community_id" gorm:"not null;index"`
	Community         Community `json:"-" gorm:"foreignKey:SourceCommunityID"`
	Title             string    `json:"title" gorm:"size:500;not null;uniqueIndex:uniq_post_link_title,priority:2"`
	PostLink          string    `json:"post_link" gorm:"size:768;not null;uniqueIndex:uniq_post_link_title,priority:1"`
	EcommerceLink     *string   `json:"ecommerce_link" gorm:"size:2048"`
	ShopName          string    `json:"shop_name" gorm:"size:100"`
	Price             string    `json:"price" gorm:"size:100"`
	ShippingFee       string    `json:"shipping_fee" gorm:"size:100"`
	ImageURL          string    `json:"image_url" gorm:"size:2048"`
	Category          string    `json:"category" gorm:"size:100;default:'기타'"`
	IsClosed          bool      `json:"is_closed" gorm:"not null;default:false"`
	DealType          string    `json:"deal_type" gorm:"size:50;not null;default:'일반'"`
	ContentHTML       string    `json:"-" gorm:"type:text"`
	GroupID           string    `json:"group_id" gorm:"size:32;index"`
	HasOptions        bool      `json:"has_options" gorm:"not null;default:false"`
	OptionsData       string    `json:"options_data,omitempty" gorm:"type:text"`
	IndexedAt         time.Time `json:"indexed_at" gorm:"autoCreateTime"`

	PriceHistory []PriceHistory `json:"-" gorm:"foreignKey:DealID"`
}

// PriceHistory is an append-only log of price observations for a Deal. Rows
// are never mutated; old rows are removed only by the retention cleanup.
type PriceHistory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	DealID    uint      `json:"deal_id" gorm:"not null;index"`
	Deal      Deal      `json:"-" gorm:"foreignKey:DealID"`
	Price     string    `json:"price" gorm:"size:100;not null"`
	CheckedAt time.Time `json:"checked_at" gorm:"autoCreateTime"`
}
