package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"insightdeal/dealworker/internal/models"
	"insightdeal/dealworker/internal/normalize"
	"insightdeal/dealworker/logger"
)

// DefaultCommunities is the static community list seeded at startup.
var DefaultCommunities = []models.Community{
	{Name: "뽐뿌", BaseURL: "https://www.ppomppu.co.kr"},
	{Name: "뽐뿌해외", BaseURL: "https://www.ppomppu.co.kr"},
	{Name: "클리앙", BaseURL: "https://www.clien.net"},
	{Name: "펨코", BaseURL: "https://www.fmkorea.com"},
	{Name: "루리웹", BaseURL: "https://bbs.ruliweb.com"},
	{Name: "퀘이사존", BaseURL: "https://quasarzone.com"},
}

// Store is the persistence adapter. It owns the decision of whether a
// constructed Deal is actually written (the duplicate check) and all
// price-history row creation.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// New creates a Store around an open gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{
		db:  db,
		log: logger.ForComponent("store"),
	}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&models.Community{}, &models.Deal{}, &models.PriceHistory{})
}

// SeedCommunities inserts the static community list, skipping rows that
// already exist.
func (s *Store) SeedCommunities(communities []models.Community) error {
	for _, c := range communities {
		var existing models.Community
		err := s.db.Where("name = ?", c.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.db.Create(&c).Error; err != nil {
			return err
		}
		s.log.Info().Str("community", c.Name).Msg("Seeded community")
	}
	return nil
}

// CommunityByName looks up a community by its seeded name.
func (s *Store) CommunityByName(name string) (*models.Community, error) {
	var c models.Community
	if err := s.db.Where("name = ?", name).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveDeals writes finalized deals idempotently. A deal whose (post_link,
// title) pair already exists is not re-inserted; when the re-scraped price
// differs from the stored one, a fresh price observation is appended instead.
// Each inserted deal gets one PriceHistory row. Returns the deals that were
// actually inserted.
func (s *Store) SaveDeals(deals []models.Deal) ([]models.Deal, error) {
	var inserted []models.Deal
	for i := range deals {
		deal := deals[i]

		var existing models.Deal
		err := s.db.Select("id", "price").
			Where("post_link = ? AND title = ?", deal.PostLink, deal.Title).
			Take(&existing).Error
		if err == nil {
			if deal.Price != existing.Price && deal.Price != normalize.UnknownInfo {
				if err := s.RecordPrice(existing.ID, deal.Price); err != nil {
					return inserted, err
				}
				s.log.Info().Str("title", deal.Title).Str("price", deal.Price).
					Msg("Recorded price change for existing deal")
			} else {
				s.log.Debug().Str("title", deal.Title).Msg("Skipping duplicate deal")
			}
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return inserted, err
		}

		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&deal).Error; err != nil {
				return err
			}
			history := models.PriceHistory{DealID: deal.ID, Price: deal.Price}
			return tx.Create(&history).Error
		})
		if err != nil {
			// Concurrent scrapers can race past the check above; the unique
			// index is the safety net and a duplicate insert is still a skip.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				s.log.Debug().Str("title", deal.Title).Msg("Lost duplicate race, skipping")
				continue
			}
			return inserted, err
		}
		inserted = append(inserted, deal)
	}
	return inserted, nil
}

// RecordPrice appends a price observation for an existing deal and refreshes
// the deal's current price to the latest value.
func (s *Store) RecordPrice(dealID uint, price string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		history := models.PriceHistory{DealID: dealID, Price: price}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		return tx.Model(&models.Deal{}).Where("id = ?", dealID).
			Update("price", price).Error
	})
}

// CleanupPriceHistory deletes history rows older than the retention window.
func (s *Store) CleanupPriceHistory(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res := s.db.Where("checked_at < ?", cutoff).Delete(&models.PriceHistory{})
	return res.RowsAffected, res.Error
}

// DealFilter narrows the deal listing query.
type DealFilter struct {
	CommunityID uint
	Category    string
}

// Deals returns a page of deals, newest first.
func (s *Store) Deals(offset, limit int, filter DealFilter) ([]models.Deal, error) {
	q := s.db.Model(&models.Deal{})
	if filter.CommunityID != 0 {
		q = q.Where("source_community_id = ?", filter.CommunityID)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	var deals []models.Deal
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&deals).Error
	return deals, err
}

// DealByID returns a single deal or gorm.ErrRecordNotFound.
func (s *Store) DealByID(id uint) (*models.Deal, error) {
	var deal models.Deal
	if err := s.db.First(&deal, id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// DealsByGroup returns every sub-deal that shares a post's group id.
func (s *Store) DealsByGroup(groupID string) ([]models.Deal, error) {
	var deals []models.Deal
	err := s.db.Where("group_id = ?", groupID).Order("id ASC").Find(&deals).Error
	return deals, err
}

// Communities returns the seeded community list.
func (s *Store) Communities() ([]models.Community, error) {
	var communities []models.Community
	err := s.db.Order("id ASC").Find(&communities).Error
	return communities, err
}

// HistoryByDeal returns a page of price observations for one deal, oldest
// first.
func (s *Store) HistoryByDeal(dealID uint, offset, limit int) ([]models.PriceHistory, error) {
	var history []models.PriceHistory
	err := s.db.Where("deal_id = ?", dealID).
		Order("checked_at ASC").Offset(offset).Limit(limit).
		Find(&history).Error
	return history, err
}
