package publisher

import (
	"insightdeal/dealworker/internal/models"
)

// Publisher pushes newly persisted deals to downstream consumers (push
// notification worker, frontend feed refresher).
type Publisher interface {
	// PublishDeals publishes a batch of freshly inserted deals for one
	// community.
	PublishDeals(community string, deals []models.Deal) error

	// TrimStreams trims all streams to the configured maximum length.
	TrimStreams() error

	// Close closes the publisher connection.
	Close() error
}
