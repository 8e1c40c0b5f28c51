package services

import (
	"context"

	"feynman-backend/internal/models"
)

// Publisher delivers realtime events to a user's open connections.
type Publisher interface {
	Publish(ctx context.Context, userID int64, msg models.WSMessage)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, int64, models.WSMessage) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
