package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ChannelSharingToggled      = "room_sharing.toggled"
	ChannelRequestTransitioned = "matching_request.transitioned"
)

type SharingToggled struct {
	Type           string    `json:"type"`
	RoomID         int       `json:"roomId"`
	SharingEnabled bool      `json:"sharingEnabled"`
	At             time.Time `json:"at"`
}

type RequestTransitioned struct {
	Type       string        `json:"type"`
	RequestID  string        `json:"requestId"`
	RoomID     int           `json:"roomId"`
	PosterID   int           `json:"posterId"`
	SeekerID   int           `json:"seekerId"`
	From       domain.Status `json:"from,omitempty"`
	To         domain.Status `json:"to"`
	ContractID *string       `json:"contractId,omitempty"`
	At         time.Time     `json:"at"`
}

// Publisher fans lifecycle events out on redis pub/sub for listing and
// notification consumers. Publishing never fails the caller.
type Publisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewPublisher(rdb *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, logger: logger}
}

func (p *Publisher) SharingToggled(ctx context.Context, room *domain.Room) {
	p.publish(ctx, ChannelSharingToggled, SharingToggled{
		Type:           ChannelSharingToggled,
		RoomID:         room.ID,
		SharingEnabled: room.SharingEnabled,
		At:             room.UpdatedAt,
	})
}

// RequestTransitioned announces a new request (from is empty) or a status change.
func (p *Publisher) RequestTransitioned(ctx context.Context, from domain.Status, req *domain.MatchingRequest) {
	p.publish(ctx, ChannelRequestTransitioned, RequestTransitioned{
		Type:       ChannelRequestTransitioned,
		RequestID:  req.ID,
		RoomID:     req.RoomID,
		PosterID:   req.PosterID,
		SeekerID:   req.SeekerID,
		From:       from,
		To:         req.Status,
		ContractID: req.ContractID,
		At:         req.UpdatedAt,
	})
}

func (p *Publisher) publish(ctx context.Context, channel string, payload any) {
	event, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("encode event failed", zap.String("channel", channel), zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, channel, event).Err(); err != nil {
		p.logger.Warn("publish event failed", zap.String("channel", channel), zap.Error(err))
	}
}
