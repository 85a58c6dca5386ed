package clients

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ListingClient fetches display data for rooms.
type ListingClient struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewListingClient(opts Options, logger *zap.Logger) *ListingClient {
	return &ListingClient{http: newRestyClient(opts), logger: logger}
}

func (c *ListingClient) RoomSummary(ctx context.Context, roomID int) (*domain.RoomSummary, error) {
	var out domain.RoomSummary
	resp, err := call(c.logger, "listing", "room_summary", func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetPathParam("id", strconv.Itoa(roomID)).
			SetResult(&out).
			Get("/rooms/{id}/summary")
	})
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return &out, nil
	case http.StatusNotFound:
		return nil, domain.ErrRoomNotFound
	}
	return nil, unexpectedStatus("listing", "room_summary", resp)
}
