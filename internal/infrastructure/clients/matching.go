package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type scoreRequest struct {
	SeekerID     int                        `json:"seekerId"`
	RoomID       int                        `json:"roomId"`
	PosterID     int                        `json:"posterId"`
	Requirements *domain.RequirementsRecord `json:"requirements"`
}

type scoreResponse struct {
	MatchScore *float64 `json:"matchScore"`
}

// MatchingClient asks the external engine for a compatibility score.
type MatchingClient struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewMatchingClient(opts Options, logger *zap.Logger) *MatchingClient {
	return &MatchingClient{http: newRestyClient(opts), logger: logger}
}

// Score returns a 0..100 score for the seeker against the poster's
// requirements. Fractional scores are rounded. A missing or out-of-range
// score is treated as an engine fault.
func (c *MatchingClient) Score(ctx context.Context, seekerID int, req *domain.RequirementsRecord) (int, error) {
	var out scoreResponse
	resp, err := call(c.logger, "matching", "score", func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBody(scoreRequest{
				SeekerID:     seekerID,
				RoomID:       req.RoomID,
				PosterID:     req.PosterID,
				Requirements: req,
			}).
			SetResult(&out).
			Post("/match-score")
	})
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, unexpectedStatus("matching", "score", resp)
	}

	if out.MatchScore == nil {
		return 0, domain.Transient("matching.score", fmt.Errorf("response carries no score"))
	}
	score := *out.MatchScore
	if score < 0 || score > 100 {
		return 0, domain.Transient("matching.score", fmt.Errorf("score %v out of range", score))
	}
	return int(score + 0.5), nil
}
