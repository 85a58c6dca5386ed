package clients

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// VerificationClient reads identity verification records.
type VerificationClient struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewVerificationClient(opts Options, logger *zap.Logger) *VerificationClient {
	return &VerificationClient{http: newRestyClient(opts), logger: logger}
}

// GetVerification returns the user's verified age and gender. A missing or
// unverified record yields domain.ErrVerificationRequired.
func (c *VerificationClient) GetVerification(ctx context.Context, userID int) (*domain.Verification, error) {
	var out domain.Verification
	resp, err := call(c.logger, "verification", "get", func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetPathParam("id", strconv.Itoa(userID)).
			SetResult(&out).
			Get("/users/{id}/verification")
	})
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrVerificationRequired
	default:
		return nil, unexpectedStatus("verification", "get", resp)
	}

	if !out.Verified || out.Age <= 0 || (out.Gender != domain.GenderMale && out.Gender != domain.GenderFemale) {
		return nil, domain.ErrVerificationRequired
	}
	out.UserID = userID
	return &out, nil
}
