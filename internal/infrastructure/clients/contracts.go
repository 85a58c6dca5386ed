package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type createContractRequest struct {
	RequestID      string    `json:"requestId"`
	RoomID         int       `json:"roomId"`
	LandlordID     int       `json:"landlordId"`
	PosterID       int       `json:"posterId"`
	SeekerID       int       `json:"seekerId"`
	MoveInDate     time.Time `json:"moveInDate"`
	DurationMonths int       `json:"durationMonths"`
}

type createContractResponse struct {
	ContractID string `json:"contractId"`
}

// ContractsClient creates and cancels co-tenancy contracts.
type ContractsClient struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewContractsClient(opts Options, logger *zap.Logger) *ContractsClient {
	return &ContractsClient{http: newRestyClient(opts), logger: logger}
}

// Create issues a contract for an approved request. The request id doubles as
// the idempotency key, so retries never yield two contracts.
func (c *ContractsClient) Create(ctx context.Context, req *domain.MatchingRequest, landlordID int) (string, error) {
	var out createContractResponse
	resp, err := call(c.logger, "contracts", "create", func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetHeader("Idempotency-Key", req.ID).
			SetBody(createContractRequest{
				RequestID:      req.ID,
				RoomID:         req.RoomID,
				LandlordID:     landlordID,
				PosterID:       req.PosterID,
				SeekerID:       req.SeekerID,
				MoveInDate:     req.RequestedMoveInDate,
				DurationMonths: req.RequestedDurationMonths,
			}).
			SetResult(&out).
			Post("/contracts")
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return "", unexpectedStatus("contracts", "create", resp)
	}
	if out.ContractID == "" {
		return "", fmt.Errorf("contracts.create: empty contract id")
	}
	return out.ContractID, nil
}

// Cancel voids a contract. A contract that is already gone counts as cancelled.
func (c *ContractsClient) Cancel(ctx context.Context, contractID string) error {
	resp, err := call(c.logger, "contracts", "cancel", func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetPathParam("id", contractID).
			Delete("/contracts/{id}")
	})
	if err != nil {
		return err
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return unexpectedStatus("contracts", "cancel", resp)
}
