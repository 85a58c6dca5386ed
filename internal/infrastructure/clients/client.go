package clients

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gdugdh24/roomshare-backend/internal/infrastructure/metrics"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

func newRestyClient(opts Options) *resty.Client {
	wait := opts.RetryWait
	if wait <= 0 {
		wait = 200 * time.Millisecond
	}
	return resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(4 * wait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// call runs one request, records its latency and folds transport failures
// and 5xx answers into domain.ErrTransient. Other non-2xx responses are
// returned unchanged for the caller to interpret.
func call(logger *zap.Logger, service, op string, do func() (*resty.Response, error)) (*resty.Response, error) {
	start := time.Now()
	resp, err := do()

	outcome := "ok"
	defer func() {
		metrics.ExternalCallDuration.WithLabelValues(service, op, outcome).Observe(time.Since(start).Seconds())
	}()

	if err != nil {
		outcome = "transport_error"
		logger.Warn("external call failed", zap.String("service", service), zap.String("op", op), zap.Error(err))
		return nil, domain.Transient(service+"."+op, err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		outcome = "server_error"
		logger.Warn("external service error",
			zap.String("service", service),
			zap.String("op", op),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, domain.Transient(service+"."+op, fmt.Errorf("status %d", resp.StatusCode()))
	}
	if resp.IsError() {
		outcome = "client_error"
	}
	return resp, nil
}

func unexpectedStatus(service, op string, resp *resty.Response) error {
	return fmt.Errorf("%s.%s: unexpected status %d: %s", service, op, resp.StatusCode(), resp.String())
}
