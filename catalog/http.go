package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/util"
	"github.com/go-resty/resty/v2"
)

// HTTPError is returned when a catalog endpoint responds with a non-2xx status.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when retried.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type transportError struct {
	err error
}

func (e *transportError) Error() string   { return e.err.Error() }
func (e *transportError) Unwrap() error   { return e.err }
func (e *transportError) Temporary() bool { return true }

// doer executes JSON requests, retrying temporary failures.
type doer struct {
	rest    *resty.Client
	retrier *util.Retrier
	log     *logger.Logger
}

func newDoer(rest *resty.Client, maxTries int, log *logger.Logger) *doer {
	r := util.NewRetrier(maxTries)
	r.Notify = func(err error, d time.Duration) {
		log.Warn("retrying catalog request", "error", err, "backoff", d)
	}
	return &doer{rest: rest, retrier: r, log: log}
}

func (d *doer) do(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	return d.retrier.Retry(ctx, func() error {
		req := d.rest.R().SetContext(ctx)
		if body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(body)
		}

		res, err := req.Execute(method, url)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &transportError{err}
		}

		if !res.IsSuccess() {
			return &HTTPError{
				Method:     method,
				URL:        res.Request.URL,
				StatusCode: res.StatusCode(),
				Body:       res.String(),
			}
		}

		if err := json.Unmarshal(res.Body(), out); err != nil {
			return fmt.Errorf("decoding response of %s %s: %w", method, res.Request.URL, err)
		}
		return nil
	})
}
