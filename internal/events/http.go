package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"
)

const maxResponseBytes = 5 << 20

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// fetch GETs url and returns the body. 5xx responses are retried a couple of
// times; anything else that is not 2xx fails straight away.
func fetch(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			for k, v := range headers {
				req.Header.Set(k, v)
			}

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				return &StatusError{URL: url, StatusCode: resp.StatusCode}
			}
			body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var serr *StatusError
			if errors.As(err, &serr) {
				return serr.StatusCode/100 == 5
			}
			return false
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}
