package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog/log"

	"github.com/cityzenmag/socialhub/model"
)

// DefaultRequestTimeout bounds one adapter call when no timeout is
// configured.
const DefaultRequestTimeout = 10 * time.Second

// RESTClient issues JSON requests against one platform REST API. Transient
// transport failures and 5xx responses are retried a bounded number of
// times; 4xx responses are classified and returned immediately. Rate-limit
// responses are never retried here, the caller surfaces them.
type RESTClient struct {
	Platform model.Platform
	HTTP     *http.Client
	Timeout  time.Duration
	Header   http.Header
}

// NewRESTClient creates a client with the given per-call timeout.
func NewRESTClient(p model.Platform, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &RESTClient{
		Platform: p,
		HTTP:     &http.Client{Timeout: timeout},
		Timeout:  timeout,
		Header:   make(http.Header),
	}
}

// DoJSON performs one request and decodes the JSON response into out when
// out is non-nil. The body is passed as bytes so retries can replay it.
func (c *RESTClient) DoJSON(ctx context.Context, method, url string, body []byte, contentType string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	var raw []byte
	err := retry.Do(
		func() error {
			var reader io.Reader
			if body != nil {
				reader = bytes.NewReader(body)
			}

			req, err := http.NewRequestWithContext(ctx, method, url, reader)
			if err != nil {
				return retry.Unrecoverable(NewError(c.Platform, method+" "+url, KindTransport, err))
			}
			for k, vs := range c.Header {
				for _, v := range vs {
					req.Header.Add(k, v)
				}
			}
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}

			resp, err := c.HTTP.Do(req)
			if err != nil {
				return NewError(c.Platform, method+" "+url, KindTransport, err)
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return NewError(c.Platform, method+" "+url, KindTransport, err)
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				kind := ClassifyStatus(resp.StatusCode)
				apiErr := Errorf(c.Platform, method+" "+url, kind,
					"status %d: %s", resp.StatusCode, truncate(data, 256))
				if resp.StatusCode >= 500 {
					return apiErr
				}
				return retry.Unrecoverable(apiErr)
			}

			raw = data
			return nil
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().
				Str("platform", string(c.Platform)).
				Str("url", url).
				Uint("attempt", n).
				Err(err).
				Msg("Retrying platform request")
		}),
	)
	if err != nil {
		return err
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return NewError(c.Platform, method+" "+url, KindTransport,
			fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func (c *RESTClient) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultRequestTimeout
}

func truncate(data []byte, n int) string {
	if len(data) > n {
		return string(data[:n]) + "..."
	}
	return string(data)
}
