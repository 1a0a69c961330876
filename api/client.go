package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL   = "https://api.roomboss.com"
	defaultUserAgent = "roomboss-cli/1.0"
	defaultTimeout   = 15 * time.Second

	hotelPrefix = "/extws/hotel/v1"
	gsPrefix    = "/extws/gs/v1"
)

// Client talks to the RoomBoss extws API. Every call is a GET authenticated with
// HTTP Basic credentials and is recorded in the request history.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string
	Username  string
	Password  string
	// Timeout bounds each call on top of any deadline the caller's context carries.
	Timeout time.Duration
	Log     logrus.FieldLogger

	history  *History
	inflight *InFlight
	now      func() time.Time

	cacheMu sync.RWMutex
	hotels  map[string]Hotel
}

func NewClient() *Client {
	return &Client{
		HTTP:      &http.Client{},
		BaseURL:   defaultBaseURL,
		UserAgent: defaultUserAgent,
		Timeout:   defaultTimeout,
		Log:       logrus.StandardLogger(),
		history:   NewHistory(DefaultHistoryLimit),
		inflight:  NewInFlight(),
		now:       time.Now,
		hotels:    map[string]Hotel{},
	}
}

// History returns the recorded requests, newest first.
func (c *Client) History() []RequestRecord {
	return c.history.Records()
}

// Loading reports whether any call is outstanding.
func (c *Client) Loading() bool {
	return c.inflight.Loading()
}

// InFlight reports whether a call for the named operation is outstanding.
func (c *Client) InFlight(op string) bool {
	return c.inflight.Active(op)
}

// get performs one API call: encode params, send, decode into dest, record history.
// A call that fails before dispatch (unencodable params or missing
// credentials) returns without a history record.
func (c *Client) get(ctx context.Context, op, path string, params any, header http.Header, dest any) error {
	values, err := encodeParams(params)
	if err != nil {
		return fmt.Errorf("%s: encode params: %w", op, err)
	}
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}

	done := c.inflight.Begin(op)
	defer done()

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	record := RequestRecord{
		Operation: op,
		Endpoint:  path,
		Params:    values,
		Timestamp: c.now(),
	}
	start := time.Now()

	body, status, err := c.send(ctx, path, values, header)
	record.Duration = time.Since(start)
	record.StatusCode = status
	if len(body) > 0 && json.Valid(body) {
		record.Response = json.RawMessage(body)
	}

	if err == nil && dest != nil {
		if decodeErr := decodeBody(body, dest); decodeErr != nil {
			err = fmt.Errorf("%s: decode response: %w", op, decodeErr)
		}
	}

	if err != nil {
		record.Status = StatusError
		record.Error = err.Error()
		c.history.Add(record)
		c.logger().WithFields(logrus.Fields{
			"op":       op,
			"status":   status,
			"duration": record.Duration,
		}).Warnf("roomboss request failed: %v", err)
		return err
	}

	record.Status = StatusSuccess
	c.history.Add(record)
	c.logger().WithFields(logrus.Fields{
		"op":       op,
		"status":   status,
		"duration": record.Duration,
	}).Debugf("GET %s", path)
	return nil
}

func (c *Client) send(ctx context.Context, path string, values url.Values, header http.Header) ([]byte, int, error) {
	req, err := c.newRequest(ctx, path, values)
	if err != nil {
		return nil, 0, err
	}
	for key, vals := range header {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, classifyTransportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, resp.StatusCode, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, resp.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, path string, values url.Values) (*http.Request, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	path = strings.TrimPrefix(path, "/")
	base.Path = strings.TrimSuffix(base.Path, "/") + "/" + path
	if len(values) > 0 {
		base.RawQuery = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.Username, c.Password)
	return req, nil
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// encodeParams turns a tagged params struct into query values. Fields tagged
// omitempty are dropped when zero, slices become repeated keys.
func encodeParams(params any) (url.Values, error) {
	if params == nil {
		return url.Values{}, nil
	}
	values, err := query.Values(params)
	if err != nil {
		return nil, err
	}
	for key, vals := range values {
		kept := vals[:0]
		for _, v := range vals {
			if v != "" {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			delete(values, key)
			continue
		}
		values[key] = kept
	}
	return values, nil
}

func decodeBody(body []byte, dest any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	if err := decoder.Decode(dest); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
