// Package client provides a client for the VictoriaMetrics HTTP API.
package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/victoria-client/internal/config"
	"github.com/and161185/victoria-client/internal/utils"
	"github.com/and161185/victoria-client/model"
)

// VictoriaMetrics API paths.
const (
	importPath     = "/api/v1/import"
	deletePath     = "/api/v1/admin/tsdb/delete_series"
	seriesPath     = "/api/v1/series"
	queryRangePath = "/api/v1/query_range"
)

// Client talks to a single VictoriaMetrics instance. It holds no mutable
// state beyond the configuration and the underlying http.Client, so it is
// safe for concurrent use. Methods never retry; a failed call surfaces as
// ErrRemoteRejected, ErrRemoteUnavailable or ErrMalformedResponse.
type Client struct {
	config     *config.ClientConfig
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// NewClient creates a new client instance with the given configuration.
func NewClient(cfg *config.ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("client config: %w", err)
	}
	hc := &http.Client{Timeout: time.Duration(cfg.ClientTimeout) * time.Second}
	return NewClientWithHTTP(cfg, hc, zap.NewNop().Sugar()), nil
}

// DI: ready http.Client and logger
func NewClientWithHTTP(cfg *config.ClientConfig, hc *http.Client, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{config: cfg, httpClient: hc, logger: logger}
}

// Import sends the given samples to /api/v1/import as gzip-compressed JSON
// lines, one object per sample. An empty slice is a no-op. Timestamps must
// be Unix milliseconds.
func (clnt *Client) Import(ctx context.Context, samples []model.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}

	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	enc := json.NewEncoder(zw)
	for i := range samples {
		if err := samples[i].Validate(); err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		if err := enc.Encode(&samples[i]); err != nil {
			return fmt.Errorf("encode sample %d: %w", i, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, clnt.config.ServerAddr+importPath, &body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")

	_, err = clnt.do(req)
	return err
}

// DeleteMetrics removes all series matching the given selectors via
// /api/v1/admin/tsdb/delete_series. Each selector becomes one match[]
// parameter, e.g. cpu_usage{host="server1"}.
func (clnt *Client) DeleteMetrics(ctx context.Context, selectors []string) error {
	if len(selectors) == 0 {
		return fmt.Errorf("no selectors given")
	}

	params := url.Values{}
	for _, sel := range selectors {
		params.Add("match[]", sel)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		clnt.config.ServerAddr+deletePath+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	_, err = clnt.do(req)
	return err
}

// GetMetrics lists the label sets of series matching the given patterns via
// /api/v1/series. The time range is not constrained.
func (clnt *Client) GetMetrics(ctx context.Context, patterns []string) ([]model.MetricLabel, error) {
	params := url.Values{}
	for _, p := range patterns {
		params.Add("match[]", p)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		clnt.config.ServerAddr+seriesPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	raw, err := clnt.do(req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status string              `json:"status"`
		Data   []model.MetricLabel `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: series: %v", ErrMalformedResponse, err)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: series status %q", ErrMalformedResponse, resp.Status)
	}
	return resp.Data, nil
}

// rangeResponse is the query_range matrix shape: each series carries its
// label set and [timestamp, value] pairs where the timestamp is in float
// seconds and the value is a string.
type rangeResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string `json:"resultType"`
		Result     []struct {
			Metric model.MetricLabel   `json:"metric"`
			Values [][]json.RawMessage `json:"values"`
		} `json:"result"`
	} `json:"data"`
}

// GetRangeData runs a range query via /api/v1/query_range and returns one
// MetricSample per matched series. Query window timestamps are Unix
// milliseconds; they are converted to the seconds the endpoint expects, and
// response timestamps are converted back to milliseconds.
func (clnt *Client) GetRangeData(ctx context.Context, q model.TimeRangeQuery) ([]model.MetricSample, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}

	params := url.Values{}
	params.Set("query", q.Query)
	params.Set("start", millisToSeconds(q.Start))
	params.Set("end", millisToSeconds(q.End))
	params.Set("step", strconv.FormatFloat(q.Step.Seconds(), 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		clnt.config.ServerAddr+queryRangePath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	raw, err := clnt.do(req)
	if err != nil {
		return nil, err
	}

	var resp rangeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: query_range: %v", ErrMalformedResponse, err)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: query_range status %q", ErrMalformedResponse, resp.Status)
	}

	samples := make([]model.MetricSample, 0, len(resp.Data.Result))
	for _, series := range resp.Data.Result {
		s := model.MetricSample{
			Metric:     series.Metric,
			Values:     make([]float64, 0, len(series.Values)),
			Timestamps: make([]int64, 0, len(series.Values)),
		}
		for _, pair := range series.Values {
			ts, val, err := parsePoint(pair)
			if err != nil {
				return nil, err
			}
			s.Timestamps = append(s.Timestamps, ts)
			s.Values = append(s.Values, val)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// ImportConcreteMetric builds one sample from the given label set and
// points and imports it. With deleteExisting it first deletes every series
// matching the label set, so the import fully replaces the old data.
func (clnt *Client) ImportConcreteMetric(ctx context.Context, label model.MetricLabel,
	timestamps []int64, values []float64, deleteExisting bool) error {

	sample := model.MetricSample{Metric: label, Values: values, Timestamps: timestamps}
	if err := sample.Validate(); err != nil {
		return err
	}

	if deleteExisting {
		if err := clnt.DeleteMetrics(ctx, []string{label.Selector()}); err != nil {
			return fmt.Errorf("delete before import: %w", err)
		}
	}

	return clnt.Import(ctx, []model.MetricSample{sample})
}

// WaitForAbsence polls the series listing until no series matches the given
// patterns. Deletes are applied asynchronously on the server side; callers
// that re-import right after a delete use this to avoid racing it.
func (clnt *Client) WaitForAbsence(ctx context.Context, patterns []string) error {
	return utils.WaitUntil(ctx, 20, 500*time.Millisecond, func() (bool, error) {
		labels, err := clnt.GetMetrics(ctx, patterns)
		if err != nil {
			return false, err
		}
		return len(labels) == 0, nil
	})
}

// do sends the request with basic auth, logs the round trip, and maps the
// outcome: network failure -> ErrRemoteUnavailable, non-2xx -> statusError.
// On success it returns the response body.
func (clnt *Client) do(req *http.Request) ([]byte, error) {
	if clnt.config.Username != "" {
		req.SetBasicAuth(clnt.config.Username, clnt.config.Password)
	}

	start := time.Now()
	resp, err := clnt.httpClient.Do(req)
	if err != nil {
		clnt.logger.Infow("request failed",
			"method", req.Method, "path", req.URL.Path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	clnt.logger.Infow("request",
		"method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrMalformedResponse, readErr)
	}
	return body, nil
}

func millisToSeconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', -1, 64)
}

func parsePoint(pair []json.RawMessage) (int64, float64, error) {
	if len(pair) != 2 {
		return 0, 0, fmt.Errorf("%w: point has %d elements", ErrMalformedResponse, len(pair))
	}
	var sec float64
	if err := json.Unmarshal(pair[0], &sec); err != nil {
		return 0, 0, fmt.Errorf("%w: point timestamp: %v", ErrMalformedResponse, err)
	}
	var str string
	if err := json.Unmarshal(pair[1], &str); err != nil {
		return 0, 0, fmt.Errorf("%w: point value: %v", ErrMalformedResponse, err)
	}
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: point value %q: %v", ErrMalformedResponse, str, err)
	}
	return int64(math.Round(sec * 1000)), val, nil
}
