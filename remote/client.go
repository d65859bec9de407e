// Package remote is the optional cloud prediction client. Every call runs
// through a circuit breaker and may fail at any time; callers treat the
// client as an absent-or-fallible capability and fall back to the local
// algorithms exactly once per call.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/velolab/trainsci"
	"github.com/velolab/trainsci/forecast"
	"github.com/velolab/trainsci/ftp"
	"github.com/velolab/trainsci/history"
	"github.com/velolab/trainsci/pdc"
	"github.com/velolab/trainsci/plan"
)

// Client talks to the prediction service. It implements ftp.RemotePredictor,
// plan.RemoteAdvisor and forecast.RemoteForecaster.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	nowFn   func() time.Time
}

// DefaultTimeout bounds one prediction round trip.
const DefaultTimeout = 5 * time.Second

// NewClient builds a client for the given base URL. A zero timeout uses the
// default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	settings := gobreaker.Settings{
		Name:     "prediction-service",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		nowFn:   time.Now,
	}
}

type ftpRequest struct {
	Points []pdc.Point `json:"points"`
}

type ftpResponse struct {
	FTPWatts   uint16 `json:"ftp_watts"`
	Confidence string `json:"confidence"`
}

// PredictFTP asks the service for an FTP estimate from the curve points.
func (c *Client) PredictFTP(ctx context.Context, curve pdc.Curve) (ftp.Estimate, error) {
	var resp ftpResponse
	err := c.post(ctx, "/v1/predict/ftp", ftpRequest{Points: curve.Points()}, &resp)
	if err != nil {
		return ftp.Estimate{}, err
	}
	return ftp.Estimate{
		Watts:      resp.FTPWatts,
		Method:     ftp.MethodRemote,
		Confidence: trainsci.ParseConfidence(resp.Confidence),
	}, nil
}

type loadRequest struct {
	Days  []history.Day   `json:"days"`
	Goals []trainsci.Goal `json:"goals,omitempty"`
}

type loadResponse struct {
	ACWR         float64            `json:"acwr"`
	Direction    plan.Direction     `json:"direction"`
	Percent      float64            `json:"percent"`
	TargetTSS    float64            `json:"target_weekly_tss"`
	Distribution plan.Distribution  `json:"distribution"`
	Structure    plan.WeekStructure `json:"structure"`
	Confidence   float64            `json:"confidence"`
	Rationale    string             `json:"rationale"`
}

// RecommendLoad asks the service for a weekly load recommendation.
func (c *Client) RecommendLoad(ctx context.Context, days []history.Day, goals []trainsci.Goal) (plan.Recommendation, error) {
	var resp loadResponse
	err := c.post(ctx, "/v1/recommend/load", loadRequest{Days: days, Goals: goals}, &resp)
	if err != nil {
		return plan.Recommendation{}, err
	}
	return plan.Recommendation{
		GeneratedAt:  c.nowFn(),
		Source:       trainsci.SourceRemote,
		ACWR:         resp.ACWR,
		Direction:    resp.Direction,
		Percent:      resp.Percent,
		TargetTSS:    resp.TargetTSS,
		Distribution: resp.Distribution,
		Structure:    resp.Structure,
		Confidence:   resp.Confidence,
		Rationale:    resp.Rationale,
	}, nil
}

type projectionRequest struct {
	Days  []history.Day `json:"days"`
	Weeks int           `json:"weeks"`
}

type projectionResponse struct {
	Trend   forecast.Trend       `json:"trend"`
	Slope   float64              `json:"slope_ctl_per_day"`
	Plateau bool                 `json:"plateau"`
	Weekly  []forecast.WeekPoint `json:"weekly"`
	Risk    forecast.Risk        `json:"detraining_risk"`
}

// ProjectPerformance asks the service for a CTL projection.
func (c *Client) ProjectPerformance(ctx context.Context, days []history.Day, weeks int) (forecast.Projection, error) {
	var resp projectionResponse
	err := c.post(ctx, "/v1/project/performance", projectionRequest{Days: days, Weeks: weeks}, &resp)
	if err != nil {
		return forecast.Projection{}, err
	}
	return forecast.Projection{
		ProjectedAt: c.nowFn(),
		Source:      trainsci.SourceRemote,
		Trend:       resp.Trend,
		Slope:       resp.Slope,
		Plateau:     resp.Plateau,
		Weekly:      resp.Weekly,
		Risk:        resp.Risk,
	}, nil
}

// post runs one JSON round trip through the circuit breaker.
func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("prediction service: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("prediction service: status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("remote prediction unavailable, local fallback will run")
	}
	return err
}
