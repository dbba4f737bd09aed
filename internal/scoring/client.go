// Package scoring calls the external risk scoring service.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ehr/riskcare/internal/platform/metrics"
)

const maxResponseBytes = 1 << 20

// Features is the fixed payload sent to the scorer. Every key is always
// serialized; absent optional measurements go out as null.
type Features struct {
	Age         int      `json:"age"`
	Sex         string   `json:"sex"`
	HbA1c       *float64 `json:"hba1c"`
	BMI         *float64 `json:"bmi"`
	BPSystolic  *float64 `json:"bp_systolic"`
	BPDiastolic *float64 `json:"bp_diastolic"`
	RBS         *float64 `json:"rbs"`
}

// Result is a successfully decoded score. RiskCategory is one of low, medium
// or high, lower-cased.
type Result struct {
	RiskScore    float64
	RiskCategory string
}

// predictResponse is the wire shape; pointers make absent fields detectable.
// Extra fields such as confidence values are ignored.
type predictResponse struct {
	RiskScore    *float64 `json:"risk_score"`
	RiskCategory *string  `json:"risk_category"`
}

var validCategories = map[string]bool{"low": true, "medium": true, "high": true}

type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client; its Timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New returns a client for the scorer at baseURL. timeout bounds each call.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("github.com/ehr/riskcare/internal/scoring"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Score sends f to POST /predict. It makes exactly one attempt; every
// failure is an *UnavailableError.
func (c *Client) Score(ctx context.Context, f Features) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "scoring.Score")
	defer span.End()

	start := time.Now()
	res, err := c.score(ctx, f)
	if err != nil {
		reason := ReasonOf(err)
		metrics.ObserveScorer(string(reason), time.Since(start))
		span.SetAttributes(attribute.String("scoring.failure_reason", string(reason)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		return Result{}, err
	}

	metrics.ObserveScorer("success", time.Since(start))
	span.SetAttributes(
		attribute.Float64("scoring.risk_score", res.RiskScore),
		attribute.String("scoring.risk_category", res.RiskCategory),
	)
	return res, nil
}

func (c *Client) score(ctx context.Context, f Features) (Result, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return Result{}, unavailable(ReasonMalformed, "encode features", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Result{}, unavailable(ReasonTransport, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, unavailable(ReasonTransport, transportMessage(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		ue := unavailable(ReasonStatus, fmt.Sprintf("scorer returned status %d", resp.StatusCode), nil)
		ue.StatusCode = resp.StatusCode
		if s := strings.TrimSpace(string(snippet)); s != "" {
			ue.Err = errors.New(s)
		}
		return Result{}, ue
	}

	var wire predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&wire); err != nil {
		return Result{}, unavailable(ReasonMalformed, "decode response", err)
	}
	return wire.result()
}

func (w predictResponse) result() (Result, error) {
	if w.RiskScore == nil {
		return Result{}, unavailable(ReasonMalformed, "response missing risk_score", nil)
	}
	if math.IsNaN(*w.RiskScore) || math.IsInf(*w.RiskScore, 0) {
		return Result{}, unavailable(ReasonMalformed, "risk_score is not finite", nil)
	}
	if w.RiskCategory == nil {
		return Result{}, unavailable(ReasonMalformed, "response missing risk_category", nil)
	}
	category := strings.ToLower(strings.TrimSpace(*w.RiskCategory))
	if !validCategories[category] {
		return Result{}, unavailable(ReasonMalformed, fmt.Sprintf("unknown risk_category %q", *w.RiskCategory), nil)
	}
	return Result{RiskScore: *w.RiskScore, RiskCategory: category}, nil
}

func transportMessage(err error) string {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return "scorer request timed out"
	}
	return "scorer unreachable"
}

// Health calls GET /health on the scorer.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return unavailable(ReasonTransport, "build request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return unavailable(ReasonTransport, transportMessage(err), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ue := unavailable(ReasonStatus, fmt.Sprintf("scorer health returned status %d", resp.StatusCode), nil)
		ue.StatusCode = resp.StatusCode
		return ue
	}
	return nil
}
