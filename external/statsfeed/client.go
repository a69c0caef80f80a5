package statsfeed

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ligastats/ligastats/internal/domain/matchfact"
	"github.com/ligastats/ligastats/internal/platform/logging"
	"github.com/ligastats/ligastats/internal/platform/resilience"
)

const (
	defaultBaseURL = "https://feed.ligastats.dev/v1"
	maxBodyBytes   = 6 << 20
)

var apiTokenParamRegex = regexp.MustCompile(`api_token=[^&\s"']+`)
var errStatsFeedTransient = crerr.New("statsfeed transient failure")

// ErrUnavailable is returned when the feed cannot be reached, either because
// the circuit is open or because retries were exhausted.
var ErrUnavailable = stderrors.New("stats feed unavailable")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	Logger     *logging.Logger
	Breaker    resilience.BreakerConfig
}

// Client reads finalized match data from the stats feed API. It implements
// matchfact.Store so the engine can run against live data instead of a local
// repository.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.Breaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewBreaker(cfg.Breaker),
		circuitEnabled: cfg.Breaker.Enabled,
	}
}

func (c *Client) ListGroups(ctx context.Context) ([]matchfact.Group, error) {
	var envelope groupsEnvelope
	if err := c.doJSON(ctx, "/groups", nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch groups: %w", err)
	}

	out := make([]matchfact.Group, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if err := validatePayload(item); err != nil {
			c.logger.WarnContext(ctx, "skip malformed group payload", "group_id", item.ID, "error", err)
			continue
		}
		out = append(out, item.toDomain())
	}
	return out, nil
}

func (c *Client) ListGroupTeams(ctx context.Context, groupID string) ([]matchfact.Team, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, fmt.Errorf("group id is required")
	}

	var envelope teamsEnvelope
	path := "/groups/" + url.PathEscape(groupID) + "/teams"
	if err := c.doJSON(ctx, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch teams group_id=%s: %w", groupID, err)
	}

	out := make([]matchfact.Team, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if err := validatePayload(item); err != nil {
			c.logger.WarnContext(ctx, "skip malformed team payload", "team_id", item.ID, "error", err)
			continue
		}
		out = append(out, item.toDomain())
	}
	return out, nil
}

func (c *Client) ListMatches(ctx context.Context, groupID string, uptoMatchday int) ([]matchfact.Match, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, fmt.Errorf("group id is required")
	}

	query := map[string]string{"include": "events;lineups"}
	if uptoMatchday > 0 {
		query["upto_matchday"] = strconv.Itoa(uptoMatchday)
	}

	var envelope matchesEnvelope
	path := "/groups/" + url.PathEscape(groupID) + "/matches"
	if err := c.doJSON(ctx, path, query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch matches group_id=%s: %w", groupID, err)
	}

	out := make([]matchfact.Match, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if err := validatePayload(item); err != nil {
			c.logger.WarnContext(ctx, "skip malformed match payload", "match_id", item.ID, "error", err)
			continue
		}
		out = append(out, item.toDomain(groupID))
	}
	return out, nil
}

func (c *Client) GetStrengthCoefficients(ctx context.Context, seasonID string, referenceMatchday int) (matchfact.Coefficients, error) {
	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return matchfact.Coefficients{}, fmt.Errorf("season id is required")
	}

	query := map[string]string{}
	if referenceMatchday > 0 {
		query["reference_matchday"] = strconv.Itoa(referenceMatchday)
	}

	var envelope coefficientsEnvelope
	path := "/seasons/" + url.PathEscape(seasonID) + "/coefficients"
	if err := c.doJSON(ctx, path, query, &envelope); err != nil {
		return matchfact.Coefficients{}, fmt.Errorf("fetch coefficients season_id=%s: %w", seasonID, err)
	}

	return envelope.Data.toDomain(seasonID, referenceMatchday), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "statsfeed circuit breaker rejected request", "path", path)
			return fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	values.Set("api_token", c.token)

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + values.Encode()
	out, err := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errStatsFeedTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errStatsFeedTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errStatsFeedTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errStatsFeedTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "statsfeed request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return apiTokenParamRegex.ReplaceAllString(value, "api_token=REDACTED")
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("api_token") {
		query.Set("api_token", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
