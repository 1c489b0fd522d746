package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-picks/internal/config"
	"github.com/yourusername/clever-picks/internal/metrics"
	"github.com/yourusername/clever-picks/internal/models"
)

const scoreFeedSource = "score_feed"

// HTTPScoreFeed fetches final scores and closing lines from the settlement API
type HTTPScoreFeed struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *logrus.Logger
}

type settlementResponse struct {
	GameID    string            `json:"game_id"`
	League    string            `json:"league"`
	HomeTeam  string            `json:"home_team"`
	AwayTeam  string            `json:"away_team"`
	StartTime time.Time         `json:"start_time"`
	Status    string            `json:"status"`
	HomeScore *float64          `json:"home_score"`
	AwayScore *float64          `json:"away_score"`
	Closing   []closingResponse `json:"closing"`
}

type closingResponse struct {
	Market string  `json:"market"`
	Side   string  `json:"side"`
	Line   float64 `json:"line"`
	Price  int     `json:"price"`
}

// NewHTTPScoreFeed creates a score feed client from configuration
func NewHTTPScoreFeed(cfg config.ScoreFeedConfig, logger *logrus.Logger) (*HTTPScoreFeed, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("score feed base URL is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	clientCfg := DefaultHTTPClientConfig()
	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}
	clientCfg.MaxRetries = cfg.MaxRetries
	clientCfg.RateLimit = cfg.RateLimit

	return &HTTPScoreFeed{
		httpClient: NewRateLimitedHTTPClient(clientCfg, logger),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger,
	}, nil
}

// FetchSettlement retrieves the settlement for one game. A 404 means the
// feed has nothing yet and returns (nil, nil).
func (f *HTTPScoreFeed) FetchSettlement(ctx context.Context, gameID string) (*models.Settlement, error) {
	endpoint := fmt.Sprintf("%s/games/%s/settlement", f.baseURL, url.PathEscape(gameID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewFeedError(scoreFeedSource, ErrCodeNetworkError, "failed to create request", err)
	}
	if f.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", f.apiKey))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(ctx, req)
	if err != nil {
		metrics.RecordScoreFeedRequest("error")
		return nil, NewFeedError(scoreFeedSource, ErrCodeNetworkError, "failed to fetch settlement", err)
	}
	defer resp.Body.Close()
	metrics.RecordScoreFeedRequest(strconv.Itoa(resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewFeedError(scoreFeedSource, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewFeedError(scoreFeedSource, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, NewFeedError(scoreFeedSource, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var payload settlementResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, NewFeedError(scoreFeedSource, ErrCodeInvalidData, "failed to parse response", err)
	}

	settlement, err := f.convert(gameID, &payload)
	if err != nil {
		return nil, NewFeedError(scoreFeedSource, ErrCodeInvalidData, err.Error(), nil)
	}
	return settlement, nil
}

// Close releases idle connections
func (f *HTTPScoreFeed) Close() error {
	return f.httpClient.Close()
}

func (f *HTTPScoreFeed) convert(gameID string, p *settlementResponse) (*models.Settlement, error) {
	if p.GameID != "" && p.GameID != gameID {
		return nil, fmt.Errorf("settlement is for game %s, requested %s", p.GameID, gameID)
	}

	status := models.GameStatus(strings.ToLower(p.Status))
	switch status {
	case models.GameStatusScheduled, models.GameStatusLive, models.GameStatusFinal:
	default:
		return nil, fmt.Errorf("unknown game status %q", p.Status)
	}

	s := &models.Settlement{
		Game: models.Game{
			ID:        gameID,
			League:    p.League,
			HomeTeam:  p.HomeTeam,
			AwayTeam:  p.AwayTeam,
			StartTime: p.StartTime,
			Status:    status,
		},
	}
	if p.HomeScore != nil || p.AwayScore != nil {
		s.Game.FinalScore = &models.FinalScore{Home: p.HomeScore, Away: p.AwayScore}
	}

	for _, c := range p.Closing {
		market := models.MarketType(strings.ToLower(c.Market))
		side := models.Side(strings.ToLower(c.Side))
		if !market.Valid() || !side.BelongsTo(market) {
			f.logger.WithFields(logrus.Fields{
				"game_id": gameID,
				"market":  c.Market,
				"side":    c.Side,
			}).Debug("Skipping closing quote with unknown market or side")
			continue
		}
		s.Closing = append(s.Closing, models.ClosingQuote{
			Market:    market,
			Side:      side,
			LineValue: c.Line,
			Price:     c.Price,
		})
	}

	return s, nil
}
