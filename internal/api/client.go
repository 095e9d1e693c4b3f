package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"wz-analyzer/internal/config"
	"wz-analyzer/internal/constants"
	"wz-analyzer/internal/domain"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var (
	// ErrAuthFailure means the directory rejected or never received credentials.
	ErrAuthFailure = errors.New("directory authentication failed")
	// ErrLookupFailure covers transport errors and non-success answers.
	ErrLookupFailure = errors.New("directory lookup failed")
)

type CODClient struct {
	baseURL   string
	tokens    []string
	nextToken atomic.Uint64

	client  *fasthttp.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	search  singleflight.Group
	logger  zerolog.Logger

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewCODClient(cfg *config.Config, logger zerolog.Logger) *CODClient {
	logger = logger.With().Str("component", "directory").Logger()

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = constants.DefaultRequestsPerSecond
	}

	return &CODClient{
		baseURL: cfg.BaseURL,
		tokens:  cfg.SSOTokens,
		client: &fasthttp.Client{
			MaxConnsPerHost:     constants.HTTPMaxConnsPerHost,
			ReadTimeout:         constants.HTTPReadTimeout,
			WriteTimeout:        constants.HTTPWriteTimeout,
			MaxIdleConnDuration: constants.HTTPMaxIdleConnDuration,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), constants.RequestBurst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "cod-directory",
			MaxRequests: constants.BreakerMaxRequests,
			Interval:    constants.BreakerInterval,
			Timeout:     constants.BreakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.ConsecutiveFailures >= constants.BreakerMaxConsecutive {
					return true
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= constants.BreakerMinRequests && failureRatio >= constants.BreakerFailureRatio
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		}),
		logger: logger,
		rateLimit: RateLimitInfo{
			UpdatedAt: time.Now(),
		},
	}
}

func (c *CODClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *CODClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// token hands out the configured SSO tokens round robin.
func (c *CODClient) token() string {
	if len(c.tokens) == 0 {
		return ""
	}
	i := c.nextToken.Add(1) - 1
	return c.tokens[i%uint64(len(c.tokens))]
}

// FuzzySearch returns every account whose name resembles username, on all
// platforms. Identical searches already in flight share one request.
func (c *CODClient) FuzzySearch(ctx context.Context, username string) ([]domain.Candidate, error) {
	v, err, shared := c.search.Do(username, func() (interface{}, error) {
		path := fmt.Sprintf("/crm/cod/v2/platform/all/username/%s/search", url.PathEscape(username))
		hits, err := doRequest[[]SearchHit](ctx, c, path)
		if err != nil {
			return nil, err
		}
		candidates := make([]domain.Candidate, 0, len(*hits))
		for _, h := range *hits {
			candidates = append(candidates, domain.Candidate{Username: h.Username, Platform: domain.Platform(h.Platform)})
		}
		return candidates, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug().Str("username", username).Msg("fuzzy search shared with in-flight request")
	}
	return v.([]domain.Candidate), nil
}

// FetchPlayerStats returns the lifetime battle royale statistics of an
// account, or nil when the profile has none.
func (c *CODClient) FetchPlayerStats(ctx context.Context, candidate domain.Candidate) (*domain.LifetimeStatistics, error) {
	path := fmt.Sprintf("/stats/cod/v1/title/mw/platform/%s/gamer/%s/profile/type/wz",
		url.PathEscape(string(candidate.Platform)), url.PathEscape(candidate.Username))
	profile, err := doRequest[ProfileData](ctx, c, path)
	if err != nil {
		return nil, err
	}
	props := profile.Lifetime.Mode.BR.Properties
	if props == nil {
		return nil, nil
	}
	return &domain.LifetimeStatistics{
		Wins:           props.Wins,
		Kills:          props.Kills,
		KdRatio:        props.KdRatio,
		TimePlayed:     props.TimePlayed,
		GamesPlayed:    props.GamesPlayed,
		ScorePerMinute: props.ScorePerMinute,
		Deaths:         props.Deaths,
	}, nil
}

// FetchMatchHistory returns the most recent Warzone matches of an account.
func (c *CODClient) FetchMatchHistory(ctx context.Context, candidate domain.Candidate) ([]RawMatch, error) {
	path := fmt.Sprintf("/crm/cod/v2/title/mw/platform/%s/gamer/%s/matches/wz/start/0/end/0/details",
		url.PathEscape(string(candidate.Platform)), url.PathEscape(candidate.Username))
	data, err := doRequest[MatchesData](ctx, c, path)
	if err != nil {
		return nil, err
	}
	return data.Matches, nil
}

type exchange struct {
	status int
	body   []byte
}

func doRequest[T any](ctx context.Context, client *CODClient, path string) (*T, error) {
	token := client.token()
	if token == "" {
		return nil, fmt.Errorf("%w: no sso token configured", ErrAuthFailure)
	}

	if err := client.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting for rate limiter: %v", ErrLookupFailure, err)
	}

	out, err := client.breaker.Execute(func() (interface{}, error) {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(client.baseURL + path)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.SetCookie("ACT_SSO_COOKIE", token)
		req.Header.SetCookie("atkn", token)

		deadline, ok := ctx.Deadline()
		if ok {
			if err := client.client.DoDeadline(req, resp, deadline); err != nil {
				return nil, err
			}
		} else {
			if err := client.client.Do(req, resp); err != nil {
				return nil, err
			}
		}

		client.updateRateLimit(resp)

		if resp.StatusCode() >= fasthttp.StatusInternalServerError {
			return nil, fmt.Errorf("API error: %d", resp.StatusCode())
		}

		body := make([]byte, len(resp.Body()))
		copy(body, resp.Body())
		return exchange{status: resp.StatusCode(), body: body}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrLookupFailure, path, err)
	}

	ex := out.(exchange)
	switch {
	case ex.status == fasthttp.StatusUnauthorized || ex.status == fasthttp.StatusForbidden:
		return nil, fmt.Errorf("%w: GET %s: HTTP %d", ErrAuthFailure, path, ex.status)
	case ex.status != fasthttp.StatusOK:
		return nil, fmt.Errorf("%w: GET %s: HTTP %d", ErrLookupFailure, path, ex.status)
	}

	var env envelope
	if err := json.Unmarshal(ex.body, &env); err != nil {
		return nil, fmt.Errorf("%w: GET %s: decode envelope: %v", ErrLookupFailure, path, err)
	}
	if env.Status != "success" {
		var msg errorData
		_ = json.Unmarshal(env.Data, &msg)
		if isAuthMessage(msg.Message) {
			return nil, fmt.Errorf("%w: GET %s: %s", ErrAuthFailure, path, msg.Message)
		}
		return nil, fmt.Errorf("%w: GET %s: %s", ErrLookupFailure, path, msg.Message)
	}

	var result T
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("%w: GET %s: decode data: %v", ErrLookupFailure, path, err)
	}
	return &result, nil
}
