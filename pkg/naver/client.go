package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/paaavkata/stock-dashboard/pkg/apperrors"
	"github.com/sirupsen/logrus"
)

const (
	Provider       = "naver"
	DefaultBaseURL = "https://openapi.naver.com"

	newsSearchPath = "/v1/search/news.json"
)

type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

type Client struct {
	client       *resty.Client
	clientID     string
	clientSecret string
	logger       *logrus.Logger
}

func NewClient(config Config, logger *logrus.Logger) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(15 * time.Second)

	if config.ClientID == "" || config.ClientSecret == "" {
		logger.Warn("NAVER_CLIENT_ID or NAVER_CLIENT_SECRET is not set; news search is disabled")
	}

	return &Client{
		client:       client,
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
		logger:       logger,
	}
}

func (c *Client) Validate() error {
	var missing []string
	if c.clientID == "" {
		missing = append(missing, "NAVER_CLIENT_ID")
	}
	if c.clientSecret == "" {
		missing = append(missing, "NAVER_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return &apperrors.ConfigurationError{Provider: Provider, Missing: missing}
	}
	return nil
}

// SearchNews runs a news search. Zero-valued options fall back to
// display 10, start 1, sort by date.
func (c *Client) SearchNews(ctx context.Context, opts SearchOptions) (*NewsResponse, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if opts.Display <= 0 {
		opts.Display = 10
	}
	if opts.Start <= 0 {
		opts.Start = 1
	}
	if opts.Sort == "" {
		opts.Sort = "date"
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"X-Naver-Client-Id":     c.clientID,
			"X-Naver-Client-Secret": c.clientSecret,
		}).
		SetQueryParams(map[string]string{
			"query":   opts.Query,
			"display": strconv.Itoa(opts.Display),
			"start":   strconv.Itoa(opts.Start),
			"sort":    opts.Sort,
		}).
		Get(newsSearchPath)
	if err != nil {
		c.logger.WithError(err).Error("Failed to search news")
		return nil, &apperrors.UpstreamNewsError{Provider: Provider, Err: err}
	}

	if !resp.IsSuccess() {
		var body errorResponse
		_ = json.Unmarshal(resp.Body(), &body)
		msg := body.ErrorMessage
		if msg == "" {
			msg = resp.String()
		}
		return nil, &apperrors.UpstreamNewsError{
			Provider:   Provider,
			StatusCode: resp.StatusCode(),
			Code:       body.ErrorCode,
			Message:    msg,
		}
	}

	var news NewsResponse
	if err := json.Unmarshal(resp.Body(), &news); err != nil {
		return nil, &apperrors.UpstreamNewsError{
			Provider:   Provider,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("failed to unmarshal news response: %w", err),
		}
	}

	c.logger.WithFields(logrus.Fields{
		"query": opts.Query,
		"total": news.Total,
		"items": len(news.Items),
	}).Debug("News search completed")

	return &news, nil
}
