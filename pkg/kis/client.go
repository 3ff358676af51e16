package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/paaavkata/stock-dashboard/pkg/apperrors"
	"github.com/sirupsen/logrus"
)

const (
	Provider       = "kis"
	DefaultBaseURL = "https://openapi.koreainvestment.com:9443"

	tokenPath           = "/oauth2/tokenP"
	inquirePricePath    = "/uapi/domestic-stock/v1/quotations/inquire-price"
	inquireDailyPath    = "/uapi/domestic-stock/v1/quotations/inquire-daily-itemchartprice"
	inquireIndexPath    = "/uapi/domestic-stock/v1/quotations/inquire-index-price"
	inquireIndexDayPath = "/uapi/domestic-stock/v1/quotations/inquire-index-daily-price"

	trStockPrice      = "FHKST01010100"
	trStockDaily      = "FHKST03010100"
	trIndexPrice      = "FHPUP02100000"
	trIndexDailyPrice = "FHPUP02100100"

	marketDivStock = "J"
	marketDivIndex = "U"
)

type Config struct {
	AppKey            string
	AppSecret         string
	BaseURL           string
	RequestsPerSecond int
	RetryCount        int
}

type Client struct {
	client      *resty.Client
	appKey      string
	appSecret   string
	logger      *logrus.Logger
	rateLimiter *RateLimiter
}

func NewClient(config Config, logger *logrus.Logger) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 15
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(config.RetryCount)
	client.SetRetryWaitTime(1 * time.Second)
	client.AddRetryCondition(func(resp *resty.Response, err error) bool {
		return err != nil || (resp != nil && resp.StatusCode() >= http.StatusInternalServerError)
	})

	return &Client{
		client:      client,
		appKey:      config.AppKey,
		appSecret:   config.AppSecret,
		logger:      logger,
		rateLimiter: NewRateLimiter(rps),
	}
}

// Validate reports missing credentials without touching the network.
func (c *Client) Validate() error {
	var missing []string
	if c.appKey == "" {
		missing = append(missing, "KIS_APP_KEY")
	}
	if c.appSecret == "" {
		missing = append(missing, "KIS_APP_SECRET")
	}
	if len(missing) > 0 {
		return &apperrors.ConfigurationError{Provider: Provider, Missing: missing}
	}
	return nil
}

func (c *Client) Close() {
	c.rateLimiter.Stop()
}

// IssueToken requests a new access token. Errors carried in a 200 body
// are reported the same as non-2xx responses.
func (c *Client) IssueToken(ctx context.Context) (*TokenResponse, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(TokenRequest{
			GrantType: "client_credentials",
			AppKey:    c.appKey,
			AppSecret: c.appSecret,
		}).
		Post(tokenPath)
	if err != nil {
		c.logger.WithError(err).Error("Failed to request access token")
		return nil, &apperrors.UpstreamAuthError{Provider: Provider, Err: err}
	}

	if !resp.IsSuccess() {
		var body TokenResponse
		_ = json.Unmarshal(resp.Body(), &body)
		code, msg := body.errorDetail()
		if msg == "" {
			msg = resp.String()
		}
		return nil, &apperrors.UpstreamAuthError{
			Provider:   Provider,
			StatusCode: resp.StatusCode(),
			Code:       code,
			Message:    msg,
		}
	}

	var token TokenResponse
	if err := json.Unmarshal(resp.Body(), &token); err != nil {
		return nil, &apperrors.UpstreamAuthError{
			Provider:   Provider,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("failed to unmarshal token response: %w", err),
		}
	}

	if code, msg := token.errorDetail(); code != "" || token.AccessToken == "" {
		if msg == "" {
			msg = "empty access token"
		}
		return nil, &apperrors.UpstreamAuthError{
			Provider:   Provider,
			StatusCode: resp.StatusCode(),
			Code:       code,
			Message:    msg,
		}
	}

	c.logger.WithField("expires", token.AccessTokenExpired).Info("Issued KIS access token")
	return &token, nil
}

func (r *TokenResponse) errorDetail() (string, string) {
	if r.ErrorCode != "" {
		return r.ErrorCode, r.ErrorDescription
	}
	if r.MsgCode != "" {
		return r.MsgCode, r.Msg
	}
	return "", r.ErrorDescription
}

// InquirePrice fetches the current quote of an equity.
func (c *Client) InquirePrice(ctx context.Context, accessToken, code string) (*PriceResponse, error) {
	var out PriceResponse
	err := c.get(ctx, "inquire price", accessToken, trStockPrice, inquirePricePath, map[string]string{
		"FID_COND_MRKT_DIV_CODE": marketDivStock,
		"FID_INPUT_ISCD":         code,
	}, &out, &out.APIResponse)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// InquireDailyChartPrice fetches equity bars between two YYYYMMDD dates.
func (c *Client) InquireDailyChartPrice(ctx context.Context, accessToken, code, startDate, endDate string, period Period) (*DailyPriceResponse, error) {
	var out DailyPriceResponse
	err := c.get(ctx, "inquire daily price", accessToken, trStockDaily, inquireDailyPath, map[string]string{
		"FID_COND_MRKT_DIV_CODE": marketDivStock,
		"FID_INPUT_ISCD":         code,
		"FID_INPUT_DATE_1":       startDate,
		"FID_INPUT_DATE_2":       endDate,
		"FID_PERIOD_DIV_CODE":    string(period),
		"FID_ORG_ADJ_PRC":        "0",
	}, &out, &out.APIResponse)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// InquireIndexPrice fetches the current value of a sector index.
func (c *Client) InquireIndexPrice(ctx context.Context, accessToken, code string) (*IndexPriceResponse, error) {
	var out IndexPriceResponse
	err := c.get(ctx, "inquire index price", accessToken, trIndexPrice, inquireIndexPath, map[string]string{
		"FID_COND_MRKT_DIV_CODE": marketDivIndex,
		"FID_INPUT_ISCD":         code,
	}, &out, &out.APIResponse)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// InquireIndexDailyPrice fetches index bars between two YYYYMMDD dates.
func (c *Client) InquireIndexDailyPrice(ctx context.Context, accessToken, code, startDate, endDate string, period Period) (*IndexDailyPriceResponse, error) {
	var out IndexDailyPriceResponse
	err := c.get(ctx, "inquire index daily price", accessToken, trIndexDailyPrice, inquireIndexDayPath, map[string]string{
		"FID_COND_MRKT_DIV_CODE": marketDivIndex,
		"FID_INPUT_ISCD":         code,
		"FID_INPUT_DATE_1":       startDate,
		"FID_INPUT_DATE_2":       endDate,
		"FID_PERIOD_DIV_CODE":    string(period),
	}, &out, &out.APIResponse)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, op, accessToken, trID, path string, params map[string]string, out interface{}, envelope *APIResponse) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return &apperrors.UpstreamQuoteError{Provider: Provider, Operation: op, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"Content-Type":  "application/json; charset=utf-8",
			"authorization": "Bearer " + accessToken,
			"appkey":        c.appKey,
			"appsecret":     c.appSecret,
			"tr_id":         trID,
		}).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		c.logger.WithError(err).WithField("operation", op).Error("KIS request failed")
		return &apperrors.UpstreamQuoteError{Provider: Provider, Operation: op, Err: err}
	}

	if !resp.IsSuccess() {
		var env APIResponse
		_ = json.Unmarshal(resp.Body(), &env)
		msg := env.Msg1
		if msg == "" {
			msg = resp.String()
		}
		return &apperrors.UpstreamQuoteError{
			Provider:   Provider,
			Operation:  op,
			StatusCode: resp.StatusCode(),
			Code:       env.MsgCd,
			Message:    msg,
		}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &apperrors.UpstreamQuoteError{
			Provider:   Provider,
			Operation:  op,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}

	if !envelope.OK() {
		return &apperrors.UpstreamQuoteError{
			Provider:   Provider,
			Operation:  op,
			StatusCode: resp.StatusCode(),
			Code:       envelope.MsgCd,
			Message:    envelope.Msg1,
		}
	}

	c.logger.WithFields(logrus.Fields{
		"operation": op,
		"tr_id":     trID,
		"code":      params["FID_INPUT_ISCD"],
	}).Debug("KIS request succeeded")
	return nil
}
