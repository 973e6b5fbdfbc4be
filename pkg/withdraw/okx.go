package withdraw

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
)

const (
	// DefaultOKXURL is the OKX REST API root
	DefaultOKXURL = "https://www.okx.com"

	okxWithdrawalPath = "/api/v5/asset/withdrawal"
	// destination 4 is an on-chain withdrawal
	okxOnChain      = "4"
	okxTimestamp    = "2006-01-02T15:04:05.000Z"
	okxRequestLimit = 30 * time.Second
)

// OKXConfig configures the OKX client
type OKXConfig struct {
	Credentials settings.Credentials
	BaseURL     string
	HTTPClient  *http.Client
	Limiter     *rate.Limiter
	Logger      *logrus.Logger
}

// Validate checks the configuration
func (c *OKXConfig) Validate() error {
	if !c.Credentials.Filled() || c.Credentials.Passphrase == "" {
		return fmt.Errorf("okx: %w", ErrMissingCredentials)
	}
	return nil
}

// OKXClient signs and sends OKX v5 withdrawal requests
type OKXClient struct {
	config *OKXConfig
	logger *logrus.Logger
	now    func() time.Time
}

// NewOKXClient creates an OKX withdrawal client
func NewOKXClient(config OKXConfig) (*OKXClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultOKXURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: okxRequestLimit}
	}
	if config.Limiter == nil {
		// withdrawal endpoint allows 6 requests per second
		config.Limiter = rate.NewLimiter(rate.Limit(6), 1)
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	return &OKXClient{config: &config, logger: config.Logger, now: time.Now}, nil
}

type okxWithdrawalRequest struct {
	Ccy      string `json:"ccy"`
	Amt      string `json:"amt"`
	Dest     string `json:"dest"`
	ToAddr   string `json:"toAddr"`
	Chain    string `json:"chain"`
	Fee      string `json:"fee,omitempty"`
	ClientID string `json:"clientId"`
}

type okxResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Withdraw requests an on-chain withdrawal
func (c *OKXClient) Withdraw(ctx context.Context, req Request) (string, error) {
	body := okxWithdrawalRequest{
		Ccy:      req.Coin,
		Amt:      req.Amount.String(),
		Dest:     okxOnChain,
		ToAddr:   req.Address,
		Chain:    req.Network,
		Fee:      req.Fee,
		ClientID: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}

	var data []struct {
		WdID     string `json:"wdId"`
		ClientID string `json:"clientId"`
	}
	if err := c.do(ctx, http.MethodPost, okxWithdrawalPath, body, &data); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("okx api error: empty withdrawal response")
	}

	c.logger.WithFields(logrus.Fields{
		"address":       req.Address,
		"withdrawal_id": data[0].WdID,
		"amount":        body.Amt,
		"ccy":           req.Coin,
	}).Debug("OKX withdrawal accepted")

	return data[0].WdID, nil
}

func (c *OKXClient) sign(timestamp, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.config.Credentials.SecretKey))
	mac.Write([]byte(timestamp + method + path))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *OKXClient) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, okxRequestLimit)
		defer cancel()
	}
	if err := c.config.Limiter.Wait(ctx); err != nil {
		return err
	}

	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	timestamp := c.now().UTC().Format(okxTimestamp)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OK-ACCESS-KEY", c.config.Credentials.APIKey)
	req.Header.Set("OK-ACCESS-SIGN", c.sign(timestamp, method, path, raw))
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.config.Credentials.Passphrase)

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, out)
}

// handleResponse checks for API errors and decodes the data field into out
func (c *OKXClient) handleResponse(resp *http.Response, out interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var parsed okxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("okx api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	if parsed.Code != "0" || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"error_code":  parsed.Code,
			"message":     parsed.Msg,
		}).Error("OKX API error")
		return fmt.Errorf("okx api error: code=%s message=%s", parsed.Code, parsed.Msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(parsed.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
