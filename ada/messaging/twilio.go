package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTwilioURL = "https://api.twilio.com"

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken  string `yaml:"auth_token" mapstructure:"auth_token"`
	// sender number, e.g. whatsapp:+14155238886
	From    string `yaml:"from" mapstructure:"from"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// TwilioError is the error body of the Messages API.
type TwilioError struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *TwilioError) Error() string {
	return fmt.Sprintf("twilio: status %d code %d: %s", e.Status, e.Code, e.Message)
}

var _ Sender = (*Twilio)(nil)

type Twilio struct {
	client *http.Client
	cfg    TwilioConfig
}

func NewTwilio(cfg TwilioConfig) (*Twilio, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, errors.New("twilio: account_sid, auth_token and from are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTwilioURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Twilio{
		client: &http.Client{Timeout: 15 * time.Second},
		cfg:    cfg,
	}, nil
}

func (t *Twilio) Send(ctx context.Context, to, text string) error {
	urlString := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.cfg.BaseURL, t.cfg.AccountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.from(to))
	form.Set("Body", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlString, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("twilio failed create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &TwilioError{Status: resp.StatusCode}
		if err := json.Unmarshal(b, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(b))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	return nil
}

// from use the channel of the recipient for the sender number.
func (t *Twilio) from(to string) string {
	channel, _, ok := strings.Cut(to, ":")
	if !ok || strings.Contains(t.cfg.From, ":") {
		return t.cfg.From
	}
	return channel + ":" + t.cfg.From
}
