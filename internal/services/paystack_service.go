package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/staya/travel-booking-backend/internal/config"
)

// PaystackService handles payment gateway integration with Paystack
type PaystackService struct {
	config *config.PaystackConfig
	logger *logrus.Logger
	client *http.Client
}

// PaystackInitializeRequest represents the transaction initialize payload.
// Amount is in kobo (1 naira = 100 kobo).
type PaystackInitializeRequest struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"`
	Reference   string                 `json:"reference"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Currency    string                 `json:"currency,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// PaystackInitializeData is the data block of an initialize response
type PaystackInitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// PaystackVerifyData is the data block of a verify response
type PaystackVerifyData struct {
	Status    string                 `json:"status"` // "success", "failed", "abandoned"
	Reference string                 `json:"reference"`
	Amount    int64                  `json:"amount"` // kobo
	Currency  string                 `json:"currency"`
	Channel   string                 `json:"channel"`
	PaidAt    string                 `json:"paid_at"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// PaystackWebhookEvent is the envelope Paystack posts to the webhook URL
type PaystackWebhookEvent struct {
	Event string             `json:"event"`
	Data  PaystackVerifyData `json:"data"`
}

// paystackResponse is the common envelope around every Paystack payload
type paystackResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewPaystackService creates a new Paystack payment service
func NewPaystackService(cfg *config.PaystackConfig, logger *logrus.Logger) *PaystackService {
	return &PaystackService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// InitializeTransaction creates a checkout session and returns the
// authorization URL the customer is redirected to
func (s *PaystackService) InitializeTransaction(req *PaystackInitializeRequest) (*PaystackInitializeData, error) {
	if s.config.SecretKey == "" {
		return nil, fmt.Errorf("payment gateway not configured: missing secret key")
	}

	if req.CallbackURL == "" {
		req.CallbackURL = s.config.CallbackURL
	}
	if req.Currency == "" {
		req.Currency = "NGN"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, s.config.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build initialize request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	s.logger.WithFields(logrus.Fields{
		"reference": req.Reference,
		"amount":    req.Amount,
	}).Info("Initializing Paystack transaction")

	data := &PaystackInitializeData{}
	if err := s.do(httpReq, data); err != nil {
		return nil, err
	}

	return data, nil
}

// VerifyTransaction fetches the authoritative status of a transaction
func (s *PaystackService) VerifyTransaction(reference string) (*PaystackVerifyData, error) {
	if s.config.SecretKey == "" {
		return nil, fmt.Errorf("payment gateway not configured: missing secret key")
	}

	httpReq, err := http.NewRequest(http.MethodGet, s.config.BaseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.config.SecretKey)

	data := &PaystackVerifyData{}
	if err := s.do(httpReq, data); err != nil {
		return nil, err
	}

	return data, nil
}

// ValidateWebhookSignature checks the x-paystack-signature header: the
// HMAC-SHA512 of the raw body keyed with the secret key, hex encoded
func (s *PaystackService) ValidateWebhookSignature(body []byte, signature string) bool {
	if signature == "" || s.config.SecretKey == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(s.config.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// do executes the request and unwraps the Paystack response envelope
func (s *PaystackService) do(req *http.Request, dest interface{}) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read paystack response: %w", err)
	}

	envelope := &paystackResponse{}
	if err := json.Unmarshal(body, envelope); err != nil {
		return fmt.Errorf("failed to parse paystack response (HTTP %d): %w", resp.StatusCode, err)
	}

	if !envelope.Status {
		s.logger.WithFields(logrus.Fields{
			"http_status": resp.StatusCode,
			"message":     envelope.Message,
		}).Error("Paystack request rejected")
		return fmt.Errorf("paystack error: %s", envelope.Message)
	}

	if dest != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, dest); err != nil {
			return fmt.Errorf("failed to parse paystack data: %w", err)
		}
	}

	return nil
}
