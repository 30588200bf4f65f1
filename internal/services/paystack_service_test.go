package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staya/travel-booking-backend/internal/config"
)

func newPaystackTestService(baseURL string) *PaystackService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewPaystackService(&config.PaystackConfig{
		BaseURL:     baseURL,
		SecretKey:   "sk_test_secret",
		CallbackURL: "https://staya.ng/payment/callback",
	}, logger)
}

func TestInitializeTransaction(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/transaction/initialize", r.URL.Path)
			assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

			var req PaystackInitializeRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(1700000), req.Amount)
			assert.Equal(t, "NGN", req.Currency)
			assert.Equal(t, "https://staya.ng/payment/callback", req.CallbackURL)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  true,
				"message": "Authorization URL created",
				"data": map[string]interface{}{
					"authorization_url": "https://checkout.paystack.com/abc123",
					"access_code":       "abc123",
					"reference":         req.Reference,
				},
			})
		}))
		defer server.Close()

		service := newPaystackTestService(server.URL)
		data, err := service.InitializeTransaction(&PaystackInitializeRequest{
			Email:     "amina@example.com",
			Amount:    1700000,
			Reference: "STAYA_1756700000000_a1b2c3d4",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.paystack.com/abc123", data.AuthorizationURL)
		assert.Equal(t, "STAYA_1756700000000_a1b2c3d4", data.Reference)
	})

	t.Run("Gateway Rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  false,
				"message": "Invalid amount",
			})
		}))
		defer server.Close()

		service := newPaystackTestService(server.URL)
		data, err := service.InitializeTransaction(&PaystackInitializeRequest{
			Email:     "amina@example.com",
			Amount:    -1,
			Reference: "STAYA_bad",
		})
		assert.Error(t, err)
		assert.Nil(t, data)
		assert.Contains(t, err.Error(), "Invalid amount")
	})

	t.Run("Missing Secret Key", func(t *testing.T) {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		service := NewPaystackService(&config.PaystackConfig{BaseURL: "https://api.paystack.co"}, logger)

		data, err := service.InitializeTransaction(&PaystackInitializeRequest{
			Email:  "amina@example.com",
			Amount: 1700000,
		})
		assert.Error(t, err)
		assert.Nil(t, data)
		assert.Contains(t, err.Error(), "not configured")
	})
}

func TestVerifyTransaction(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/transaction/verify/STAYA_1756700000000_a1b2c3d4", r.URL.Path)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  true,
				"message": "Verification successful",
				"data": map[string]interface{}{
					"status":    "success",
					"reference": "STAYA_1756700000000_a1b2c3d4",
					"amount":    1700000,
					"currency":  "NGN",
					"channel":   "card",
					"paid_at":   "2026-09-01T10:15:00.000Z",
				},
			})
		}))
		defer server.Close()

		service := newPaystackTestService(server.URL)
		data, err := service.VerifyTransaction("STAYA_1756700000000_a1b2c3d4")
		require.NoError(t, err)
		assert.Equal(t, "success", data.Status)
		assert.Equal(t, int64(1700000), data.Amount)
		assert.Equal(t, "card", data.Channel)
	})

	t.Run("Failed Transaction Still Parses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  true,
				"message": "Verification successful",
				"data": map[string]interface{}{
					"status":    "failed",
					"reference": "STAYA_1756700000000_a1b2c3d4",
					"amount":    1700000,
				},
			})
		}))
		defer server.Close()

		service := newPaystackTestService(server.URL)
		data, err := service.VerifyTransaction("STAYA_1756700000000_a1b2c3d4")
		require.NoError(t, err)
		assert.Equal(t, "failed", data.Status)
	})
}

func TestValidateWebhookSignature(t *testing.T) {
	service := newPaystackTestService("https://api.paystack.co")
	body := []byte(`{"event":"charge.success","data":{"reference":"STAYA_1756700000000_a1b2c3d4"}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	t.Run("Valid Signature", func(t *testing.T) {
		assert.True(t, service.ValidateWebhookSignature(body, signature))
	})

	t.Run("Tampered Body", func(t *testing.T) {
		tampered := []byte(`{"event":"charge.success","data":{"reference":"STAYA_other"}}`)
		assert.False(t, service.ValidateWebhookSignature(tampered, signature))
	})

	t.Run("Wrong Signature", func(t *testing.T) {
		assert.False(t, service.ValidateWebhookSignature(body, "deadbeef"))
	})

	t.Run("Empty Signature", func(t *testing.T) {
		assert.False(t, service.ValidateWebhookSignature(body, ""))
	})
}
