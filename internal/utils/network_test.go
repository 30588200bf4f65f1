package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newIPTestContext(remoteAddr string, headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	c.Request.RemoteAddr = remoteAddr
	for key, value := range headers {
		c.Request.Header.Set(key, value)
	}
	return c
}

func TestGetRealIP(t *testing.T) {
	t.Run("Public X-Real-IP Wins", func(t *testing.T) {
		c := newIPTestContext("10.0.0.4:5123", map[string]string{
			"X-Real-IP":       "203.0.113.7",
			"X-Forwarded-For": "198.51.100.23, 10.0.0.4",
		})

		assert.Equal(t, "203.0.113.7", GetRealIP(c))
	})

	t.Run("Private X-Real-IP Falls Through To Forwarded Chain", func(t *testing.T) {
		c := newIPTestContext("10.0.0.4:5123", map[string]string{
			"X-Real-IP":       "192.168.1.10",
			"X-Forwarded-For": "10.0.0.5, 198.51.100.23, 10.0.0.4",
		})

		assert.Equal(t, "198.51.100.23", GetRealIP(c))
	})

	t.Run("All Private Hops Returns First Entry", func(t *testing.T) {
		c := newIPTestContext("10.0.0.4:5123", map[string]string{
			"X-Forwarded-For": "10.0.0.5, 10.0.0.6",
		})

		assert.Equal(t, "10.0.0.5", GetRealIP(c))
	})

	t.Run("Direct Connection Uses Socket Address", func(t *testing.T) {
		c := newIPTestContext("198.51.100.9:4411", nil)

		assert.Equal(t, "198.51.100.9", GetRealIP(c))
	})
}
