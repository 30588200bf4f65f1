package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateBookingReference(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^\d{8}[A-Z0-9]{4}$`)

	t.Run("Format", func(t *testing.T) {
		ref := GenerateBookingReference(now)
		assert.Len(t, ref, 12)
		assert.True(t, pattern.MatchString(ref), "got %q", ref)
		assert.True(t, strings.HasPrefix(ref, "20260901"))
	})

	t.Run("Suffix Varies", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			seen[GenerateBookingReference(now)] = true
		}
		// 36^4 suffixes; 50 draws colliding down to one is not plausible
		assert.Greater(t, len(seen), 1)
	})
}

func TestGeneratePaymentReference(t *testing.T) {
	pattern := regexp.MustCompile(`^STAYA_\d+_[0-9a-f]{8}$`)

	t.Run("Format", func(t *testing.T) {
		ref := GeneratePaymentReference()
		assert.True(t, pattern.MatchString(ref), "got %q", ref)
	})

	t.Run("Unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			seen[GeneratePaymentReference()] = true
		}
		assert.Len(t, seen, 50)
	})
}
