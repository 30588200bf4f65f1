package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	v := NewPhoneValidator()

	t.Run("Valid Numbers", func(t *testing.T) {
		cases := map[string]string{
			"08012345678":      "08012345678",
			"07012345678":      "07012345678",
			"07112345678":      "07112345678",
			"08112345678":      "08112345678",
			"09012345678":      "09012345678",
			"09112345678":      "09112345678",
			"+2348012345678":   "08012345678",
			"2348012345678":    "08012345678",
			"0801 234 5678":    "08012345678",
			"0801-234-5678":    "08012345678",
			"(080) 1234-5678":  "08012345678",
			"+234 801 234 5678": "08012345678",
		}

		for input, want := range cases {
			got, err := v.Validate(input)
			require.NoError(t, err, "input %q", input)
			assert.Equal(t, want, got, "input %q", input)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := v.Validate("")
		assert.ErrorIs(t, err, ErrEmptyPhone)
	})

	t.Run("Non Digits", func(t *testing.T) {
		_, err := v.Validate("0801234567a")
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("Wrong Length", func(t *testing.T) {
		_, err := v.Validate("0801234567")
		assert.ErrorIs(t, err, ErrInvalidLength)

		_, err = v.Validate("080123456789")
		assert.ErrorIs(t, err, ErrInvalidLength)
	})

	t.Run("Bad Prefix", func(t *testing.T) {
		// landline and non-mobile prefixes
		for _, input := range []string{"01234567890", "06012345678", "08212345678", "09912345678"} {
			_, err := v.Validate(input)
			assert.ErrorIs(t, err, ErrInvalidPrefix, "input %q", input)
		}
	})
}

func TestToE164(t *testing.T) {
	v := NewPhoneValidator()

	e164, err := v.ToE164("0801 234 5678")
	require.NoError(t, err)
	assert.Equal(t, "+2348012345678", e164)

	// Round trips through the country code fold
	e164, err = v.ToE164("+2349012345678")
	require.NoError(t, err)
	assert.Equal(t, "+2349012345678", e164)

	_, err = v.ToE164("0801234567")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	v := NewPhoneValidator()

	formatted, err := v.Format("+2348012345678")
	require.NoError(t, err)
	assert.Equal(t, "0801 234 5678", formatted)

	_, err = v.Format("invalid")
	assert.Error(t, err)
}

func TestIsValid(t *testing.T) {
	v := NewPhoneValidator()

	assert.True(t, v.IsValid("08012345678"))
	assert.True(t, v.IsValid("+2349112345678"))
	assert.False(t, v.IsValid(""))
	assert.False(t, v.IsValid("12345"))
}
