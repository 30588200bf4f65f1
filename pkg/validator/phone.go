package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidLength indicates the number has the wrong number of digits
	ErrInvalidLength = errors.New("phone number must be 11 digits (or 13 with the +234 country code)")

	// ErrInvalidPrefix indicates the number doesn't match a Nigerian mobile prefix
	ErrInvalidPrefix = errors.New("phone number must start with 070, 071, 080, 081, 090 or 091")

	// ErrInvalidFormat indicates the number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrEmptyPhone indicates the phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")
)

// nigerianPhoneRegex matches a normalized local Nigerian mobile number:
// leading 0, then 7/8/9, then 0/1, then 8 more digits
var nigerianPhoneRegex = regexp.MustCompile(`^0[789][01]\d{8}$`)

// digitsRegex matches digits only
var digitsRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator handles Nigerian phone number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a Nigerian mobile number.
// Accepts 08012345678, +2348012345678, 0801 234 5678 and similar.
// Returns the normalized local form (0XXXXXXXXXX) and an error if invalid.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if phone == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)

	if !digitsRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	if len(sanitized) != 11 {
		return "", ErrInvalidLength
	}

	if !nigerianPhoneRegex.MatchString(sanitized) {
		return "", ErrInvalidPrefix
	}

	return sanitized, nil
}

// Sanitize strips separators and folds the +234 country code into the
// local leading zero
func (v *PhoneValidator) Sanitize(phone string) string {
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, "(", "")
	phone = strings.ReplaceAll(phone, ")", "")
	phone = strings.ReplaceAll(phone, "+", "")
	phone = strings.ReplaceAll(phone, ".", "")

	if strings.HasPrefix(phone, "234") && len(phone) == 13 {
		phone = "0" + phone[3:]
	}

	return phone
}

// ToE164 converts a valid number to international +234 form
func (v *PhoneValidator) ToE164(phone string) (string, error) {
	sanitized, err := v.Validate(phone)
	if err != nil {
		return "", err
	}

	return "+234" + sanitized[1:], nil
}

/// Format formats a valid number for display: 0801 234 5678
func (v *PhoneValidator) Format(phone string) (string, error) {
	sanitized, err := v.Validate(phone)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s %s %s",
		sanitized[0:4],
		sanitized[4:7],
		sanitized[7:11],
	), nil
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
