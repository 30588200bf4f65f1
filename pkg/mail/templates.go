package mail

import "fmt"

// VerificationEmail builds the account verification email
func VerificationEmail(name, verifyURL string) (subject, body string) {
	subject = "Verify your STAYA account"
	body = fmt.Sprintf(`
		<h2>Welcome to STAYA, %s!</h2>
		<p>Please confirm your email address to activate your account.</p>
		<p><a href="%s">Verify my email</a></p>
		<p>If you did not create this account, you can ignore this email.</p>
	`, name, verifyURL)
	return subject, body
}

// PasswordResetEmail builds the password reset email
func PasswordResetEmail(name, resetURL string) (subject, body string) {
	subject = "Reset your STAYA password"
	body = fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>We received a request to reset your password. The link below
		expires in 10 minutes.</p>
		<p><a href="%s">Reset my password</a></p>
		<p>If you did not request this, your account is safe and no action
		is needed.</p>
	`, name, resetURL)
	return subject, body
}

// BookingConfirmationEmail builds the booking received email, sent when
// the booking is created and still awaiting payment
func BookingConfirmationEmail(name, reference, from, to string, totalPrice float64) (subject, body string) {
	subject = fmt.Sprintf("Booking received - %s", reference)
	body = fmt.Sprintf(`
		<h2>Your trip is booked, %s!</h2>
		<p>Booking reference: <strong>%s</strong></p>
		<p>Route: %s to %s</p>
		<p>Total due: ₦%.2f</p>
		<p>Complete your payment to confirm your seat. Safe travels!</p>
	`, name, reference, from, to, totalPrice)
	return subject, body
}

// BookingCancellationEmail builds the cancellation email with the refund owed
func BookingCancellationEmail(name, reference string, refundAmount float64) (subject, body string) {
	subject = fmt.Sprintf("Booking cancelled - %s", reference)
	refundLine := "<p>No refund applies to this booking.</p>"
	if refundAmount > 0 {
		refundLine = fmt.Sprintf("<p>A refund of ₦%.2f will be processed to your payment method.</p>", refundAmount)
	}
	body = fmt.Sprintf(`
		<h2>Hello %s,</h2>
		<p>Your booking <strong>%s</strong> has been cancelled.</p>
		%s
	`, name, reference, refundLine)
	return subject, body
}

// PaymentConfirmationEmail builds the payment receipt email
func PaymentConfirmationEmail(name, paymentReference string, amount float64) (subject, body string) {
	subject = "Payment received"
	body = fmt.Sprintf(`
		<h2>Thank you, %s!</h2>
		<p>We received your payment of ₦%.2f.</p>
		<p>Payment reference: <strong>%s</strong></p>
	`, name, amount, paymentReference)
	return subject, body
}
