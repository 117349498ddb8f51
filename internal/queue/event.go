// Package queue defines the OTP delivery job exchanged over the message
// broker, the publisher that enqueues it and the worker-side consumer that
// turns it into an outgoing e-mail.
package queue

// OTPQueueName is the durable queue carrying password-reset codes from the
// API to the mail worker.
const OTPQueueName = "otp.email"

// OTPEmailEvent is published whenever a password-reset code is generated.
// It contains everything the worker needs to send the mail without
// querying the primary database.
type OTPEmailEvent struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
