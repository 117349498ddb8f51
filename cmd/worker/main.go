package main // OTP mail worker entry point

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/iliyamo/hris-auth/internal/config"
	"github.com/iliyamo/hris-auth/internal/queue"
)

// The worker runs as its own process so mail delivery (and its retries)
// can never slow down or crash the API. It consumes otp.email jobs and
// hands them to the configured mailer.
func main() {
	_ = godotenv.Load()

	mailer := queue.NewMailer(config.LoadMail())

	log.Printf("otp mail worker starting (queue=%s)", queue.OTPQueueName)
	if err := queue.StartOTPConsumer(queue.BrokerURL(), mailer); err != nil {
		log.Fatal(err)
	}
}
