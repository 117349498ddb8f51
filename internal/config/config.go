package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses TTL durations
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Signing secrets for access and refresh tokens
// are deliberately separate: leaking one key class must not allow forging
// tokens of the other.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	AccessSecret   string        // secret used to sign access tokens
	RefreshSecret  string        // secret used to sign refresh tokens
	AccessTTLMin   int           // access token time-to-live in minutes
	RefreshTTLDays int           // refresh token time-to-live in days
	SessionTTL     time.Duration // lifetime of cached user snapshots
	OTPTTL         time.Duration // validity window of password-reset codes
	BcryptCost     int           // bcrypt cost for password hashing
	CompanyDomain  string        // default e-mail domain accepted at login (empty disables the check)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  An empty signing
// secret is a startup misconfiguration, never something to sign with.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		AccessSecret:   must("JWT_ACCESS_SECRET"),
		RefreshSecret:  must("JWT_REFRESH_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		SessionTTL:     envDur("SESSION_CACHE_TTL", 3*time.Hour),
		OTPTTL:         envDur("OTP_TTL", 5*time.Minute),
		BcryptCost:     mustInt("BCRYPT_COST"),
		CompanyDomain:  os.Getenv("COMPANY_DOMAIN"),
	}
}

// MailConfig holds SMTP settings for the OTP delivery worker.  When Host is
// empty the worker falls back to appending outgoing mail to a local log
// file instead of talking to an SMTP server.
type MailConfig struct {
	Host     string // SMTP server host
	Port     string // SMTP server port
	Username string // SMTP auth username
	Password string // SMTP auth password
	From     string // sender address on outgoing mail
}

// LoadMail reads SMTP settings.  All values are optional so that dev
// environments without a mail server still run the worker.
func LoadMail() MailConfig {
	return MailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     envStr("SMTP_PORT", "587"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     envStr("SMTP_FROM", "no-reply@localhost"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
