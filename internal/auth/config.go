// Package auth provides identity: magic link email, sessions, API keys and
// passkeys. Its middleware resolves each request to a rules.Auth.
package auth

// Config holds authentication and mail configuration.
type Config struct {
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
	DevMode  bool
	BaseURL  string // e.g. http://localhost:8080
}
