package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer

	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"relay.db"`

	Stripe   Stripe   `envPrefix:"STRIPE_"`
	Firebase Firebase `envPrefix:"FIREBASE_"`
	Auth     Auth     `envPrefix:"AUTH_"`
}

type Stripe struct {
	SecretKey string `env:"SECRET_KEY"`
	// Optional. Without it webhook payloads are trusted as-is, which is
	// only acceptable for local development.
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

// Firebase credentials come either from a service-account bundle on disk or
// from the individual fields; with neither set, application default
// credentials are used.
type Firebase struct {
	CredentialsFile string `env:"CREDENTIALS_FILE"`
	ProjectID       string `env:"PROJECT_ID"`
	ClientEmail     string `env:"CLIENT_EMAIL"`
	PrivateKey      string `env:"PRIVATE_KEY"`
}

type Auth struct {
	// Optional. When set, /api routes require a bearer token and the user
	// id is taken from the token subject instead of the request body.
	JWTSecret string `env:"JWT_SECRET"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"3000"`
}
