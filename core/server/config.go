package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key accepted in the X-API-Key header.
	ApiKey string `mapstructure:"api_key" default:""`
	// JWTSecret is the HS256 secret for bearer tokens.
	JWTSecret string `mapstructure:"jwt_secret" default:""`
	// JobRetentionMinutes is how long finished jobs stay pollable.
	JobRetentionMinutes int `mapstructure:"job_retention_minutes" default:"60"`
}

// AuthEnabled reports whether any credential is configured.
func (c Config) AuthEnabled() bool {
	return c.ApiKey != "" || c.JWTSecret != ""
}

// Addr returns the listen address.
func (c Config) Addr() string {
	if c.Port == "" {
		return ":8080"
	}
	return ":" + c.Port
}
