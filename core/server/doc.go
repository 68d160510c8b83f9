// Package server holds the HTTP server configuration.
//
// The Config struct defines the listen port, the credentials accepted by the
// auth middleware (an API key and an HS256 JWT secret) and how long finished
// background jobs remain available for polling.
//
// This package is embedded by core/config and read by the start command.
package server
