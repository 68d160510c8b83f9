package telemetry

// Config holds configuration for OpenTelemetry export.
type Config struct {
	// OTLPEndpoint is the gRPC host:port of the collector. Empty disables export.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" default:""`
	// Insecure disables TLS for the collector connection.
	Insecure bool `mapstructure:"insecure" default:"false"`
	// ServiceName is the service.name resource attribute.
	ServiceName string `mapstructure:"service_name" default:"clinic-manager"`
}

// Enabled reports whether an exporter endpoint is configured.
func (c Config) Enabled() bool {
	return c.OTLPEndpoint != ""
}
