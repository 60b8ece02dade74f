package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	envEndpoint    = "SK_OTEL_ENDPOINT"
	envInsecure    = "SK_OTEL_INSECURE"
	envService     = "SK_OTEL_SERVICE"
	envDialTimeout = "SK_OTEL_DIAL_TIMEOUT"
	envHeaders     = "SK_OTEL_HEADERS"

	defaultService = "sk"
)

type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
	DialTimeout time.Duration
	Headers     map[string]string
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ConfigFromEnv reads SK_OTEL_* variables through getenv; bad values fall back to defaults.
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Config{
		Endpoint:    strings.TrimSpace(getenv(envEndpoint)),
		ServiceName: strings.TrimSpace(getenv(envService)),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultService
	}
	if v := strings.TrimSpace(getenv(envInsecure)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Insecure = b
		}
	}
	if v := strings.TrimSpace(getenv(envDialTimeout)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.DialTimeout = d
		}
	}
	if headers, err := ParseHeaders(getenv(envHeaders)); err == nil {
		cfg.Headers = headers
	}
	return cfg
}

// Merge fills unset fields of c from fallback.
func (c Config) Merge(fallback Config) Config {
	out := c
	if out.Endpoint == "" {
		out.Endpoint = fallback.Endpoint
		out.Insecure = out.Insecure || fallback.Insecure
	}
	if out.ServiceName == "" || out.ServiceName == defaultService {
		if fallback.ServiceName != "" {
			out.ServiceName = fallback.ServiceName
		}
	}
	if out.Version == "" {
		out.Version = fallback.Version
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = fallback.DialTimeout
	}
	if len(out.Headers) == 0 {
		out.Headers = fallback.Headers
	}
	return out
}

// ParseHeaders parses "k=v, k2=v2". Blank input yields nil.
func ParseHeaders(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid header %q: expected key=value", part)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid header %q: empty key", part)
		}
		out[key] = strings.TrimSpace(val)
	}
	return out, nil
}
