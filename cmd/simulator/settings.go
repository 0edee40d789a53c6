package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/gpauusa/sms17-project/internal/observability"
)

// settings are the process-level knobs that do not change simulation
// results: logging, the metrics listener and tracing.
type settings struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
	Tracing     observability.TracingConfig
}

// loadSettings reads optional settings from path, then lets SMS_* environment
// variables override them (SMS_LOG_LEVEL, SMS_METRICS_ADDR,
// SMS_TRACING_ENABLED, SMS_OTLP_ENDPOINT, ...).
func loadSettings(path string) (settings, error) {
	v := viper.New()
	v.SetEnvPrefix("SMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.service_name", observability.DefaultServiceName)
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("otlp.endpoint", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("read settings %q: %w", path, err)
		}
	}

	ratio := v.GetFloat64("tracing.sample_ratio")
	if ratio < 0 || ratio > 1 {
		return settings{}, fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %v", ratio)
	}

	return settings{
		LogLevel:    v.GetString("log.level"),
		LogFormat:   v.GetString("log.format"),
		MetricsAddr: v.GetString("metrics.addr"),
		Tracing: observability.TracingConfig{
			Enabled:     v.GetBool("tracing.enabled"),
			ServiceName: v.GetString("tracing.service_name"),
			Exporter:    strings.ToLower(v.GetString("tracing.exporter")),
			Endpoint:    v.GetString("otlp.endpoint"),
			SampleRatio: ratio,
		},
	}, nil
}
