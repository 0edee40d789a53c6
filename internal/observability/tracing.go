package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/gpauusa/sms17-project/internal/logging"
)

// DefaultServiceName is reported as service.name when none is configured.
const DefaultServiceName = "sms-simulator"

const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"

	defaultOTLPEndpoint = "localhost:4317"
	flushTimeout        = 5 * time.Second
)

// TracingConfig selects where simulation spans go.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // stdout | otlp
	Endpoint    string // otlp collector, host:port
	SampleRatio float64

	// Output receives spans from the stdout exporter. Defaults to stderr so
	// that stdout stays free for the run summary.
	Output io.Writer
}

func (cfg TracingConfig) withDefaults() (TracingConfig, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	cfg.Exporter = strings.ToLower(strings.TrimSpace(cfg.Exporter))
	switch cfg.Exporter {
	case "":
		cfg.Exporter = ExporterStdout
	case ExporterStdout:
	case ExporterOTLP, "otlpgrpc":
		cfg.Exporter = ExporterOTLP
	default:
		return cfg, fmt.Errorf("unsupported tracing exporter %q", cfg.Exporter)
	}
	if cfg.Exporter == ExporterOTLP && cfg.Endpoint == "" {
		cfg.Endpoint = defaultOTLPEndpoint
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return cfg, fmt.Errorf("tracing sample ratio %v outside [0, 1]", cfg.SampleRatio)
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return cfg, nil
}

// InitTracing installs the global tracer provider used by the engine's
// setup and run spans. When tracing is disabled a noop provider is
// installed. The returned function flushes and stops the provider.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	exp, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s span exporter: %w", cfg.Exporter, err)
	}

	attrs := []attribute.KeyValue{
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.namespace", "sms"),
	}
	if runID := logging.RunIDFromContext(ctx); runID != "" {
		attrs = append(attrs, attribute.String("sim.run_id", runID))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(samplerFor(cfg.SampleRatio)),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("endpoint", cfg.Endpoint),
		logging.Float64("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}

// samplerFor keeps a whole run in or out of the sample: child spans follow
// their parent's decision.
func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func newSpanExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	if cfg.Exporter == ExporterOTLP {
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
		return otlptrace.New(ctx, client)
	}
	return stdouttrace.New(
		stdouttrace.WithWriter(cfg.Output),
		stdouttrace.WithoutTimestamps(),
	)
}

// ShutdownWithTimeout flushes pending spans, giving up after a few seconds.
// Failures are logged, not returned: the run result is already decided.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
