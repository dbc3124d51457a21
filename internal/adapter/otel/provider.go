package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/neomorfeo/cinelist/internal/config"
)

// Exporter kinds.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
	ExporterNone   = "none"
)

// Config holds OpenTelemetry provider configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Exporter       string
	// Endpoint overrides the OTLP host:port. Empty uses the exporter's
	// OTEL_EXPORTER_OTLP_ENDPOINT handling.
	Endpoint    string
	Insecure    bool
	SampleRatio float64
	// Output receives stdout exports. Nil means os.Stdout.
	Output io.Writer
}

// ConfigFrom maps the telemetry section of the application config.
// OTLP runs over plain HTTP in development.
func ConfigFrom(cfg config.TelemetryConfig) Config {
	return Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		Exporter:       cfg.Exporter,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Environment == "development",
		SampleRatio:    cfg.SampleRatio,
	}
}

// Providers holds initialized OTel providers and their shutdown function.
type Providers struct {
	Shutdown func(ctx context.Context) error
}

// Setup builds the tracer and meter providers for cfg and installs them as
// the global providers together with the W3C propagators. Shutdown flushes
// both and must run before exit.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	traceOpt, metricOpt, err := exporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating otel resource: %w", err)
	}

	tpOpts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSampler(sampler(cfg.SampleRatio)),
	}
	mpOpts := []metric.Option{metric.WithResource(res)}
	if traceOpt != nil {
		tpOpts = append(tpOpts, traceOpt)
	}
	if metricOpt != nil {
		mpOpts = append(mpOpts, metricOpt)
	}

	tp := trace.NewTracerProvider(tpOpts...)
	mp := metric.NewMeterProvider(mpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Providers{Shutdown: func(ctx context.Context) error {
		err := errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
		if err != nil {
			return fmt.Errorf("otel shutdown: %w", err)
		}
		return nil
	}}, nil
}

// exporters returns the span processor and metric reader options for the
// configured exporter. The "none" exporter returns nil options: spans are
// still created so trace IDs propagate, but nothing leaves the process.
func exporters(ctx context.Context, cfg Config) (trace.TracerProviderOption, metric.Option, error) {
	switch cfg.Exporter {
	case ExporterNone:
		return nil, nil, nil

	case ExporterStdout:
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		spans, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, fmt.Errorf("creating stdout trace exporter: %w", err)
		}
		metrics, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
		if err != nil {
			return nil, nil, fmt.Errorf("creating stdout metric exporter: %w", err)
		}
		return trace.WithBatcher(spans), metric.WithReader(metric.NewPeriodicReader(metrics)), nil

	case ExporterOTLP:
		var traceOpts []otlptracehttp.Option
		var metricOpts []otlpmetrichttp.Option
		if cfg.Endpoint != "" {
			traceOpts = append(traceOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
			metricOpts = append(metricOpts, otlpmetrichttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
			metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
		}
		spans, err := otlptracehttp.New(ctx, traceOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("creating otlp trace exporter: %w", err)
		}
		metrics, err := otlpmetrichttp.New(ctx, metricOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("creating otlp metric exporter: %w", err)
		}
		return trace.WithBatcher(spans), metric.WithReader(metric.NewPeriodicReader(metrics)), nil
	}

	return nil, nil, fmt.Errorf("unsupported exporter: %q (use %q, %q or %q)",
		cfg.Exporter, ExporterStdout, ExporterOTLP, ExporterNone)
}

// sampler honours the parent's decision and samples root spans at ratio.
// Ratios outside (0, 1) sample everything.
func sampler(ratio float64) trace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return trace.ParentBased(trace.AlwaysSample())
	}
	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}
