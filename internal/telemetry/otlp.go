package telemetry

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	constants "taskly/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// OTLPConfig configures the push exporter
type OTLPConfig struct {
	Endpoint string // host:port
	Token    string // optional bearer token
	Insecure bool
	Interval time.Duration
	Version  string
}

// StartOTLP pushes the latest tick to an OTLP/HTTP collector on a fixed
// interval. The returned function flushes and shuts the exporter down.
func StartOTLP(ctx context.Context, cfg OTLPConfig, source StateSource) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTLP endpoint is empty")
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{
			Enabled:         true,
			InitialInterval: 5 * time.Second,
			MaxInterval:     30 * time.Second,
			MaxElapsedTime:  2 * time.Minute,
		}),
		otlpmetrichttp.WithTimeout(30 * time.Second),
	}
	if cfg.Token != "" {
		opts = append(opts, otlpmetrichttp.WithHeaders(map[string]string{
			"Authorization": "Bearer " + cfg.Token,
		}))
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = constants.OTLP_PUSH_INTERVAL * time.Second
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(newResource(cfg.Version)),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)

	if err := RegisterInstruments(provider.Meter("taskly"), source); err != nil {
		provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return provider.Shutdown, nil
}

// Create resource without merging with Default() to avoid schema URL conflicts
func newResource(version string) *resource.Resource {
	hostname, _ := os.Hostname()
	if version == "" {
		version = "dev"
	}
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(constants.APP_NAME),
		semconv.ServiceVersion(version),
		semconv.HostName(hostname),
		attribute.String("os.type", runtime.GOOS),
	)
}

// RegisterInstruments creates observable gauges on meter that read from
// source at collection time
func RegisterInstruments(meter metric.Meter, source StateSource) error {
	_, err := meter.Float64ObservableGauge(
		"taskly.system.cpu",
		metric.WithDescription("System CPU usage"),
		metric.WithUnit("%"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			s := source.Latest()
			if s == nil {
				return nil
			}
			o.Observe(s.Snapshot.CPU.Percent)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = meter.Float64ObservableGauge(
		"taskly.system.memory",
		metric.WithDescription("RAM usage"),
		metric.WithUnit("%"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			s := source.Latest()
			if s == nil {
				return nil
			}
			o.Observe(s.Snapshot.Memory.Percent)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = meter.Float64ObservableGauge(
		"taskly.system.disk",
		metric.WithDescription("Disk usage"),
		metric.WithUnit("%"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			s := source.Latest()
			if s == nil {
				return nil
			}
			o.Observe(s.Snapshot.Disk.Percent, metric.WithAttributes(attribute.String("path", s.Snapshot.Disk.Path)))
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = meter.Float64ObservableGauge(
		"taskly.system.network",
		metric.WithDescription("Network throughput"),
		metric.WithUnit("KiBy/s"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			s := source.Latest()
			if s == nil {
				return nil
			}
			o.Observe(s.Snapshot.Network.UploadKBps, metric.WithAttributes(attribute.String("direction", "up")))
			o.Observe(s.Snapshot.Network.DownloadKBps, metric.WithAttributes(attribute.String("direction", "down")))
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = meter.Float64ObservableGauge(
		"taskly.system.temperature",
		metric.WithDescription("CPU temperature"),
		metric.WithUnit("Cel"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			s := source.Latest()
			if s == nil || s.Snapshot.CPU.TemperatureC == nil {
				return nil
			}
			o.Observe(*s.Snapshot.CPU.TemperatureC)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = meter.Float64ObservableGauge(
		"taskly.system.battery",
		metric.WithDescription("Battery charge level"),
		metric.WithUnit("%"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			s := source.Latest()
			if s == nil || s.Snapshot.Battery.Percent == nil {
				return nil
			}
			o.Observe(*s.Snapshot.Battery.Percent,
				metric.WithAttributes(attribute.Bool("plugged", s.Snapshot.Battery.Plugged)))
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = meter.Int64ObservableGauge(
		"taskly.system.uptime",
		metric.WithDescription("Host uptime"),
		metric.WithUnit("s"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			s := source.Latest()
			if s == nil {
				return nil
			}
			o.Observe(s.Snapshot.System.UptimeSeconds)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = meter.Float64ObservableGauge(
		"taskly.process.cpu",
		metric.WithDescription("CPU usage of top processes"),
		metric.WithUnit("%"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			s := source.Latest()
			if s == nil {
				return nil
			}
			for _, p := range s.Processes {
				o.Observe(p.CPUPercent, metric.WithAttributes(
					attribute.String("pid", strconv.Itoa(int(p.PID))),
					attribute.String("name", p.Name),
				))
			}
			return nil
		}),
	)
	return err
}
