package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/BaSui01/promptflow/config"
)

const defaultServiceName = "promptflow"

// NewResource describes this process: service name and version, the
// deployment environment, host and Go runtime, then the configured extra
// attributes. Extra attributes are applied last and win on key clashes.
func NewResource(ctx context.Context, cfg config.TelemetryConfig) (*resource.Resource, error) {
	extra, err := ParseAttributes(cfg.ResourceAttributes)
	if err != nil {
		return nil, err
	}

	name := cfg.ServiceName
	if name == "" {
		name = defaultServiceName
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
		semconv.ServiceVersion(Version()),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}
	attrs = append(attrs, extra...)

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithProcessRuntimeVersion(),
		resource.WithAttributes(attrs...),
	)
	// 部分探测失败时 res 仍可用
	if err != nil && (res == nil || !errors.Is(err, resource.ErrPartialResource)) {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}
	return res, nil
}

// ParseAttributes converts "key=value" entries into string attributes.
// Whitespace around key and value is trimmed; the value may be empty.
func ParseAttributes(entries []string) ([]attribute.KeyValue, error) {
	out := make([]attribute.KeyValue, 0, len(entries))
	for _, entry := range entries {
		k, v, ok := strings.Cut(entry, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("resource attribute %q must be key=value", entry)
		}
		out = append(out, attribute.String(k, strings.TrimSpace(v)))
	}
	return out, nil
}
