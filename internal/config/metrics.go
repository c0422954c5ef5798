package config

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const configMeterName = "kenacbank-auth-service"

var configEvents = struct {
	once    sync.Once
	counter metric.Int64Counter
}{}

// recordConfigValidationEvent counts Load outcomes so a crash-looping
// deployment with a bad environment shows up in metrics, not just logs.
func recordConfigValidationEvent(ctx context.Context, profile, outcome, errorClass string) {
	configEvents.once.Do(func() {
		if counter, err := otel.Meter(configMeterName).Int64Counter("config.validation.events"); err == nil {
			configEvents.counter = counter
		}
	})
	if configEvents.counter == nil {
		return
	}
	configEvents.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("profile", normalizeConfigProfile(profile)),
		attribute.String("outcome", outcome),
		attribute.String("error_class", errorClass),
	))
}

func normalizeConfigProfile(profile string) string {
	p := strings.TrimSpace(strings.ToLower(profile))
	if p == "" {
		return "unknown"
	}
	return p
}

func classifyConfigLoadError(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "validate config:"):
		return "validation"
	case strings.Contains(msg, "parse "):
		return "parse"
	default:
		return "load"
	}
}
