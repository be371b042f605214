package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sockheadrps/pycourse/internal/config"
)

func preserveGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func enabledCfg(name string, insecure bool) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_Disabled_NoOp(t *testing.T) {
	preserveGlobals(t)
	prev := otel.GetTracerProvider()

	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "v0")
	if err != nil || shutdown == nil {
		t.Fatalf("shutdown=%v err=%v", shutdown, err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
	if otel.GetTracerProvider() != prev {
		t.Fatalf("disabled tracing must not replace the tracer provider")
	}
}

func TestSetupOTel_InstallsProvider(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		preserveGlobals(t)

		shutdown, err := SetupOTel(context.Background(), enabledCfg("guide-server-test", insecure), "v1.2.3")
		if err != nil {
			t.Fatalf("insecure=%v: %v", insecure, err)
		}
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("expected *sdktrace.TracerProvider")
		}

		carrier := propagation.MapCarrier{}
		ctx, span := otel.Tracer("test").Start(context.Background(), "publish")
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		span.End()
		if carrier.Get("traceparent") == "" {
			t.Fatalf("propagator did not inject traceparent")
		}

		sctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		_ = shutdown(sctx)
		cancel()
	}
}

func TestSetupOTel_ExporterError_LeavesGlobals(t *testing.T) {
	preserveGlobals(t)
	orig := newExporter
	t.Cleanup(func() { newExporter = orig })
	newExporter = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, errors.New("boom-exporter")
	}

	prev := otel.GetTracerProvider()
	if _, err := SetupOTel(context.Background(), enabledCfg("svc", true), "v0"); err == nil {
		t.Fatalf("expected error")
	}
	if otel.GetTracerProvider() != prev {
		t.Fatalf("tracer provider changed on failure")
	}
}

func TestSetupOTel_ResourceError_LeavesGlobals(t *testing.T) {
	preserveGlobals(t)
	orig := newResource
	t.Cleanup(func() { newResource = orig })
	newResource = func(context.Context, string, string) (*resource.Resource, error) {
		return nil, errors.New("boom-resource")
	}

	prev := otel.GetTracerProvider()
	_, err := SetupOTel(context.Background(), enabledCfg("svc", true), "v0")
	if err == nil {
		t.Fatalf("expected error")
	}
	if otel.GetTracerProvider() != prev {
		t.Fatalf("tracer provider changed on failure")
	}
}

func TestGormPlugins(t *testing.T) {
	if got := GormPlugins(config.OTELConfig{Enabled: false}); len(got) != 0 {
		t.Fatalf("expected no plugins when disabled, got %d", len(got))
	}
	got := GormPlugins(config.OTELConfig{Enabled: true})
	if len(got) != 1 || got[0].Name() == "" {
		t.Fatalf("expected the tracing plugin, got %v", got)
	}
}
