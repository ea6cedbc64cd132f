package otel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "disabled is always valid",
			cfg:     Config{Enabled: false, Protocol: "invalid", SampleRatio: -1},
			wantErr: false,
		},
		{
			name:    "valid otlphttp",
			cfg:     Config{Enabled: true, Protocol: ProtocolHTTP, SampleRatio: 0.5},
			wantErr: false,
		},
		{
			name:    "valid otlpgrpc",
			cfg:     Config{Enabled: true, Protocol: ProtocolGRPC, SampleRatio: 1.0},
			wantErr: false,
		},
		{
			name:    "invalid protocol",
			cfg:     Config{Enabled: true, Protocol: "invalid", SampleRatio: 1.0},
			wantErr: true,
		},
		{
			name:    "sample ratio below 0",
			cfg:     Config{Enabled: true, Protocol: ProtocolHTTP, SampleRatio: -0.1},
			wantErr: true,
		},
		{
			name:    "sample ratio above 1",
			cfg:     Config{Enabled: true, Protocol: ProtocolHTTP, SampleRatio: 1.5},
			wantErr: true,
		},
		{
			name:    "https endpoint",
			cfg:     Config{Enabled: true, Protocol: ProtocolHTTP, SampleRatio: 1, Endpoint: "https://collector:4318"},
			wantErr: false,
		},
		{
			name:    "non-http endpoint scheme",
			cfg:     Config{Enabled: true, Protocol: ProtocolGRPC, SampleRatio: 1, Endpoint: "unix:///tmp/otel.sock"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStartSpan_RecordsAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	ctx := WithHandle(context.Background(), InitWithProvider(tp))
	_, _, end := StartSpan(ctx, "propguard.apply",
		attribute.String("propguard.package", "com.pubg.imobile"),
		attribute.String("propguard.branch", "group"),
	)
	end(nil)

	_ = tp.ForceFlush(ctx)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	if s.Name() != "propguard.apply" {
		t.Errorf("span name = %q, want %q", s.Name(), "propguard.apply")
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("span status = %v, want Ok", s.Status().Code)
	}

	found := map[string]string{}
	for _, attr := range s.Attributes() {
		found[string(attr.Key)] = attr.Value.AsString()
	}
	if found["propguard.package"] != "com.pubg.imobile" {
		t.Errorf("propguard.package = %q", found["propguard.package"])
	}
	if found["propguard.branch"] != "group" {
		t.Errorf("propguard.branch = %q", found["propguard.branch"])
	}
}

func TestStartSpan_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	ctx := WithHandle(context.Background(), InitWithProvider(tp))
	_, _, end := StartSpan(ctx, "propguard.attest")
	end(errors.New("blocked"))

	_ = tp.ForceFlush(ctx)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	if s.Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", s.Status().Code)
	}

	foundError := false
	for _, e := range s.Events() {
		if e.Name == "exception" {
			foundError = true
		}
	}
	if !foundError {
		t.Error("expected error event to be recorded")
	}
}

func TestStartSpan_NoHandle(t *testing.T) {
	ctx := context.Background()
	got, span, end := StartSpan(ctx, "propguard.apply")
	if got != ctx {
		t.Error("context should be unchanged without a handle")
	}
	if span.SpanContext().IsValid() {
		t.Error("span should be a no-op without a handle")
	}
	end(errors.New("ignored"))
}

func TestConfig_ResolvedEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit", Config{Protocol: ProtocolGRPC, Endpoint: "collector:4317"}, "collector:4317"},
		{"http default", Config{Protocol: ProtocolHTTP}, "localhost:4318"},
		{"grpc default", Config{Protocol: ProtocolGRPC}, "localhost:4317"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.resolvedEndpoint(); got != tt.want {
				t.Errorf("resolvedEndpoint() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://otel.example:4318")
	if got := (Config{Protocol: ProtocolHTTP}).resolvedEndpoint(); got != "https://otel.example:4318" {
		t.Errorf("env endpoint ignored, got %q", got)
	}
}

func TestNewResource_CarriesScope(t *testing.T) {
	res, err := newResource(Config{}, Scope{Codename: "redfin", Table: "default"})
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}

	found := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		found[kv.Key] = kv.Value.Emit()
	}
	if found[AttrDeviceCodename] != "redfin" {
		t.Errorf("%s = %q", AttrDeviceCodename, found[AttrDeviceCodename])
	}
	if found[AttrTable] != "default" {
		t.Errorf("%s = %q", AttrTable, found[AttrTable])
	}
	if found["service.name"] != "propguard" {
		t.Errorf("service.name = %q, want propguard", found["service.name"])
	}
}

func TestNewResource_OmitsEmptyScope(t *testing.T) {
	res, err := newResource(Config{ServiceName: "gms-host"}, Scope{})
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	for _, kv := range res.Attributes() {
		if kv.Key == AttrDeviceCodename || kv.Key == AttrTable {
			t.Errorf("unexpected attribute %s", kv.Key)
		}
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "ParentBased"},
	}
	for _, tt := range tests {
		if got := newSampler(tt.ratio).Description(); !strings.HasPrefix(got, tt.want) {
			t.Errorf("newSampler(%v) = %q, want prefix %q", tt.ratio, got, tt.want)
		}
	}
}

func TestContextRoundtrip(t *testing.T) {
	// Without handle
	ctx := context.Background()
	if h := From(ctx); h != nil {
		t.Error("expected nil handle from empty context")
	}

	// With handle
	handle := &Handle{}
	ctx = WithHandle(ctx, handle)
	if got := From(ctx); got != handle {
		t.Error("expected to retrieve the same handle from context")
	}
}
