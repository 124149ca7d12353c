package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// These functions provide a convenient way to set common attributes on spans
// and keep attribute naming consistent across the codebase.
//
// Standard keys follow OpenTelemetry semantic conventions (http.*, rpc.*).
// Custom keys use the "ncod.*" namespace.

// Common attribute keys used throughout the system
const (
	// Product attributes
	AttrProductName     = "ncod.product.name"
	AttrProductPlatform = "ncod.product.platform"
	AttrProductType     = "ncod.product.type"

	// Job attributes
	AttrJobID      = "ncod.job.id"
	AttrJobProcess = "ncod.job.process"

	// Pipeline attributes
	AttrStage = "ncod.pipeline.stage"
	AttrRoute = "ncod.pipeline.route"

	// Hub attributes
	AttrHubUUID  = "ncod.hub.uuid"
	AttrHubQuery = "ncod.hub.query"

	// Request attributes
	AttrRequestID = "ncod.request_id"

	// Transfer attributes
	AttrBytes = "ncod.bytes"

	// Error attributes
	AttrErrorType    = "ncod.error.type"
	AttrErrorMessage = "error.message"

	// Retry attributes
	AttrRetryCount = "ncod.retry_count"
)

// SetProductAttributes sets product-related attributes on a span.
//
// Example:
//
//	SetProductAttributes(span, "S1A_IW_GRDH_...", "S1")
func SetProductAttributes(span trace.Span, name, platform string) {
	span.SetAttributes(
		attribute.String(AttrProductName, name),
		attribute.String(AttrProductPlatform, platform),
	)
}

// SetJobAttributes sets job-related attributes on a span.
func SetJobAttributes(span trace.Span, jobID, process string) {
	span.SetAttributes(
		attribute.String(AttrJobID, jobID),
		attribute.String(AttrJobProcess, process),
	)
}

// SetStageAttribute tags a span with the pipeline stage it covers.
func SetStageAttribute(span trace.Span, stage string) {
	span.SetAttributes(attribute.String(AttrStage, stage))
}

// SetHubAttributes sets data hub lookup attributes on a span.
func SetHubAttributes(span trace.Span, uuid string) {
	if uuid != "" {
		span.SetAttributes(attribute.String(AttrHubUUID, uuid))
	}
}

// SetBytesAttribute records a transfer or file size on a span.
func SetBytesAttribute(span trace.Span, n int64) {
	span.SetAttributes(attribute.Int64(AttrBytes, n))
}

// SetErrorAttributes sets error attributes on a span and marks its status.
//
// Example:
//
//	SetErrorAttributes(span, err, "download")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetRetryAttribute records how many retries an operation needed.
func SetRetryAttribute(span trace.Span, retryCount int) {
	if retryCount > 0 {
		span.SetAttributes(attribute.Int(AttrRetryCount, retryCount))
	}
}

// AddEvent adds a timestamped event to the span.
//
// Example:
//
//	AddEvent(span, "archive.unpacked", attribute.Int64("ncod.bytes", size))
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordException records an exception event on the span.
func RecordException(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err, trace.WithAttributes(
		attribute.String("exception.type", fmt.Sprintf("%T", err)),
	))
}

// AttributeBuilder accumulates span attributes fluently, for call sites that
// assemble them across several steps before starting the span.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates an empty builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithProduct adds product attributes.
func (ab *AttributeBuilder) WithProduct(name, platform string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrProductName, name),
		attribute.String(AttrProductPlatform, platform),
	)
	return ab
}

// WithJob adds job attributes.
func (ab *AttributeBuilder) WithJob(jobID, process string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrJobID, jobID),
		attribute.String(AttrJobProcess, process),
	)
	return ab
}

// WithStage adds the pipeline stage.
func (ab *AttributeBuilder) WithStage(stage string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrStage, stage))
	return ab
}

// WithRoute adds the publication route.
func (ab *AttributeBuilder) WithRoute(route string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrRoute, route))
	return ab
}

// WithCustom adds an arbitrary key/value attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns a SpanStartOption carrying the accumulated attributes.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply sets the accumulated attributes on an existing span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the accumulated attributes.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
