package services

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/yungbote/collabhub-backend/internal/services")

func startSpan(ctx context.Context, name string, projectID uuid.UUID, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if projectID != uuid.Nil {
		attrs = append(attrs, attribute.String("project.id", projectID.String()))
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
