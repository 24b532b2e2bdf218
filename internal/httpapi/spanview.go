package httpapi

import (
	"context"

	"github.com/arc-self/apps/trace-insights/internal/store"
	"github.com/arc-self/apps/trace-insights/internal/wire"
)

func (h *handlers) toWireSpan(ctx context.Context, rec store.SpanRecord) (wire.Span, error) {
	span := wire.Span{
		TraceID:     rec.TraceID,
		ID:          rec.ID,
		ParentID:    rec.ParentID,
		Name:        rec.Name,
		Timestamp:   rec.Timestamp,
		Duration:    rec.Duration,
		Debug:       rec.Debug,
		Shared:      rec.Shared,
		Annotations: rec.Annotations,
		Tags:        rec.Tags,
	}
	if rec.Kind != nil {
		k := string(wire.ParseKind(*rec.Kind))
		span.Kind = &k
	}

	if rec.LocalEndpointID != nil {
		ep, err := h.toWireEndpoint(ctx, *rec.LocalEndpointID)
		if err != nil {
			return wire.Span{}, err
		}
		span.LocalEndpoint = ep
	}
	if rec.RemoteEndpointID != nil {
		ep, err := h.toWireEndpoint(ctx, *rec.RemoteEndpointID)
		if err != nil {
			return wire.Span{}, err
		}
		span.RemoteEndpoint = ep
	}
	return span, nil
}

func (h *handlers) toWireEndpoint(ctx context.Context, id string) (*wire.Endpoint, error) {
	ep, ok, err := h.querier.GetEndpoint(ctx, id)
	if err != nil || !ok {
		return nil, err
	}
	return &wire.Endpoint{ServiceName: ep.ServiceName, IPv4: ep.IPv4, IPv6: ep.IPv6, Port: ep.Port}, nil
}

func (h *handlers) toWireSpans(ctx context.Context, recs []store.SpanRecord) ([]wire.Span, error) {
	out := make([]wire.Span, 0, len(recs))
	for _, rec := range recs {
		sp, err := h.toWireSpan(ctx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}
