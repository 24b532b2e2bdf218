// Package wire holds the Zipkin v2 wire-compatible types exchanged over the
// HTTP span ingestion and query endpoints.
package wire

import "strings"

// Kind mirrors Zipkin's span.kind enumeration. An unrecognised string falls
// back to CLIENT.
type Kind string

const (
	KindClient   Kind = "CLIENT"
	KindServer   Kind = "SERVER"
	KindProducer Kind = "PRODUCER"
	KindConsumer Kind = "CONSUMER"
)

func ParseKind(s string) Kind {
	switch strings.ToUpper(s) {
	case string(KindServer):
		return KindServer
	case string(KindProducer):
		return KindProducer
	case string(KindConsumer):
		return KindConsumer
	case string(KindClient):
		return KindClient
	default:
		return KindClient
	}
}

// Endpoint describes one side of a span's network context.
type Endpoint struct {
	ServiceName *string `json:"serviceName,omitempty"`
	IPv4        *string `json:"ipv4,omitempty"`
	IPv6        *string `json:"ipv6,omitempty"`
	Port        *int32  `json:"port,omitempty"`
}

// Annotation is a single timestamped event attached to a span.
type Annotation struct {
	Timestamp int64  `json:"timestamp"`
	Value     string `json:"value"`
}

// Span is the Zipkin v2 compatible wire representation accepted by
// POST /api/v1/spans and returned by the trace/span query endpoints.
type Span struct {
	TraceID        string            `json:"traceId"`
	ID             string            `json:"id"`
	ParentID       *string           `json:"parentId,omitempty"`
	Name           *string           `json:"name,omitempty"`
	Kind           *string           `json:"kind,omitempty"`
	Timestamp      *int64            `json:"timestamp,omitempty"`
	Duration       *int64            `json:"duration,omitempty"`
	Debug          bool              `json:"debug"`
	Shared         bool              `json:"shared"`
	LocalEndpoint  *Endpoint         `json:"localEndpoint,omitempty"`
	RemoteEndpoint *Endpoint         `json:"remoteEndpoint,omitempty"`
	Annotations    []Annotation      `json:"annotations,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
}

// MaxNameLength is the write-time truncation bound for Span.Name, chosen
// for determinism per the storage layer's write contract.
const MaxNameLength = 250

// NormalizeName lower-cases and truncates a span or test-item name the way
// the store does at write time.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	if len(name) > MaxNameLength {
		return name[:MaxNameLength]
	}
	return name
}
