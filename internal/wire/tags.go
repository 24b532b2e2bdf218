package wire

// OpenTracing standard tag names (semantic conventions v1.1).
const (
	TagComponent             = "component"
	TagDbInstance             = "db.instance"
	TagDbStatement            = "db.statement"
	TagDbType                 = "db.type"
	TagDbUser                 = "db.user"
	TagError                  = "error"
	TagHTTPMethod             = "http.method"
	TagHTTPStatusCode         = "http.status_code"
	TagHTTPUrl                = "http.url"
	TagMessageBusDestination  = "message_bus.destination"
	TagPeerAddress            = "peer.address"
	TagPeerHostname           = "peer.hostname"
	TagPeerIpv4               = "peer.ipv4"
	TagPeerIpv6               = "peer.ipv6"
	TagPeerPort               = "peer.port"
	TagPeerService            = "peer.service"
	TagSamplingPriority       = "sampling.priority"
	TagSpanKind               = "span.kind"
)

// Test-result derivation tags.
const (
	TagTestClass          = "test.class"
	TagTestEnvironment    = "test.environment"
	TagTestName           = "test.name"
	TagTestResult         = "test.result"
	TagTestStepParameters = "test.step_parameters"
	TagTestStepStatus     = "test.step_status"
	TagTestStepType       = "test.step_type"
	TagTestSuite          = "test.suite"
)
