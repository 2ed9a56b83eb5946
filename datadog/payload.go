package datadog

// Datadog agent trace payload message hierarchy, with protobuf field numbers.
// A single message type carries both wire generations; an agent populates
// either TracerPayloads (newer) or Traces/Transactions (older), never both.
//
// TracePayload
// ├── hostName: string (1) -> host key on every event
// ├── env: string (2) -> "env"
// ├── traces: APITrace (3, repeated) -> older schema, one event each
// │   ├── traceID: uint64 (1) -> "trace_id" (stored as int64)
// │   ├── spans: Span (2, repeated) -> "spans"
// │   ├── startTime: int64 (6) -> "start_time"
// │   └── endTime: int64 (7) -> "end_time"
// ├── transactions: Span (4, repeated) -> older schema, one dropped event each
// ├── tracerPayloads: TracerPayload (5, repeated) -> newer schema
// │   ├── containerID (1), languageName (2), languageVersion (3),
// │   │   tracerVersion (4), runtimeID (5), appVersion (10): string -> copied verbatim
// │   ├── chunks: TraceChunk (6, repeated) -> one event each
// │   │   ├── priority: int32 (1) -> "priority"
// │   │   ├── origin: string (2) -> "origin"
// │   │   ├── spans: Span (3, repeated) -> "spans"
// │   │   ├── tags: map<string,string> (4) -> "tags", lowest precedence
// │   │   └── droppedTrace: bool (5) -> "dropped"
// │   ├── tags: map<string,string> (7) -> "tags", overrides chunk tags
// │   ├── env: string (8) -> (unused)
// │   └── hostname: string (9) -> (unused)
// ├── tags: map<string,string> (6) -> "tags", overrides everything
// ├── agentVersion: string (7) -> "agent_version"
// ├── targetTPS: double (8) -> "target_tps"
// └── errorTPS: double (9) -> "error_tps"
//
// Span
// ├── service (1), name (2), resource (3), type (12): string
// ├── traceID (4), spanID (5), parentID (6): uint64
// ├── start (7), duration (8): int64 nanoseconds
// ├── error: int32 (9)
// ├── meta: map<string,string> (10)
// ├── metrics: map<string,double> (11)
// └── meta_struct: map<string,bytes> (13)

// TracePayload is the top level message an agent posts to /api/v0.2/traces.
type TracePayload struct {
	HostName       string
	Env            string
	Traces         []*APITrace
	Transactions   []*Span
	TracerPayloads []*TracerPayload
	Tags           map[string]string
	AgentVersion   string
	TargetTPS      float64
	ErrorTPS       float64
}

// TracerPayload groups the trace chunks emitted by one tracer instance.
type TracerPayload struct {
	ContainerID     string
	LanguageName    string
	LanguageVersion string
	TracerVersion   string
	RuntimeID       string
	Chunks          []*TraceChunk
	Tags            map[string]string
	Env             string
	Hostname        string
	AppVersion      string
}

// TraceChunk is a list of spans with the same trace ID, plus the
// trace-level sampling decision.
type TraceChunk struct {
	Priority     int32
	Origin       string
	Spans        []*Span
	Tags         map[string]string
	DroppedTrace bool
}

// APITrace is a trace in the older payload schema.
type APITrace struct {
	TraceID   uint64
	Spans     []*Span
	StartTime int64
	EndTime   int64
}

// Span is a single timed operation.
type Span struct {
	Service    string
	Name       string
	Resource   string
	TraceID    uint64
	SpanID     uint64
	ParentID   uint64
	Start      int64
	Duration   int64
	Error      int32
	Meta       map[string]string
	Metrics    map[string]float64
	Type       string
	MetaStruct map[string][]byte
}
