package compiler

// Severity grades a diagnostic.
type Severity int

const (
	// SeverityError marks a problem that prevents a usable artifact.
	SeverityError Severity = iota
	// SeverityWarning marks a problem the engine recovered from.
	SeverityWarning
)

// ByteSpan is a half-open byte range into one source's text.
type ByteSpan struct {
	Start int
	End   int
}

// SourceError is one engine-reported problem, located by file handle and
// byte span. It is diagnostic data, never a Go error: a pass that reports
// source errors still completed.
type SourceError struct {
	File     FileID
	Span     ByteSpan
	Severity Severity
	Message  string
}

// Document is the artifact of a full compile pass. Its content is produced
// entirely by the engine; the server only routes it to an export sink.
type Document struct {
	PDF []byte
}

// Module is the artifact of an evaluate pass.
type Module struct {
	Exports map[string]string
}

// Engine is the external incremental compile engine. Both entry points run
// synchronously against the given World, may reentrantly query it (blocking
// on cache fills), and report problems as source errors rather than Go
// errors. Every invocation must be paired with a memoization eviction call
// by the caller.
type Engine interface {
	// Compile runs a full compile pass against w's Main.
	Compile(w World) (*Document, []SourceError)

	// Evaluate runs an evaluation-only pass against w's Main.
	Evaluate(w World) (*Module, []SourceError)
}

// NoopEngine is an Engine that accepts every source and produces empty
// artifacts. It stands in where no real engine is linked, keeping the
// server protocol loop exercisable.
type NoopEngine struct{}

// Compile implements Engine.
func (NoopEngine) Compile(w World) (*Document, []SourceError) {
	_ = w.Main()

	return &Document{}, nil
}

// Evaluate implements Engine.
func (NoopEngine) Evaluate(w World) (*Module, []SourceError) {
	_ = w.Main()

	return &Module{}, nil
}
