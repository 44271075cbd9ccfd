package fizz

// Diagnostic is one entry accumulated while parsing or lowering
// source text.
type Diagnostic struct {
	Kind    ErrorKind
	Message string
	Span    Span
}

// Diagnostics is an append-only sink shared by the parser and the IR
// builder; the tokenizer records nothing into it. It accumulates within one operation and is cleared
// between operations at the host's discretion — it is not reset
// automatically on every call, so a host that wants a clean slate per
// evaluation should call Reset itself.
type Diagnostics struct {
	entries []Diagnostic
}

func newDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

func (d *Diagnostics) Add(kind ErrorKind, message string, span Span) {
	d.entries = append(d.entries, Diagnostic{Kind: kind, Message: message, Span: span})
}

func (d *Diagnostics) All() []Diagnostic {
	return d.entries
}

func (d *Diagnostics) Reset() {
	d.entries = d.entries[:0]
}
