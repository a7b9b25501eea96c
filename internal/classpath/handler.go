package classpath

// Handler is a strategy matched against a Provider by Claims; the first
// registered Handler whose Claims returns true is used to extract that
// provider's roots. Modeled on the scheduler's JobSource strategy registry
// (internal/scheduler/source): an ordered list of predicate/behavior pairs
// rather than an inheritance hierarchy, dispatched by a registry instead of
// a type switch so new provider kinds can be added without touching the
// resolver.
type Handler interface {
	// Claims reports whether this handler knows how to extract roots from
	// p. Checked in registration order; the first match wins.
	Claims(p Provider) bool

	// Extract returns the raw path entries claimed from p, plus any
	// additional child providers discovered while doing so (for example a
	// handler that understands a manifest-declared Class-Path may hand back
	// a synthetic child provider per extra jar).
	Extract(p Provider) (entries []string, children []Provider, err error)
}

// Registry holds an ordered list of Handlers.
type Registry struct {
	handlers []Handler
}

// NewRegistry builds an empty Registry. Register provider-specific handlers
// first, then call RegisterDefault last to fall back to a provider's own
// Entries() when nothing more specific claims it.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a handler. Order matters: ties between handlers that
// both claim the same provider are broken first-registered-wins.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Resolve finds the first handler that claims p and extracts through it.
// Returns false if no handler claims the provider.
func (r *Registry) Resolve(p Provider) (entries []string, children []Provider, ok bool, err error) {
	for _, h := range r.handlers {
		if h.Claims(p) {
			entries, children, err = h.Extract(p)
			return entries, children, true, err
		}
	}
	return nil, nil, false, nil
}

// defaultHandler claims every provider by falling back to its own Entries
// method. Registered last by RegisterDefault so that more specific
// handlers (matched by provider name or a type assertion on a narrower
// interface) get first refusal.
type defaultHandler struct{}

func (defaultHandler) Claims(p Provider) bool { return true }

func (defaultHandler) Extract(p Provider) ([]string, []Provider, error) {
	entries, err := p.Entries()
	if err != nil {
		return nil, nil, err
	}
	return entries, nil, nil
}

// RegisterDefault appends the catch-all handler. Call this last, after all
// provider-specific handlers have been registered.
func (r *Registry) RegisterDefault() {
	r.Register(defaultHandler{})
}
