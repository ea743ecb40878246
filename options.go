package bloom

type settings struct {
	digest    Digest
	canonical Canonicalizer
	logger    Logger
	hooks     *Hooks
}

type Option func(*settings)

// WithDigest forces the hash used for index derivation instead of the
// digest carried by Params.
func WithDigest(digest Digest) Option {
	return func(s *settings) {
		s.digest = digest
	}
}

func WithCanonicalizer(canonical Canonicalizer) Option {
	return func(s *settings) {
		s.canonical = canonical
	}
}

func WithLogger(logger Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func WithHooks(hooks *Hooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		canonical: defaultCanonicalizer,
		logger:    StdLogger(nil),
		hooks:     NewHooks(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
