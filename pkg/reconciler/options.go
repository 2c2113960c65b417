package reconciler

// options configures a reconciler.
type options struct {
	textOverride bool
}

func defaultOptions() *options {
	return &options{
		textOverride: true,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithTextOverride controls whether a non-empty free-text answer replaces the
// display text of a coded answer to the same question. Enabled by default.
func WithTextOverride(enabled bool) Option {
	return func(o *options) error {
		o.textOverride = enabled
		return nil
	}
}
