package pulldown

// RenderOption configures the ANSI renderer.
type RenderOption func(*renderConfig)

type renderConfig struct {
	osc8     bool
	softWrap bool
}

func newRenderConfig(opts []RenderOption) renderConfig {
	var cfg renderConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithOSC8 enables or disables OSC 8 hyperlinks. With hyperlinks enabled
// paragraphs are not re-wrapped.
func WithOSC8(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.osc8 = enabled
	}
}

// WithSoftWrap breaks words longer than the width instead of letting them
// overflow.
func WithSoftWrap(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.softWrap = enabled
	}
}
