package fluxion

// Options configures a reduction.
type Options struct {
	// Logger receives stage and diagnostic output. nil means silent.
	Logger Logger

	// Singularity scan for extracted leading coefficients
	SingularTol     float64 // reject when |coeff| falls at or under this (default: 1e-12)
	SingularSamples int     // sample points across the domain, breakpoints added on top (default: 257)
}

// DefaultOptions returns the default reduction configuration.
func DefaultOptions() Options {
	return Options{
		Logger:          NopLogger(),
		SingularTol:     1e-12,
		SingularSamples: 257,
	}
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = NopLogger()
	}
	if o.SingularTol <= 0 {
		o.SingularTol = 1e-12
	}
	if o.SingularSamples <= 0 {
		o.SingularSamples = 257
	}
	return o
}
