package feature

import (
	"context"
	"time"

	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/pkg/fanout"
	"github.com/echosift/echosift/pkg/logger"
	"github.com/echosift/echosift/pkg/metrics"
)

// Default fusion configuration constants.
const (
	defaultProviderTimeout = 8 * time.Second
)

// Provider supplies a (possibly partial) raw feature record for a track.
// Implementations wrap one upstream source each; a provider that cannot
// answer returns an error and is simply absent from the fused result.
type Provider interface {
	// Name identifies the provider in provenance and metrics.
	Name() string

	// Trust is the provider's fixed reliability weight. Higher means its
	// values dominate the weighted average.
	Trust() float64

	// Features fetches the raw record. Fields may be missing or non-numeric.
	Features(ctx context.Context, trackName, artistName string) (map[string]any, error)
}

// Option applies a configuration option to the Fuser.
type Option func(*Fuser)

// WithProviderTimeout sets the per-provider fetch timeout.
func WithProviderTimeout(d time.Duration) Option {
	return func(f *Fuser) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the fuser.
func WithLogger(l logger.Logger) Option {
	return func(f *Fuser) {
		if l != nil {
			f.logger = l
		}
	}
}

// Fuser queries feature providers in parallel and combines their answers
// into one complete record.
type Fuser struct {
	providers []Provider
	timeout   time.Duration
	logger    logger.Logger
}

// NewFuser creates a Fuser over the given providers.
func NewFuser(providers []Provider, opts ...Option) *Fuser {
	f := &Fuser{
		providers: providers,
		timeout:   defaultProviderTimeout,
		logger:    logger.Named("fusion"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Defaults returns the neutral feature record used when no provider answers
// for a field.
func Defaults() model.AudioFeatures {
	return model.AudioFeatures{
		model.FeatureAcousticness:     0.5,
		model.FeatureDanceability:     0.5,
		model.FeatureEnergy:           0.5,
		model.FeatureInstrumentalness: 0.5,
		model.FeatureLiveness:         0.1,
		model.FeatureLoudness:         -10.0,
		model.FeatureSpeechiness:      0.1,
		model.FeatureTempo:            120.0,
		model.FeatureValence:          0.5,
		model.FeatureDurationMS:       200_000,
		model.FeatureKey:              0,
	}
}

// Fuse fetches from every provider concurrently and returns the combined
// record. It never fails: providers that error or time out are dropped, and
// with zero answers the neutral defaults are returned. The result always
// carries all 11 canonical fields.
func (f *Fuser) Fuse(ctx context.Context, trackName, artistName string) *model.FusedFeatures {
	tasks := make([]fanout.Task[map[string]any], len(f.providers))
	for i, p := range f.providers {
		p := p
		tasks[i] = fanout.Task[map[string]any]{
			Name: p.Name(),
			Run: func(ctx context.Context) (map[string]any, error) {
				return p.Features(ctx, trackName, artistName)
			},
		}
	}

	results := fanout.Run(ctx, tasks,
		fanout.WithWorkers(len(f.providers)),
		fanout.WithTimeout(f.timeout),
	)

	answered := make(map[string]map[string]any, len(results))
	for _, r := range results {
		if !r.OK() || r.Value == nil {
			if r.Err != nil {
				f.logger.Debug(ctx, "feature provider unavailable",
					logger.String("provider", r.Name),
					logger.Error(r.Err),
				)
			}
			continue
		}
		answered[r.Name] = r.Value
	}
	metrics.RecordFusionSources(len(answered))

	return &model.FusedFeatures{
		Features:    f.combine(answered),
		Sources:     sourceNames(answered),
		SourceCount: len(answered),
	}
}

// combine merges answered records. One source is used verbatim after
// default-filling; several are averaged per field, each value weighted by
// its provider's trust.
func (f *Fuser) combine(answered map[string]map[string]any) model.AudioFeatures {
	defaults := Defaults()
	if len(answered) == 0 {
		return defaults
	}

	if len(answered) == 1 {
		for _, record := range answered {
			return fillDefaults(record, defaults)
		}
	}

	combined := make(model.AudioFeatures, model.NumFeatures)
	for _, field := range model.FeatureNames {
		var weightedSum, totalWeight float64
		for source, record := range answered {
			value, ok := toFloat(record[field])
			if !ok {
				continue
			}
			weight := f.trustFor(source)
			weightedSum += value * weight
			totalWeight += weight
		}
		if totalWeight > 0 {
			combined[field] = weightedSum / totalWeight
		} else {
			combined[field] = defaults[field]
		}
	}
	return combined
}

func (f *Fuser) trustFor(name string) float64 {
	for _, p := range f.providers {
		if p.Name() == name {
			return p.Trust()
		}
	}
	return 0.5
}

func fillDefaults(record map[string]any, defaults model.AudioFeatures) model.AudioFeatures {
	out := make(model.AudioFeatures, model.NumFeatures)
	for _, field := range model.FeatureNames {
		if value, ok := toFloat(record[field]); ok {
			out[field] = value
		} else {
			out[field] = defaults[field]
		}
	}
	return out
}

func sourceNames(answered map[string]map[string]any) []string {
	names := make([]string, 0, len(answered))
	for name := range answered {
		names = append(names, name)
	}
	return names
}
