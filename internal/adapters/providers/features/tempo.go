// Package features holds the audio-feature providers fed into fusion. Each
// provider carries a fixed trust weight reflecting how reliable its numbers
// are; fusion uses the weight when providers disagree.
package features

import (
	"context"
	"fmt"

	"github.com/echosift/echosift/internal/domain/model"
)

// Trust weights per source.
const (
	tempoTrust    = 0.6
	analysisTrust = 0.8
)

// Tempo estimation constants. Energy is derived from BPM on the assumption
// that faster tracks are more energetic, which holds often enough for a
// low-trust source.
const (
	tempoEnergyFloorBPM    = 60
	tempoEnergyRangeBPM    = 140
	danceabilityFromEnergy = 1.2

	tempoDefaultLoudness         = -8.0
	tempoDefaultAcousticness     = 0.5
	tempoDefaultInstrumentalness = 0.3
	tempoDefaultLiveness         = 0.1
	tempoDefaultSpeechiness      = 0.1
	tempoDefaultValence          = 0.5
)

// TempoSource resolves a track to its catalog BPM and duration.
type TempoSource interface {
	TrackTempo(ctx context.Context, trackName, artistName string) (bpm, durationMS float64, err error)
}

// TempoEstimator derives a coarse feature set from catalog BPM data.
type TempoEstimator struct {
	source TempoSource
}

// NewTempoEstimator creates a tempo-based feature provider.
func NewTempoEstimator(source TempoSource) *TempoEstimator {
	return &TempoEstimator{source: source}
}

// Name implements the fusion provider contract.
func (t *TempoEstimator) Name() string { return "tempo-estimate" }

// Trust implements the fusion provider contract.
func (t *TempoEstimator) Trust() float64 { return tempoTrust }

// Features estimates a full feature set from BPM alone. Fields the estimate
// cannot speak to get neutral values rather than being omitted, matching how
// a listener-facing score treats unknowns.
func (t *TempoEstimator) Features(ctx context.Context, trackName, artistName string) (map[string]any, error) {
	bpm, durationMS, err := t.source.TrackTempo(ctx, trackName, artistName)
	if err != nil {
		return nil, err
	}
	if bpm <= 0 {
		return nil, fmt.Errorf("no tempo data for %q by %q", trackName, artistName)
	}

	energy := (bpm - tempoEnergyFloorBPM) / tempoEnergyRangeBPM
	if energy < 0 {
		energy = 0
	}
	if energy > 1 {
		energy = 1
	}
	danceability := energy * danceabilityFromEnergy
	if danceability > 1 {
		danceability = 1
	}

	out := map[string]any{
		model.FeatureTempo:            bpm,
		model.FeatureEnergy:           energy,
		model.FeatureDanceability:     danceability,
		model.FeatureLoudness:         tempoDefaultLoudness,
		model.FeatureAcousticness:     tempoDefaultAcousticness,
		model.FeatureInstrumentalness: tempoDefaultInstrumentalness,
		model.FeatureLiveness:         tempoDefaultLiveness,
		model.FeatureSpeechiness:      tempoDefaultSpeechiness,
		model.FeatureValence:          tempoDefaultValence,
		model.FeatureKey:              0.0,
	}
	if durationMS > 0 {
		out[model.FeatureDurationMS] = durationMS
	}
	return out, nil
}
