// Package feature turns unreliable per-provider audio-feature estimates into
// a single trustworthy record: Normalize maps raw fields onto a unit-scaled
// vector and Fuser combines several providers' partial records with
// trust-weighted averaging.
package feature

import (
	"strconv"

	"github.com/echosift/echosift/internal/domain/model"
)

// Raw-range constants for dimension-specific remapping.
const (
	loudnessFloorDB = -60.0
	loudnessRangeDB = 60.0
	tempoMinBPM     = 40.0
	tempoRangeBPM   = 160.0
	keyMax          = 11.0
	durationMinMS   = 30_000.0
	durationMaxMS   = 600_000.0
)

// Raw defaults used when a field is missing before remapping.
const (
	defaultBounded    = 0.5
	defaultLoudnessDB = -30.0
	defaultTempoBPM   = 120.0
	defaultKey        = 0.0
	defaultDurationMS = 200_000.0
)

// bounded features arrive already in [0,1] and only need clamping.
var boundedFeatures = map[string]struct{}{
	model.FeatureAcousticness:     {},
	model.FeatureDanceability:     {},
	model.FeatureEnergy:           {},
	model.FeatureInstrumentalness: {},
	model.FeatureLiveness:         {},
	model.FeatureSpeechiness:      {},
	model.FeatureValence:          {},
}

// Normalize maps a raw heterogeneous feature record to a fixed-order
// unit-scaled vector. It never fails: malformed, missing, and non-numeric
// fields fall back to per-field defaults and every dimension is clamped to
// [0,1]. Providers routinely return partial or garbage data, so total
// defense here keeps the rest of the pipeline honest.
func Normalize(raw map[string]any) model.FeatureVector {
	var vec model.FeatureVector
	for i, name := range model.FeatureNames {
		vec[i] = normalizeField(name, raw[name])
	}
	return vec
}

// NormalizeAudio normalizes an already-numeric record, e.g. a fused one.
func NormalizeAudio(features model.AudioFeatures) model.FeatureVector {
	raw := make(map[string]any, len(features))
	for k, v := range features {
		raw[k] = v
	}
	return Normalize(raw)
}

func normalizeField(name string, value any) float64 {
	if _, ok := boundedFeatures[name]; ok {
		v, ok := toFloat(value)
		if !ok {
			v = defaultBounded
		}
		return clamp01(v)
	}

	switch name {
	case model.FeatureLoudness:
		v, ok := toFloat(value)
		if !ok {
			v = defaultLoudnessDB
		}
		return clamp01((v - loudnessFloorDB) / loudnessRangeDB)
	case model.FeatureTempo:
		v, ok := toFloat(value)
		if !ok {
			v = defaultTempoBPM
		}
		return clamp01((v - tempoMinBPM) / tempoRangeBPM)
	case model.FeatureKey:
		v, ok := toFloat(value)
		if !ok {
			v = defaultKey
		}
		return clamp01(v / keyMax)
	case model.FeatureDurationMS:
		v, ok := toFloat(value)
		if !ok {
			v = defaultDurationMS
		}
		return clamp01((v - durationMinMS) / (durationMaxMS - durationMinMS))
	}
	return defaultBounded
}

// toFloat converts any provider-supplied value to a float64 when possible.
// String values are parsed because some providers serialize numbers as text.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
