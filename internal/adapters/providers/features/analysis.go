package features

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/echosift/echosift/internal/adapters/providers/httpx"
	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/pkg/logger"
)

// keyIndex maps tonal key names onto the 0-11 pitch-class scale.
var keyIndex = map[string]float64{
	"c": 0, "c#": 1, "db": 1, "d": 2, "d#": 3, "eb": 3, "e": 4, "f": 5,
	"f#": 6, "gb": 6, "g": 7, "g#": 8, "ab": 8, "a": 9, "a#": 10, "bb": 10, "b": 11,
}

// AnalysisOption applies a configuration option to the AnalysisProvider.
type AnalysisOption func(*AnalysisProvider)

// WithAnalysisHTTP swaps the analysis endpoint client, mainly for tests.
func WithAnalysisHTTP(h *httpx.Client) AnalysisOption {
	return func(a *AnalysisProvider) {
		if h != nil {
			a.analysis = h
		}
	}
}

// WithLookupHTTP swaps the recording-lookup client, mainly for tests.
func WithLookupHTTP(h *httpx.Client) AnalysisOption {
	return func(a *AnalysisProvider) {
		if h != nil {
			a.lookup = h
		}
	}
}

// WithAnalysisLogger sets a custom logger for the provider.
func WithAnalysisLogger(l logger.Logger) AnalysisOption {
	return func(a *AnalysisProvider) {
		if l != nil {
			a.logger = l
		}
	}
}

// AnalysisProvider fetches precomputed signal-analysis features. Tracks are
// addressed by recording ID, so each fetch is a two-step: resolve the ID by
// name and artist, then pull the low-level analysis record.
type AnalysisProvider struct {
	analysisBaseURL string
	lookupBaseURL   string
	analysis        *httpx.Client
	lookup          *httpx.Client
	logger          logger.Logger
}

// NewAnalysisProvider creates an analysis-backed feature provider.
func NewAnalysisProvider(analysisBaseURL, lookupBaseURL string, opts ...AnalysisOption) *AnalysisProvider {
	a := &AnalysisProvider{
		analysisBaseURL: analysisBaseURL,
		lookupBaseURL:   lookupBaseURL,
		analysis:        httpx.New("analysis"),
		lookup:          httpx.New("recording-lookup"),
		logger:          logger.Named("analysis"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements the fusion provider contract.
func (a *AnalysisProvider) Name() string { return "audio-analysis" }

// Trust implements the fusion provider contract.
func (a *AnalysisProvider) Trust() float64 { return analysisTrust }

// Wire types.

type recordingSearchResponse struct {
	Recordings []struct {
		ID string `json:"id"`
	} `json:"recordings"`
}

type lowLevelResponse struct {
	Rhythm struct {
		BPM          float64 `json:"bpm"`
		Danceability float64 `json:"danceability"`
		BeatsLoud    struct {
			Mean float64 `json:"mean"`
		} `json:"beats_loudness"`
	} `json:"rhythm"`
	Tonal struct {
		Key string `json:"key_key"`
	} `json:"tonal"`
	LowLevel struct {
		AverageLoudness float64 `json:"average_loudness"`
	} `json:"lowlevel"`
}

// Features returns the fields the analysis database actually measures;
// fusion fills the rest from other providers or defaults.
func (a *AnalysisProvider) Features(ctx context.Context, trackName, artistName string) (map[string]any, error) {
	recordingID, err := a.findRecording(ctx, trackName, artistName)
	if err != nil {
		return nil, err
	}

	var resp lowLevelResponse
	if err := a.analysis.GetJSON(ctx, a.analysisBaseURL+"/"+url.PathEscape(recordingID)+"/low-level", &resp); err != nil {
		return nil, err
	}

	energy := resp.Rhythm.BeatsLoud.Mean
	if energy > 1 {
		energy = 1
	}

	out := map[string]any{
		model.FeatureTempo:    resp.Rhythm.BPM,
		model.FeatureLoudness: resp.LowLevel.AverageLoudness,
		model.FeatureEnergy:   energy,
	}
	if key, ok := keyIndex[strings.ToLower(resp.Tonal.Key)]; ok {
		out[model.FeatureKey] = key
	}
	if resp.Rhythm.Danceability > 0 {
		d := resp.Rhythm.Danceability
		if d > 1 {
			d = 1
		}
		out[model.FeatureDanceability] = d
	}
	return out, nil
}

func (a *AnalysisProvider) findRecording(ctx context.Context, trackName, artistName string) (string, error) {
	q := url.Values{}
	q.Set("query", fmt.Sprintf("recording:%q AND artist:%q", trackName, artistName))
	q.Set("fmt", "json")
	q.Set("limit", "1")

	var resp recordingSearchResponse
	if err := a.lookup.GetJSON(ctx, a.lookupBaseURL+"/recording?"+q.Encode(), &resp); err != nil {
		return "", err
	}
	if len(resp.Recordings) == 0 {
		return "", fmt.Errorf("no recording found for %q by %q", trackName, artistName)
	}
	return resp.Recordings[0].ID, nil
}
