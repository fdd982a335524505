// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
)

// Feature dimension names in canonical order. Every feature vector and
// weight table in the engine is indexed by this order.
const (
	FeatureEnergy           = "energy"
	FeatureValence          = "valence"
	FeatureDanceability     = "danceability"
	FeatureTempo            = "tempo"
	FeatureAcousticness     = "acousticness"
	FeatureInstrumentalness = "instrumentalness"
	FeatureSpeechiness      = "speechiness"
	FeatureLiveness         = "liveness"
	FeatureLoudness         = "loudness"
	FeatureKey              = "key"
	FeatureDurationMS       = "duration_ms"
)

// FeatureNames lists the canonical dimension order.
var FeatureNames = []string{
	FeatureEnergy,
	FeatureValence,
	FeatureDanceability,
	FeatureTempo,
	FeatureAcousticness,
	FeatureInstrumentalness,
	FeatureSpeechiness,
	FeatureLiveness,
	FeatureLoudness,
	FeatureKey,
	FeatureDurationMS,
}

// NumFeatures is the dimensionality of a feature vector.
const NumFeatures = 11

// FeatureVector is a unit-scaled vector in canonical dimension order.
// Every element is in [0,1] once produced by the normalizer.
type FeatureVector [NumFeatures]float64

// AudioFeatures is a raw (unnormalized) feature record keyed by canonical
// dimension name: tempo in BPM, loudness in dB, duration in milliseconds.
type AudioFeatures map[string]float64

// FusedFeatures is an AudioFeatures record plus provenance about which
// providers contributed. All 11 canonical fields are always present.
type FusedFeatures struct {
	Features    AudioFeatures `json:"features"`
	Sources     []string      `json:"sources"`
	SourceCount int           `json:"source_count"`
}

// TrackSummary is the catalog's view of a track.
type TrackSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artist      string   `json:"artist"`
	Album       string   `json:"album"`
	ImageURL    string   `json:"image_url,omitempty"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	Popularity  int      `json:"popularity"`
	ReleaseDate string   `json:"release_date"`
	ArtistIDs   []string `json:"artist_ids,omitempty"`
}

// SimilarMatch is one entry from the community-similarity provider.
type SimilarMatch struct {
	Artist string
	Track  string
	Score  float64
}

// EnhancedTags groups descriptors returned by enhanced-tag providers.
type EnhancedTags struct {
	Moods    []string
	Styles   []string
	Genres   []string
	FreeTags []string
}

// All flattens the grouped descriptors into a single lower-cased list.
func (e EnhancedTags) All() []string {
	out := make([]string, 0, len(e.Moods)+len(e.Styles)+len(e.Genres)+len(e.FreeTags))
	for _, group := range [][]string{e.Moods, e.Styles, e.Genres, e.FreeTags} {
		for _, t := range group {
			out = append(out, strings.ToLower(t))
		}
	}
	return out
}

// Candidate is a track under consideration for recommendation. CommunityScore
// and Features are mutable until the candidate is finalized: the interleaver's
// variety pass and the enricher may each rewrite them once.
type Candidate struct {
	Track          TrackSummary   `json:"track"`
	CommunityScore float64        `json:"community_score"`
	Features       *FusedFeatures `json:"features,omitempty"` // nil until enriched
	Genres         []string       `json:"genres,omitempty"`
	CommunityTags  []string       `json:"community_tags,omitempty"`
	EnhancedTags   []string       `json:"enhanced_tags,omitempty"`
	ReleaseYear    int            `json:"release_year"`
	IsSameArtist   bool           `json:"is_same_artist"`
}

// Tags returns the union of genre, community, and enhanced tags.
func (c *Candidate) Tags() []string {
	out := make([]string, 0, len(c.Genres)+len(c.CommunityTags)+len(c.EnhancedTags))
	out = append(out, c.Genres...)
	out = append(out, c.CommunityTags...)
	out = append(out, c.EnhancedTags...)
	return out
}

// Key returns the normalized name|artist dedup key for the candidate.
func (c *Candidate) Key() string {
	return SongKey(c.Track.Name, c.Track.Artist)
}

// ScoredCandidate is a Candidate plus its similarity score. NeedsEnrichment
// marks entries still carrying a fast-path score.
type ScoredCandidate struct {
	Candidate
	SimilarityScore float64 `json:"similarity_score"`
	NeedsEnrichment bool    `json:"needs_enrichment"`
}

// SeedContext bundles everything scorers need to know about the seed track.
type SeedContext struct {
	Track    TrackSummary
	Features *FusedFeatures // nil on the fast path
	Genres   []string
	Tags     []string // community + enhanced tags
	Year     int
}

// AllTags returns the seed's genres and tags as one list.
func (s *SeedContext) AllTags() []string {
	out := make([]string, 0, len(s.Genres)+len(s.Tags))
	out = append(out, s.Genres...)
	out = append(out, s.Tags...)
	return out
}

// defaultReleaseYear stands in when a release date cannot be parsed.
const defaultReleaseYear = 2020

// YearFromDate extracts the year from a release date like "2011-03-29" or
// "1994". Unparseable dates default to a recent year rather than skewing
// temporal similarity toward the distant past.
func YearFromDate(date string) int {
	year, _, _ := strings.Cut(date, "-")
	n, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || n <= 0 {
		return defaultReleaseYear
	}
	return n
}

// SongKey builds the normalized "name|artist" key used to collapse different
// releases of the same song.
func SongKey(name, artist string) string {
	return strings.TrimSpace(strings.ToLower(name)) + "|" + strings.TrimSpace(strings.ToLower(artist))
}
