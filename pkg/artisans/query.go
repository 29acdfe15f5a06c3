package artisans

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	dashboard "github.com/goliatone/go-kalakaart/components/dashboard"
)

const (
	topValues         = 10
	maxFilterResults  = 20
	defaultMaxResults = 10
	defaultSimilar    = 5
)

// ErrArtisanNotFound is returned when a reference artisan id is unknown.
var ErrArtisanNotFound = errors.New("artisans: artisan not found")

var (
	craftKeywords = []string{
		"pottery", "textile", "weaving", "embroidery", "woodwork", "metalwork",
		"painting", "jeweler", "jewelry", "carpet", "tanjore", "rogan",
		"glass painting", "jewelers",
	}
	locationKeywords = []string{
		"delhi", "rajasthan", "tamil nadu", "kolkata", "mumbai", "gujarat",
		"satna", "uttar pradesh",
	}
	craftPattern    = keywordPattern(craftKeywords)
	locationPattern = keywordPattern(locationKeywords)

	stopWords = map[string]bool{
		"find": true, "artists": true, "show": true, "get": true, "list": true,
		"i": true, "need": true, "in": true, "from": true, "for": true, "a": true,
	}
)

func keywordPattern(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Artisan is the search result shape.
type Artisan struct {
	ArtisanID      string `json:"artisan_id"`
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	Age            *int   `json:"age"`
	CraftType      string `json:"craft_type"`
	State          string `json:"state"`
	District       string `json:"district"`
	Village        string `json:"village"`
	Languages      string `json:"languages"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	PhoneAvailable bool   `json:"phone_available"`
	GovtID         string `json:"govt_id"`
	ClusterCode    string `json:"cluster_code"`
}

// Summary is the compact shape used by filter and similar results.
type Summary struct {
	ArtisanID string `json:"artisan_id"`
	Name      string `json:"name"`
	CraftType string `json:"craft_type"`
	State     string `json:"state,omitempty"`
	District  string `json:"district,omitempty"`
	Age       *int   `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

// AgeStatistics summarizes the numeric ages.
type AgeStatistics struct {
	Average float64 `json:"average_age"`
	Median  float64 `json:"median_age"`
	Min     int     `json:"min_age"`
	Max     int     `json:"max_age"`
}

// Statistics is the directory summary served at /api/statistics.
type Statistics struct {
	TotalArtisans int            `json:"total_artisans"`
	CraftTypes    map[string]int `json:"craft_types,omitempty"`
	States        map[string]int `json:"states,omitempty"`
	Districts     map[string]int `json:"districts,omitempty"`
	Genders       map[string]int `json:"genders,omitempty"`
	AgeStatistics *AgeStatistics `json:"age_statistics,omitempty"`
	UniqueCrafts  *int           `json:"unique_crafts,omitempty"`
	UniqueStates  *int           `json:"unique_states,omitempty"`
}

// Entities are the craft and location keywords found in a query.
type Entities struct {
	CraftType string `json:"craft_type,omitempty"`
	Location  string `json:"location,omitempty"`
}

// SimilarResult lists artisans sharing craft and state with a reference.
type SimilarResult struct {
	SimilarArtists []Summary `json:"similar_artists"`
	Reference      Summary   `json:"reference_artisan"`
}

// Statistics computes the directory summary.
func (d *Dataset) Statistics() (Statistics, error) {
	if d.Empty() {
		return Statistics{}, ErrNoData
	}
	stats := Statistics{TotalArtisans: d.Len()}
	stats.CraftTypes = d.topCounts("craft_type")
	stats.States = d.topCounts("state")
	stats.Districts = d.topCounts("district")
	stats.Genders = d.topCounts("gender")
	if d.HasColumn("age") {
		stats.AgeStatistics = d.ageStatistics()
	}
	if d.HasColumn("craft_type") {
		n := d.distinct("craft_type")
		stats.UniqueCrafts = &n
	}
	if d.HasColumn("state") {
		n := d.distinct("state")
		stats.UniqueStates = &n
	}
	return stats, nil
}

func (d *Dataset) counts(column string) map[string]int {
	out := map[string]int{}
	for _, rec := range d.records {
		if v := rec.Get(column); v != "" {
			out[v]++
		}
	}
	return out
}

func (d *Dataset) topCounts(column string) map[string]int {
	if !d.HasColumn(column) {
		return nil
	}
	all := d.counts(column)
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if all[keys[i]] != all[keys[j]] {
			return all[keys[i]] > all[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > topValues {
		keys = keys[:topValues]
	}
	out := make(map[string]int, len(keys))
	for _, k := range keys {
		out[k] = all[k]
	}
	return out
}

func (d *Dataset) distinct(column string) int {
	return len(d.counts(column))
}

func (d *Dataset) ageStatistics() *AgeStatistics {
	var ages []float64
	for _, rec := range d.records {
		if age, ok := rec.Age(); ok {
			ages = append(ages, age)
		}
	}
	if len(ages) == 0 {
		return nil
	}
	sort.Float64s(ages)
	sum := 0.0
	for _, a := range ages {
		sum += a
	}
	median := ages[len(ages)/2]
	if len(ages)%2 == 0 {
		median = (ages[len(ages)/2-1] + ages[len(ages)/2]) / 2
	}
	return &AgeStatistics{
		Average: math.Round(sum/float64(len(ages))*10) / 10,
		Median:  median,
		Min:     int(ages[0]),
		Max:     int(ages[len(ages)-1]),
	}
}

// ExtractEntities finds the first craft and location keyword in query.
func ExtractEntities(query string) Entities {
	lower := strings.ToLower(query)
	var e Entities
	if m := craftPattern.FindStringSubmatch(lower); m != nil {
		e.CraftType = m[1]
	}
	if m := locationPattern.FindStringSubmatch(lower); m != nil {
		e.Location = m[1]
	}
	return e
}

// Search matches on extracted entities first and falls back to requiring
// every meaningful query word in the record's search text.
func (d *Dataset) Search(query string, maxResults int) []Artisan {
	if d.Empty() {
		return []Artisan{}
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	entities := ExtractEntities(query)
	var matches []Record
	if entities.CraftType != "" || entities.Location != "" {
		matches = d.where(func(rec Record) bool {
			if entities.CraftType != "" && !containsFold(rec.Get("craft_type"), entities.CraftType) {
				return false
			}
			if entities.Location != "" &&
				!containsFold(rec.Get("state"), entities.Location) &&
				!containsFold(rec.Get("district"), entities.Location) {
				return false
			}
			return true
		}, 0)
	}
	if len(matches) == 0 {
		terms := searchTerms(query)
		if len(terms) > 0 {
			matches = d.where(func(rec Record) bool {
				for _, term := range terms {
					if !strings.Contains(rec.SearchText(), term) {
						return false
					}
				}
				return true
			}, 0)
		}
	}
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	out := make([]Artisan, 0, len(matches))
	for _, rec := range matches {
		out = append(out, toArtisan(rec))
	}
	return out
}

// Filter keeps records whose columns equal the given values, ignoring case.
// Keys that are not columns are ignored.
func (d *Dataset) Filter(filters map[string]string) []Summary {
	if d.Empty() {
		return []Summary{}
	}
	matches := d.where(func(rec Record) bool {
		for key, value := range filters {
			if !d.HasColumn(key) {
				continue
			}
			if !strings.EqualFold(rec.Get(key), value) {
				return false
			}
		}
		return true
	}, maxFilterResults)
	out := make([]Summary, 0, len(matches))
	for _, rec := range matches {
		s := toSummary(rec)
		s.Age = recordAge(rec)
		s.Gender = rec.first("N/A", "gender")
		out = append(out, s)
	}
	return out
}

// Similar lists up to limit artisans with the reference's craft and state.
func (d *Dataset) Similar(artisanID string, limit int) (SimilarResult, error) {
	if d.Empty() {
		return SimilarResult{}, ErrNoData
	}
	if limit <= 0 {
		limit = defaultSimilar
	}
	if !d.HasColumn("artisan_id") {
		return SimilarResult{}, ErrArtisanNotFound
	}
	var target *Record
	for i := range d.records {
		if d.records[i].Get("artisan_id") == artisanID {
			target = &d.records[i]
			break
		}
	}
	if target == nil {
		return SimilarResult{}, ErrArtisanNotFound
	}
	matches := d.where(func(rec Record) bool {
		return rec.Get("craft_type") == target.Get("craft_type") &&
			rec.Get("state") == target.Get("state") &&
			rec.Get("artisan_id") != artisanID
	}, limit)
	similar := make([]Summary, 0, len(matches))
	for _, rec := range matches {
		similar = append(similar, toSummary(rec))
	}
	return SimilarResult{
		SimilarArtists: similar,
		Reference: Summary{
			ArtisanID: target.first("N/A", "artisan_id"),
			Name:      target.first("Unknown", "name"),
			CraftType: target.first("Traditional Craft", "craft_type"),
		},
	}, nil
}

// UniqueValues returns the distinct non-empty values of column in first-seen
// order. The bool is false for unknown columns.
func (d *Dataset) UniqueValues(column string) ([]string, bool) {
	if d.Empty() || !d.HasColumn(column) {
		return []string{}, false
	}
	seen := map[string]bool{}
	out := []string{}
	for _, rec := range d.records {
		v := rec.Get(column)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, true
}

func (d *Dataset) where(match func(Record) bool, limit int) []Record {
	var out []Record
	for _, rec := range d.records {
		if !match(rec) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func searchTerms(query string) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if stopWords[word] || len(word) <= 2 {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

func containsFold(value, needle string) bool {
	return strings.Contains(strings.ToLower(value), needle)
}

func recordAge(rec Record) *int {
	age, ok := rec.Age()
	if !ok {
		return nil
	}
	n := int(age)
	return &n
}

func toArtisan(rec Record) Artisan {
	phoneAvailable := true
	if raw := rec.Get("contact_phone_boolean"); raw != "" {
		if v, err := strconv.ParseBool(strings.ToLower(raw)); err == nil {
			phoneAvailable = v
		}
	}
	return Artisan{
		ArtisanID:      rec.first("N/A", "artisan_id", "govt_artisan_id", "id"),
		Name:           rec.first("Unknown", "name"),
		Gender:         rec.first("N/A", "gender"),
		Age:            recordAge(rec),
		CraftType:      rec.first("Traditional Craft", "craft_type"),
		State:          rec.first("Unknown", "state"),
		District:       rec.first("Unknown", "district"),
		Village:        rec.first("Unknown", "village"),
		Languages:      rec.first("Hindi", "languages_spoken", "languages"),
		Email:          rec.first("Not available", "contact_email"),
		Phone:          rec.first("Not available", "contact_phone"),
		PhoneAvailable: phoneAvailable,
		GovtID:         rec.first("N/A", "govt_artisan_id"),
		ClusterCode:    rec.first("N/A", "artisan_cluster_code"),
	}
}

func toSummary(rec Record) Summary {
	return Summary{
		ArtisanID: rec.first("N/A", "artisan_id", "govt_artisan_id", "id"),
		Name:      rec.first("Unknown", "name"),
		CraftType: rec.first("Traditional Craft", "craft_type"),
		State:     rec.first("Unknown", "state"),
		District:  rec.first("Unknown", "district"),
	}
}

// StatisticsSource serves dataset statistics through the dashboard
// statistics contract, for running the dashboard against a local CSV.
type StatisticsSource struct {
	Dataset *Dataset
}

var _ dashboard.StatisticsService = StatisticsSource{}

// GetStatistics implements dashboard.StatisticsService.
func (s StatisticsSource) GetStatistics(ctx context.Context) (dashboard.StatisticsResponse, error) {
	if err := ctx.Err(); err != nil {
		return dashboard.StatisticsResponse{}, err
	}
	stats, err := s.Dataset.Statistics()
	if err != nil {
		return dashboard.StatisticsResponse{}, err
	}
	total := stats.TotalArtisans
	return dashboard.StatisticsResponse{
		Stats: dashboard.StatisticsPayload{
			TotalArtisans: &total,
			UniqueCrafts:  stats.UniqueCrafts,
			UniqueStates:  stats.UniqueStates,
			CraftTypes:    stats.CraftTypes,
			States:        stats.States,
		},
		Message: StatisticsMessage,
	}, nil
}
