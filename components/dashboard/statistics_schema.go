package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrMalformedStatistics marks a response that does not match the schema.
	ErrMalformedStatistics = errors.New("dashboard: malformed statistics response")
	// ErrStatisticsUnavailable marks a well-formed response carrying stats.error.
	ErrStatisticsUnavailable = errors.New("dashboard: statistics unavailable")
)

const statisticsSchemaName = "statistics_response.json"

// Counts may be absent or null; when present they must be non-negative
// integers. Distribution maps are optional.
const statisticsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["stats"],
  "properties": {
    "stats": {
      "type": "object",
      "properties": {
        "total_artisans": {"$ref": "#/definitions/count"},
        "unique_crafts": {"$ref": "#/definitions/count"},
        "unique_states": {"$ref": "#/definitions/count"},
        "craft_types": {"$ref": "#/definitions/distribution"},
        "states": {"$ref": "#/definitions/distribution"},
        "error": {"type": "string"}
      }
    },
    "message": {"type": "string"}
  },
  "definitions": {
    "count": {"type": ["integer", "null"], "minimum": 0},
    "distribution": {
      "type": ["object", "null"],
      "additionalProperties": {"type": "integer", "minimum": 0}
    }
  }
}`

// StatisticsPayload is the stats object of the service response. Nil counts
// were absent or null on the wire.
type StatisticsPayload struct {
	TotalArtisans *int           `json:"total_artisans,omitempty"`
	UniqueCrafts  *int           `json:"unique_crafts,omitempty"`
	UniqueStates  *int           `json:"unique_states,omitempty"`
	CraftTypes    map[string]int `json:"craft_types,omitempty"`
	States        map[string]int `json:"states,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// StatisticsResponse is the validated statistics service response.
type StatisticsResponse struct {
	Stats   StatisticsPayload `json:"stats"`
	Message string            `json:"message,omitempty"`
}

type statisticsWire struct {
	Stats struct {
		TotalArtisans *float64           `json:"total_artisans"`
		UniqueCrafts  *float64           `json:"unique_crafts"`
		UniqueStates  *float64           `json:"unique_states"`
		CraftTypes    map[string]float64 `json:"craft_types"`
		States        map[string]float64 `json:"states"`
		Error         string             `json:"error"`
	} `json:"stats"`
	Message string `json:"message"`
}

var compiledStatisticsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(statisticsSchemaName, strings.NewReader(statisticsSchema)); err != nil {
		return nil, fmt.Errorf("dashboard: load statistics schema: %w", err)
	}
	schema, err := compiler.Compile(statisticsSchemaName)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile statistics schema: %w", err)
	}
	return schema, nil
})

// DecodeStatisticsResponse validates the raw body against the response schema
// and decodes it. Schema violations wrap ErrMalformedStatistics; a stats.error
// value wraps ErrStatisticsUnavailable.
func DecodeStatisticsResponse(r io.Reader) (StatisticsResponse, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return StatisticsResponse{}, fmt.Errorf("dashboard: read statistics response: %w", err)
	}
	return ParseStatisticsResponse(data)
}

// ParseStatisticsResponse is DecodeStatisticsResponse for an in-memory body.
func ParseStatisticsResponse(data []byte) (StatisticsResponse, error) {
	schema, err := compiledStatisticsSchema()
	if err != nil {
		return StatisticsResponse{}, err
	}

	var doc any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return StatisticsResponse{}, fmt.Errorf("%w: %v", ErrMalformedStatistics, err)
	}
	if err := schema.Validate(doc); err != nil {
		return StatisticsResponse{}, fmt.Errorf("%w: %v", ErrMalformedStatistics, err)
	}

	var wire statisticsWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return StatisticsResponse{}, fmt.Errorf("%w: %v", ErrMalformedStatistics, err)
	}
	if wire.Stats.Error != "" {
		return StatisticsResponse{}, fmt.Errorf("%w: %s", ErrStatisticsUnavailable, wire.Stats.Error)
	}

	return StatisticsResponse{
		Stats: StatisticsPayload{
			TotalArtisans: countPtr(wire.Stats.TotalArtisans),
			UniqueCrafts:  countPtr(wire.Stats.UniqueCrafts),
			UniqueStates:  countPtr(wire.Stats.UniqueStates),
			CraftTypes:    distribution(wire.Stats.CraftTypes),
			States:        distribution(wire.Stats.States),
		},
		Message: wire.Message,
	}, nil
}

func countPtr(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func distribution(in map[string]float64) map[string]int {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = int(v)
	}
	return out
}
