package artisans

import (
	"fmt"
	"strings"
)

// Intent is the coarse category of a chat query.
type Intent string

const (
	IntentOutOfScope   Intent = "out_of_scope"
	IntentNearbySearch Intent = "nearby_search"
	IntentCustomOrders Intent = "custom_orders"
	IntentWorkshops    Intent = "workshops"
	IntentStatistics   Intent = "statistics"
	IntentSearch       Intent = "search"
	IntentGeneral      Intent = "general"
)

// StatisticsMessage accompanies a successful statistics response.
const StatisticsMessage = "Database statistics retrieved successfully"

const chatSearchResults = 5

var (
	outOfScopeKeywords = []string{"who is", "what is", "prime minister", "president", "weather", "news", "stock market", "capital of", "history of"}
	customOrderWords   = []string{"custom orders", "wedding rings", "custom made"}
	statisticsWords    = []string{"statistics", "stats", "count", "how many", "total", "number", "unique"}
	searchWords        = []string{"find", "search", "show", "list", "get", "display"}
)

// ClassifyIntent buckets a query by keyword. Checks run in priority order,
// so "what is the total" is out of scope rather than a statistics request.
func ClassifyIntent(query string) Intent {
	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, outOfScopeKeywords):
		return IntentOutOfScope
	case strings.Contains(lower, "nearby"):
		return IntentNearbySearch
	case containsAny(lower, customOrderWords):
		return IntentCustomOrders
	case strings.Contains(lower, "workshops"):
		return IntentWorkshops
	case containsAny(lower, statisticsWords):
		return IntentStatistics
	case containsAny(lower, searchWords):
		return IntentSearch
	default:
		return IntentGeneral
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ChatResponse is the assistant reply.
type ChatResponse struct {
	Intent      Intent      `json:"intent,omitempty"`
	Entities    *Entities   `json:"entities,omitempty"`
	Message     string      `json:"message"`
	LLMMessage  string      `json:"llm_message,omitempty"`
	Artists     []Artisan   `json:"artists"`
	Suggestions []string    `json:"suggestions"`
	Stats       *Statistics `json:"stats"`
	Status      string      `json:"status"`
}

// Reply answers a chat query from the dataset.
func (d *Dataset) Reply(query string) (ChatResponse, error) {
	if d.Empty() {
		return ChatResponse{}, ErrNoData
	}
	intent := ClassifyIntent(query)
	if intent == IntentOutOfScope {
		return ChatResponse{
			Message:    "I am a specialized AI assistant for local artisans. I can help you find artists by craft, location, or get database statistics. I cannot answer general knowledge questions.",
			LLMMessage: "Out-of-scope query detected: the request was not related to the artisan database. No search was performed.",
			Suggestions: []string{
				"Show me artists in Rajasthan",
				"What is your total artisan count?",
				"Find me pottery artists",
			},
			Artists: []Artisan{},
			Status:  "success",
		}, nil
	}

	entities := ExtractEntities(query)
	resp := ChatResponse{
		Intent:   intent,
		Entities: &entities,
		Artists:  []Artisan{},
		Status:   "success",
	}
	switch intent {
	case IntentNearbySearch:
		resp.Message = "I am not yet integrated with a location service to find artists 'nearby' you. Please specify a state or district instead."
		resp.Suggestions = []string{"Find artists in Tamil Nadu", "Find artists in Jaipur", "Browse all craft types"}
	case IntentCustomOrders:
		resp.Message = "I can help you with custom orders by finding artisans who specialize in specific crafts. Tell me what you need, like 'jewelry makers for wedding rings'."
		resp.Suggestions = []string{"Find jewelers in Delhi", "Show me artists for woodwork", "Connect me with painters"}
	case IntentWorkshops:
		resp.Message = "I'm sorry, my current database does not contain information about upcoming workshops. You can ask me to find artisans by craft or location."
		resp.Suggestions = []string{"Find pottery artists", "Find artists in Gujarat", "Get database statistics"}
	case IntentStatistics:
		stats, err := d.Statistics()
		if err != nil {
			return ChatResponse{}, err
		}
		resp.Stats = &stats
		resp.Message = "Here are the database statistics you requested."
		resp.Suggestions = []string{"Show craft types", "Artists by state", "Gender distribution"}
	default:
		resp.Artists = d.Search(query, chatSearchResults)
		if len(resp.Artists) > 0 {
			resp.Message = fmt.Sprintf("Found %d artisan(s) matching your query.", len(resp.Artists))
			resp.Suggestions = []string{"Find similar artists", "Search by location", "Browse other crafts"}
		} else {
			resp.Message = "I'm sorry, I couldn't find any artists that match your query. Please try a different search or ask for a different craft type."
			resp.Suggestions = []string{"Browse craft types", "Find artists in a specific state", "Get general statistics"}
		}
	}
	return resp, nil
}
