package advisor

import (
	"encoding/json"
	"strings"

	"github.com/chrisminnick/starboard2/internal/models"
)

type feedbackReply struct {
	Overall      string   `json:"overall"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Suggestions  []string `json:"suggestions"`
	Rating       *int     `json:"rating"`
}

// ParseFeedback turns a model reply into structured feedback. A reply that
// carries a JSON object supplies categories and a 1..5 rating; any other
// reply becomes the overall text with empty categories and no rating.
func ParseFeedback(reply string) models.Feedback {
	fb := models.Feedback{
		Overall: reply,
		Categories: models.FeedbackCategories{
			Strengths:    []string{},
			Improvements: []string{},
			Suggestions:  []string{},
		},
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return fb
	}
	var parsed feedbackReply
	if err := json.Unmarshal([]byte(reply[start:end+1]), &parsed); err != nil {
		return fb
	}

	if overall := strings.TrimSpace(parsed.Overall); overall != "" {
		fb.Overall = overall
	}
	fb.Categories.Strengths = nonNil(parsed.Strengths)
	fb.Categories.Improvements = nonNil(parsed.Improvements)
	fb.Categories.Suggestions = nonNil(parsed.Suggestions)
	if parsed.Rating != nil && *parsed.Rating >= 1 && *parsed.Rating <= 5 {
		fb.Rating = parsed.Rating
	}
	return fb
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
