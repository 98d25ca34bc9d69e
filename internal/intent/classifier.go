package intent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/i474232898/air-quality-insight/internal/llm"
)

const classifyPrompt = `You read questions about air quality and extract where and when the user is asking about.

Today's date is %s. Resolve relative dates ("today", "yesterday", "last week", "kemarin", "minggu lalu") against it. When no date is mentioned use today for both start and end.

Choose "intent":
- "single": one concrete place (a city, regency, district or village), e.g. "How is the air in Bandung?".
- "subareas": a broad region whose parts should be compared, e.g. "Compare the districts of Surabaya" or "air quality across West Java".
- "multi": an explicit list of places, e.g. "Jakarta vs Bogor vs Depok".
- "none": no place is mentioned (a health or general question).

"level" is the administrative level of the places to show: one of province, city, regency, district, village, or null.
"areas" lists the places named by the user, in the order given. For "none" it must be [].
"parent_area" is the enclosing region for "subareas" (e.g. "Surabaya"), otherwise null.

Respond with a single JSON object:
{"intent": "...", "level": "...", "areas": ["..."], "parent_area": "...", "date_range": {"start": "YYYY-MM-DD", "end": "YYYY-MM-DD"}}

Question: %s`

var intentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"intent": map[string]any{
			"type": "string",
			"enum": []string{string(Single), string(SubAreas), string(Multi), string(None)},
		},
		"level": map[string]any{
			"type": []string{"string", "null"},
		},
		"areas": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"parent_area": map[string]any{
			"type": []string{"string", "null"},
		},
		"date_range": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start": map[string]any{"type": "string"},
				"end":   map[string]any{"type": "string"},
			},
			"required": []string{"start", "end"},
		},
	},
	"required": []string{"intent", "areas", "date_range"},
}

// Classifier turns free text into a LocationIntent.
type Classifier struct {
	client llm.Client
}

// NewClassifier creates a Classifier. A nil client makes every query classify as none.
func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{client: client}
}

// Classify never fails: transport errors and malformed answers yield Default(ref).
func (c *Classifier) Classify(ctx context.Context, query string, ref time.Time) LocationIntent {
	query = strings.TrimSpace(query)
	if query == "" || c.client == nil {
		return Default(ref)
	}

	prompt := fmt.Sprintf(classifyPrompt, ref.Format(dateLayout), query)
	text, err := c.client.Complete(ctx, llm.Request{Prompt: prompt, Schema: intentSchema})
	if err != nil {
		log.Printf("WARN: classifier: %s call failed: %v", c.client.Name(), err)
		return Default(ref)
	}

	li, err := Parse(llm.StripFences(text))
	if err != nil {
		log.Printf("WARN: classifier: %v", err)
		return Default(ref)
	}

	log.Printf("DEBUG: classifier: %q -> intent=%s areas=%v", query, li.Intent, li.Areas)
	return li
}
