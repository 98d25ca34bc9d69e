package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/i474232898/air-quality-insight/internal/llm"
)

// MaxSubAreas bounds how many sub-areas are fetched for one request.
const MaxSubAreas = 5

const minNameLength = 3

// levelKeywords are words that name an administrative level rather than a place.
var levelKeywords = map[string]struct{}{
	"province": {}, "provinsi": {}, "state": {},
	"city": {}, "cities": {}, "kota": {}, "kotamadya": {}, "municipality": {},
	"regency": {}, "kabupaten": {}, "county": {},
	"district": {}, "districts": {}, "subdistrict": {}, "sub-district": {}, "kecamatan": {},
	"village": {}, "villages": {}, "desa": {}, "kelurahan": {},
	"region": {}, "area": {}, "wilayah": {}, "daerah": {},
}

var levelWords = map[Level]string{
	Province: "provinces (provinsi)",
	City:     "cities (kota)",
	Regency:  "regencies (kabupaten)",
	District: "districts (kecamatan)",
	Village:  "villages (desa / kelurahan)",
}

const decomposePrompt = `List up to %d %s inside "%s" that best represent it for an air-quality comparison.

Give real, specific place names only. Do not answer with the level word itself (e.g. "%s").
User question for context: %s

Respond with a single JSON object: {"sub_areas": ["Name 1", "Name 2"]}`

var subAreasSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"sub_areas": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"required": []string{"sub_areas"},
}

// Decomposer expands a broad area into concrete sub-area names.
type Decomposer struct {
	client llm.Client
}

func NewDecomposer(client llm.Client) *Decomposer {
	return &Decomposer{client: client}
}

// Decompose returns at most MaxSubAreas names. Failures yield an empty list.
func (d *Decomposer) Decompose(ctx context.Context, query, parentArea string, level *Level) []string {
	if d.client == nil || strings.TrimSpace(parentArea) == "" {
		return nil
	}

	words := "cities or regencies"
	example := "city"
	if level != nil {
		if w, ok := levelWords[*level]; ok {
			words = w
			example = string(*level)
		}
	}

	prompt := fmt.Sprintf(decomposePrompt, MaxSubAreas, words, parentArea, example, query)
	text, err := d.client.Complete(ctx, llm.Request{Prompt: prompt, Schema: subAreasSchema})
	if err != nil {
		log.Printf("WARN: decomposer: %s call failed: %v", d.client.Name(), err)
		return nil
	}

	var payload struct {
		SubAreas []string `json:"sub_areas"`
	}
	if err := json.Unmarshal([]byte(llm.StripFences(text)), &payload); err != nil {
		log.Printf("WARN: decomposer: %v: %v", ErrMalformed, err)
		return nil
	}

	names := FilterSubAreas(payload.SubAreas)
	log.Printf("DEBUG: decomposer: %q -> %v", parentArea, names)
	return names
}

// FilterSubAreas drops level keywords and names shorter than three characters.
// If that removes everything the unfiltered list is kept. The result holds at
// most MaxSubAreas names, earliest first.
func FilterSubAreas(candidates []string) []string {
	var cleaned []string
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, c)
	}

	filtered := make([]string, 0, len(cleaned))
	for _, c := range cleaned {
		if _, isKeyword := levelKeywords[strings.ToLower(c)]; isKeyword {
			continue
		}
		if len([]rune(c)) < minNameLength {
			continue
		}
		filtered = append(filtered, c)
	}

	if len(filtered) == 0 {
		filtered = cleaned
	}
	if len(filtered) > MaxSubAreas {
		filtered = filtered[:MaxSubAreas]
	}
	return filtered
}
