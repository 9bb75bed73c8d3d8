package collaborators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mattsonlyattack/cons/internal/corerr"
)

// taggerPrompt mirrors the extraction instructions and few-shot
// examples the autotagger collaborator is grounded on: lowercase,
// hyphenated, 3-7 tags, confidence per centrality to the note's topic.
const taggerPrompt = `Extract relevant tags from the note content below. Return ONLY a JSON object with tag names as keys and confidence scores (0.0-1.0) as values. Do not include any explanatory text.

INSTRUCTIONS:
1. Focus on what the note is ABOUT (primary topics), not things merely mentioned in passing
2. Extract 3-7 tags depending on note complexity
3. Use lowercase for all tags
4. Use hyphens instead of spaces (e.g., "machine-learning" not "machine learning")
5. Avoid special characters; use only alphanumeric and hyphens
6. Assign confidence scores from 0.0 to 1.0 based on how central each tag is to the note's content

EXAMPLES:

Input: "Learning async Rust. The tokio runtime makes concurrent programming much easier than manual thread management."
Output: {"async": 0.95, "rust": 0.95, "tokio": 0.85, "concurrency": 0.75}

Input: "Debugging a Python script. Used print statements but should switch to proper logging."
Output: {"debugging": 0.9, "python": 0.7, "logging": 0.65}

NOTE CONTENT:
%s

JSON OUTPUT:`

// enhancerPrompt mirrors the note-enhancement contract: expand
// abbreviations and fragments, preserve code/URLs/proper nouns
// verbatim, return a confidence reflecting how much interpretation
// was required.
const enhancerPrompt = `You are a note enhancement assistant. Your task is to expand abbreviated notes, complete sentence fragments, and clarify implicit context while preserving the original intent.

CRITICAL RULES:
1. PRESERVE INTENT: Do not add information not implied by the original text
2. EXPAND thoughtfully: Fix abbreviations, complete fragments, add implied context
3. PRESERVE VERBATIM: Keep code blocks, URLs, and proper nouns exactly as written
4. CONFIDENCE: Return a score (0.0-1.0) reflecting enhancement quality
5. COMPLETE NOTES: If the note is already a complete thought, return it unchanged with high confidence

NOTE CONTENT:
%s

Return ONLY a JSON object with two fields:
- "enhanced_content": The expanded note text (string)
- "confidence": Your confidence in the enhancement quality (float 0.0-1.0)

JSON OUTPUT:`

// hierarchyPrompt mirrors the XKOS generic/partitive relationship
// extraction contract.
const hierarchyPrompt = `Analyze the following tags and identify hierarchical relationships between them. Return ONLY a JSON array of relationship objects. Do not include any explanatory text.

XKOS HIERARCHY TYPES:

1. GENERIC (is-a): Specialization relationships where the narrower concept is a type of the broader concept. Use hierarchy_type: "generic"
2. PARTITIVE (part-of): Compositional relationships where the narrower concept is a component of the broader concept. Use hierarchy_type: "partitive"

INSTRUCTIONS:
1. Identify pairs of tags with clear hierarchical relationships
2. For each relationship, specify source_tag (child), target_tag (parent), hierarchy_type, and confidence
3. Only include relationships where you are confident (>= 0.7)
4. Use exact tag names from the input list
5. Edges point "up" the hierarchy (from specific to general)

TAGS TO ANALYZE:
%s

JSON OUTPUT:`

// answererPrompt mirrors the strict-citation Q&A contract: answer
// only from the provided notes, cite every claim by note id, and
// signal no-relevant-notes explicitly rather than guessing.
const answererPrompt = `You are a knowledge retrieval assistant. Answer the user's question using ONLY the notes provided below. You MUST cite specific notes by their ID.

CRITICAL RULES:
1. ONLY use information from the provided notes - do not add external knowledge
2. Every claim must reference at least one note by its ID
3. If no notes are relevant to the question, respond with no_relevant_notes: true
4. Include actual text snippets from notes in your citations
5. If you're uncertain, say so rather than guess

USER QUERY:
%s

AVAILABLE NOTES:
%s

Respond in JSON format:
{"answer": "...", "citations": [{"note_id": 42, "snippet": "..."}], "query_type": "question_answering|summarization|exploration", "no_relevant_notes": false}

JSON OUTPUT:`

// OllamaClient is the shared HTTP transport for every collaborator.
// Retries transient failures (connection refused, timeout, 5xx) with
// bounded exponential backoff before surfacing a KindTransport error.
type OllamaClient struct {
	baseURL string
	http    *http.Client
}

// NewOllamaClient builds a transport pointed at baseURL (e.g.
// "http://localhost:11434").
func NewOllamaClient(baseURL string) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// generate calls /api/generate, retrying transient failures up to
// three attempts with exponential backoff before giving up.
func (c *OllamaClient) generate(ctx context.Context, model, prompt string) (string, error) {
	var result string

	operation := func() error {
		reqBody, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: false})
		if err != nil {
			return backoff.Permanent(corerr.Wrap(corerr.KindTransport, "failed to marshal ollama request", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(reqBody))
		if err != nil {
			return backoff.Permanent(corerr.Wrap(corerr.KindTransport, "failed to build ollama request", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return corerr.Wrap(corerr.KindTransport, "ollama request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			body, _ := io.ReadAll(resp.Body)
			return corerr.New(corerr.KindTransport, fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, string(body)))
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(corerr.New(corerr.KindTransport, fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, string(body))))
		}

		var genResp generateResponse
		if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
			return backoff.Permanent(corerr.Wrap(corerr.KindTransport, "failed to decode ollama response", err))
		}
		result = genResp.Response
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return "", err
	}
	return result, nil
}

// extractJSONObject finds the outermost {...} span in a model
// response, tolerating markdown fences and explanatory preamble/postamble.
func extractJSONObject(response string) (string, bool) {
	trimmed := strings.TrimSpace(response)
	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start < 0 || end < 0 || start > end {
		return "", false
	}
	return trimmed[start : end+1], true
}

// extractJSONArray finds the outermost [...] span, same tolerance as
// extractJSONObject.
func extractJSONArray(response string) (string, bool) {
	trimmed := strings.TrimSpace(response)
	start := strings.IndexByte(trimmed, '[')
	end := strings.LastIndexByte(trimmed, ']')
	if start < 0 || end < 0 || start > end {
		return "", false
	}
	return trimmed[start : end+1], true
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// OllamaTagger implements Tagger against an Ollama /api/generate endpoint.
type OllamaTagger struct{ client *OllamaClient }

func NewOllamaTagger(client *OllamaClient) *OllamaTagger { return &OllamaTagger{client: client} }

// GenerateTags is fail-open on parse failure: a response the model
// didn't format as requested yields an empty map, not an error, so a
// single malformed LLM reply never blocks note capture.
func (t *OllamaTagger) GenerateTags(ctx context.Context, model, content string) (map[string]float64, error) {
	prompt := fmt.Sprintf(taggerPrompt, content)
	response, err := t.client.generate(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	jsonStr, ok := extractJSONObject(response)
	if !ok {
		return map[string]float64{}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return map[string]float64{}, nil
	}

	tags := make(map[string]float64, len(raw))
	for name, v := range raw {
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		tags[name] = clamp01(f)
	}
	return tags, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// OllamaEnhancer implements Enhancer against an Ollama /api/generate endpoint.
type OllamaEnhancer struct{ client *OllamaClient }

func NewOllamaEnhancer(client *OllamaClient) *OllamaEnhancer { return &OllamaEnhancer{client: client} }

func (e *OllamaEnhancer) EnhanceContent(ctx context.Context, model, content string) (EnhancementResult, error) {
	prompt := fmt.Sprintf(enhancerPrompt, content)
	response, err := e.client.generate(ctx, model, prompt)
	if err != nil {
		return EnhancementResult{}, err
	}

	jsonStr, ok := extractJSONObject(response)
	if !ok {
		return EnhancementResult{}, corerr.New(corerr.KindParse, "failed to extract JSON from enhancer response")
	}

	var parsed struct {
		EnhancedContent string  `json:"enhanced_content"`
		Confidence      float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return EnhancementResult{}, corerr.Wrap(corerr.KindParse, "failed to parse enhancer response", err)
	}
	if parsed.EnhancedContent == "" {
		return EnhancementResult{}, corerr.New(corerr.KindParse, "enhancer response missing enhanced_content")
	}

	return EnhancementResult{
		EnhancedContent: parsed.EnhancedContent,
		Confidence:      clamp01(parsed.Confidence),
	}, nil
}

// OllamaHierarchySuggester implements HierarchySuggester against an
// Ollama /api/generate endpoint.
type OllamaHierarchySuggester struct{ client *OllamaClient }

func NewOllamaHierarchySuggester(client *OllamaClient) *OllamaHierarchySuggester {
	return &OllamaHierarchySuggester{client: client}
}

const hierarchyConfidenceFloor = 0.7

func (h *OllamaHierarchySuggester) SuggestRelationships(ctx context.Context, model string, tagNames []string) ([]RelationshipSuggestion, error) {
	tagsJSON, err := json.Marshal(tagNames)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindTransport, "failed to marshal tag names", err)
	}
	prompt := fmt.Sprintf(hierarchyPrompt, string(tagsJSON))

	response, err := h.client.generate(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	jsonStr, ok := extractJSONArray(response)
	if !ok {
		return []RelationshipSuggestion{}, nil
	}

	var raw []struct {
		SourceTag     string  `json:"source_tag"`
		TargetTag     string  `json:"target_tag"`
		HierarchyType string  `json:"hierarchy_type"`
		Confidence    float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return []RelationshipSuggestion{}, nil
	}

	suggestions := make([]RelationshipSuggestion, 0, len(raw))
	for _, r := range raw {
		if r.SourceTag == "" || r.TargetTag == "" {
			continue
		}
		hType := HierarchyType(r.HierarchyType)
		if hType != HierarchyGeneric && hType != HierarchyPartitive {
			continue
		}
		confidence := clamp01(r.Confidence)
		if confidence < hierarchyConfidenceFloor {
			continue
		}
		suggestions = append(suggestions, RelationshipSuggestion{
			SourceTag:     r.SourceTag,
			TargetTag:     r.TargetTag,
			HierarchyType: hType,
			Confidence:    confidence,
		})
	}
	return suggestions, nil
}

// OllamaQueryAnswerer implements QueryAnswerer against an Ollama
// /api/generate endpoint.
type OllamaQueryAnswerer struct{ client *OllamaClient }

func NewOllamaQueryAnswerer(client *OllamaClient) *OllamaQueryAnswerer {
	return &OllamaQueryAnswerer{client: client}
}

func (a *OllamaQueryAnswerer) Answer(ctx context.Context, model, question string, context []AnswerContextNote) (AnswerResult, error) {
	notesContext := formatAnswerContext(context)
	prompt := fmt.Sprintf(answererPrompt, question, notesContext)

	response, err := a.client.generate(ctx, model, prompt)
	if err != nil {
		return AnswerResult{}, err
	}

	jsonStr, ok := extractJSONObject(response)
	if !ok {
		return AnswerResult{}, corerr.New(corerr.KindParse, "failed to extract JSON from answerer response")
	}

	var parsed struct {
		Answer         string `json:"answer"`
		QueryType      string `json:"query_type"`
		NoRelevantNote bool   `json:"no_relevant_notes"`
		Citations      []struct {
			NoteID int64  `json:"note_id"`
			Quote  string `json:"snippet"`
		} `json:"citations"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return AnswerResult{}, corerr.Wrap(corerr.KindParse, "failed to parse answerer response", err)
	}

	if parsed.NoRelevantNote || strings.Contains(parsed.Answer, "NO_RELEVANT_NOTES") || parsed.Answer == "" {
		return AnswerResult{NoRelevantNote: true, QueryType: parsed.QueryType}, nil
	}

	validIDs := make(map[int64]bool, len(context))
	for _, n := range context {
		validIDs[n.NoteID] = true
	}

	citations := make([]Citation, 0, len(parsed.Citations))
	for _, c := range parsed.Citations {
		if !validIDs[c.NoteID] {
			continue
		}
		citations = append(citations, Citation{NoteID: c.NoteID, Quote: c.Quote})
	}

	// A model can hallucinate every citation; if none survive
	// validation against the retrieved set, treat the answer the same
	// as an explicit no_relevant_notes response.
	if len(citations) == 0 {
		return AnswerResult{NoRelevantNote: true, QueryType: parsed.QueryType}, nil
	}

	return AnswerResult{
		Answer:    parsed.Answer,
		Citations: citations,
		QueryType: parsed.QueryType,
	}, nil
}

func formatAnswerContext(notes []AnswerContextNote) string {
	var b strings.Builder
	for _, n := range notes {
		content := n.Content
		if len(content) > 1000 {
			content = content[:1000] + "..."
		}
		b.WriteString("[NOTE ID=")
		b.WriteString(strconv.FormatInt(n.NoteID, 10))
		b.WriteString("]\n")
		b.WriteString(content)
		b.WriteString("\n---\n")
	}
	return b.String()
}
