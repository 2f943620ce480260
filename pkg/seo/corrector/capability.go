package corrector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"content-optimizer-be/pkg/llm"
	"content-optimizer-be/pkg/seo"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"
)

// Request carries what a capability may need beyond the prompt text.
type Request struct {
	IssueType seo.IssueType
	Field     seo.Field
	Keyword   string
	Attempt   int
}

// Capability is an external text-correction service. Re-running the
// same prompt on the same document must be safe.
type Capability interface {
	Name() string
	Correct(ctx context.Context, doc seo.Document, promptText string, req Request) (seo.Document, error)
}

var ErrMalformedResponse = errors.New("malformed correction response")

const systemPrompt = `You are an SEO copy editor. You receive a document as JSON and one correction instruction.
Apply only that instruction. Preserve every HTML element of the body: headings, paragraphs, lists, images and links.
Reply with a single JSON object with the keys "title", "body" and "meta_description" holding the full corrected values.`

type wireDocument struct {
	Title           *string `json:"title"`
	Body            *string `json:"body"`
	MetaDescription *string `json:"meta_description"`
}

// LLMCapability adapts an llm.LLMProvider. Responses are parsed as JSON
// and sanitized before they reach the document.
type LLMCapability struct {
	provider llm.LLMProvider
	limiter  *rate.Limiter
	body     *bluemonday.Policy
	plain    *bluemonday.Policy
	opts     []llm.Option
}

// NewLLMCapability wraps provider. rps <= 0 disables rate limiting.
func NewLLMCapability(provider llm.LLMProvider, rps float64, burst int, opts ...llm.Option) *LLMCapability {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), max(1, burst))
	}
	return &LLMCapability{
		provider: provider,
		limiter:  limiter,
		body:     bluemonday.UGCPolicy(),
		plain:    bluemonday.StrictPolicy(),
		opts:     append([]llm.Option{llm.WithJSON(), llm.WithTemperature(0.2)}, opts...),
	}
}

func (c *LLMCapability) Name() string {
	return c.provider.Name()
}

func (c *LLMCapability) Correct(ctx context.Context, doc seo.Document, promptText string, req Request) (seo.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return doc, err
	}

	in, err := json.Marshal(map[string]string{
		"title":            doc.Title,
		"body":             doc.Body,
		"meta_description": doc.MetaDescription,
		"focus_keyword":    doc.FocusKeyword,
	})
	if err != nil {
		return doc, fmt.Errorf("marshal document: %w", err)
	}

	history := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "<document>\n" + string(in) + "\n</document>\n\n" + promptText},
	}
	raw, err := c.provider.Chat(ctx, history, c.opts...)
	if err != nil {
		return doc, err
	}
	return c.apply(doc, raw)
}

func (c *LLMCapability) apply(doc seo.Document, raw string) (seo.Document, error) {
	var w wireDocument
	if err := json.Unmarshal([]byte(extractJSON(raw)), &w); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if w.Title == nil && w.Body == nil && w.MetaDescription == nil {
		return doc, fmt.Errorf("%w: no document fields", ErrMalformedResponse)
	}

	out := doc.Clone()
	if w.Title != nil {
		out.Title = c.plainText(*w.Title)
	}
	if w.Body != nil {
		out.Body = c.body.Sanitize(*w.Body)
	}
	if w.MetaDescription != nil {
		out.MetaDescription = c.plainText(*w.MetaDescription)
	}
	return out, nil
}

func (c *LLMCapability) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.plain.Sanitize(s)))
}

// extractJSON strips markdown fences and surrounding chatter.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
