// Package llm implements recipe extraction and substitution on an OpenAI-compatible chat API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/hylla/famboard/internal/app"
	"github.com/hylla/famboard/internal/domain"
)

var (
	_ app.Extractor   = (*Client)(nil)
	_ app.Transformer = (*Client)(nil)
)

// maxPageBytes bounds how much of a recipe page is read.
const maxPageBytes = 4 << 20

const extractSystemPrompt = `You extract cooking recipes from web pages.
Reply with one JSON object and nothing else, shaped as:
{"title": string, "description": string, "image_urls": [string],
 "ingredient_sections": [{"title": string, "items": [{"name": string, "amount": string}]}],
 "step_sections": [{"title": string, "steps": [{"number": int, "instruction": string, "image_urls": [string]}]}]}
Use an empty title for a section without a heading. Keep the page's language. Never invent ingredients.`

const transformSystemPrompt = `You adapt cooking recipes. You receive a recipe as JSON, the part to change, and a request.
Rewrite only that part so the request is satisfied, keep every other field unchanged, and reply with the
complete recipe as one JSON object using the same shape and nothing else.`

// Config holds configuration for the client.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Now               func() time.Time
}

// Client calls the chat API for extraction and substitution.
type Client struct {
	chat    *openai.Client
	model   string
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// New builds a client; an empty API key reports app.ErrNotConfigured.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: openai api key", app.ErrNotConfigured)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	chatCfg := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		chatCfg.BaseURL = strings.TrimRight(base, "/")
	}
	chatCfg.HTTPClient = cfg.HTTPClient
	return &Client{
		chat:    openai.NewClientWithConfig(chatCfg),
		model:   strings.TrimSpace(cfg.Model),
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(limit, 1),
		timeout: cfg.Timeout,
		now:     cfg.Now,
		newID:   uuid.NewString,
	}, nil
}

// Extract fetches rawURL and asks the model to structure the recipe on it.
func (c *Client) Extract(ctx context.Context, rawURL string) (domain.Recipe, error) {
	pageURL, err := parseRecipeURL(rawURL)
	if err != nil {
		return domain.Recipe{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	p, err := c.fetchPage(ctx, pageURL)
	if err != nil {
		return domain.Recipe{}, err
	}
	var user strings.Builder
	fmt.Fprintf(&user, "URL: %s\nTitle: %s\n", pageURL, p.Title)
	for _, block := range p.LinkedData {
		fmt.Fprintf(&user, "\nStructured data:\n%s\n", block)
	}
	if len(p.Images) > 0 {
		fmt.Fprintf(&user, "\nImages:\n%s\n", strings.Join(p.Images, "\n"))
	}
	fmt.Fprintf(&user, "\nPage text:\n%s\n", p.Text)

	var wire wireRecipe
	if err := c.complete(ctx, extractSystemPrompt, user.String(), &wire); err != nil {
		return domain.Recipe{}, fmt.Errorf("%w: %w", app.ErrExtractionFailed, err)
	}
	recipe, err := domain.NewRecipe(wire.input(c.newID(), pageURL.String()), c.now())
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("%w: %w", app.ErrExtractionFailed, err)
	}
	if len(recipe.ImageURLs) == 0 && len(p.Images) > 0 {
		recipe.ImageURLs = []string{p.Images[0]}
	}
	return recipe, nil
}

// Transform asks the model to rewrite target in recipe according to prompt.
func (c *Client) Transform(ctx context.Context, target domain.SubstitutionTarget, prompt string, recipe domain.Recipe) (domain.Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	described, err := target.Describe(recipe)
	if err != nil {
		return domain.Recipe{}, err
	}
	body, err := json.Marshal(wireFrom(recipe))
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("encode recipe: %w", err)
	}
	user := fmt.Sprintf("Recipe:\n%s\n\nChange: %s\nRequest: %s\n", body, described, strings.TrimSpace(prompt))

	var wire wireRecipe
	if err := c.complete(ctx, transformSystemPrompt, user, &wire); err != nil {
		return domain.Recipe{}, fmt.Errorf("%w: %w", app.ErrTransformFailed, err)
	}
	candidate, err := domain.NewRecipe(wire.input(recipe.ID, recipe.SourceURL), recipe.CreatedAt)
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("%w: %w", app.ErrTransformFailed, err)
	}
	if !target.Resolves(candidate) {
		return domain.Recipe{}, fmt.Errorf("%w: response dropped %s", app.ErrTransformFailed, described)
	}
	return candidate, nil
}

// complete runs one JSON-mode chat completion and decodes the reply into out.
func (c *Client) complete(ctx context.Context, system, user string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.2,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("chat completion status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return fmt.Errorf("%w: chat completion: %w", app.ErrFetchFailed, err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("chat completion returned no choices")
	}
	content := stripFences(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL *url.URL) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return page{}, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", "famboard/1 (+recipe import)")
	resp, err := c.http.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("%w: %w", app.ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page{}, fmt.Errorf("%w: %s returned %s", app.ErrFetchFailed, pageURL.Host, resp.Status)
	}
	p, err := parsePage(io.LimitReader(resp.Body, maxPageBytes), resp.Request.URL)
	if err != nil {
		return page{}, fmt.Errorf("%w: parse page: %w", app.ErrExtractionFailed, err)
	}
	return p, nil
}

func parseRecipeURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidURL, raw)
	}
	return u, nil
}

// stripFences removes a markdown code fence some models wrap JSON replies in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// wireRecipe is the JSON shape exchanged with the model.
type wireRecipe struct {
	Title              string                     `json:"title"`
	Description        string                     `json:"description"`
	ImageURLs          []string                   `json:"image_urls"`
	IngredientSections []domain.IngredientSection `json:"ingredient_sections"`
	StepSections       []domain.StepSection       `json:"step_sections"`
}

func wireFrom(r domain.Recipe) wireRecipe {
	return wireRecipe{
		Title:              r.Title,
		Description:        r.Description,
		ImageURLs:          r.ImageURLs,
		IngredientSections: r.IngredientSections,
		StepSections:       r.StepSections,
	}
}

// input converts the reply into constructor input; modification marks are never taken from the model.
func (w wireRecipe) input(id, sourceURL string) domain.RecipeInput {
	in := domain.RecipeInput{
		ID:          id,
		Title:       w.Title,
		Description: w.Description,
		SourceURL:   sourceURL,
		ImageURLs:   w.ImageURLs,
	}
	for _, sec := range w.IngredientSections {
		items := make([]domain.Ingredient, 0, len(sec.Items))
		for _, item := range sec.Items {
			items = append(items, domain.Ingredient{Name: item.Name, Amount: item.Amount})
		}
		in.IngredientSections = append(in.IngredientSections, domain.IngredientSection{Title: sec.Title, Items: items})
	}
	for _, sec := range w.StepSections {
		steps := make([]domain.Step, 0, len(sec.Steps))
		for _, step := range sec.Steps {
			steps = append(steps, domain.Step{Number: step.Number, Instruction: step.Instruction, ImageURLs: step.ImageURLs})
		}
		in.StepSections = append(in.StepSections, domain.StepSection{Title: sec.Title, Steps: steps})
	}
	return in
}
