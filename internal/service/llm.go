package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/tastegen/backend/config"
	"github.com/tastegen/backend/internal/recipe"
)

// BatchFailure records one generation call that was skipped.
type BatchFailure struct {
	Batch  int    `json:"batch"`
	Reason string `json:"reason"`
}

// APIError is returned when the upstream API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// LLMService handles interactions with the OpenAI chat completions API
type LLMService struct {
	apiKey     string
	apiURL     string
	model      string
	client     *http.Client
	pacer      Pacer
	retryDelay time.Duration
}

// NewLLMService creates a new LLMService instance
func NewLLMService(cfg *config.Config) *LLMService {
	return &LLMService{
		apiKey:     cfg.OpenAIAPIKey,
		apiURL:     cfg.OpenAIChatURL,
		model:      "gpt-4o",
		client:     &http.Client{Timeout: 120 * time.Second},
		pacer:      NewPacer(cfg.BatchDelay),
		retryDelay: 2 * time.Second,
	}
}

// chatMessage represents a message in the chat
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest represents a request to the chat completions API
type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
}

// complete sends one chat completion request and returns the assistant
// message content.
func (s *LLMService) complete(ctx context.Context, reqBody chatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}

const batchSystemPrompt = `You are a professional chef and recipe creator. Generate detailed, realistic, and delicious recipes in JSON format. Always return valid JSON with a "recipes" array. Never include explanatory text outside the JSON.`

// GenerateRecipeBatch asks the generation API for exactly count recipes in
// one call, as a strict JSON object with a "recipes" array. It fails when
// the array is absent, non-array, or empty.
func (s *LLMService) GenerateRecipeBatch(ctx context.Context, count int, category, cuisine string) ([]map[string]any, error) {
	if category == "" {
		category = recipe.Categories[rand.Intn(len(recipe.Categories))]
	}
	if cuisine == "" {
		cuisine = recipe.Cuisines[rand.Intn(len(recipe.Cuisines))]
	}
	difficulty := recipe.Difficulties[rand.Intn(len(recipe.Difficulties))]

	prompt := fmt.Sprintf(`Generate %d unique and creative %s %s recipes with %s difficulty level.

For each recipe, provide:
1. A creative and appetizing name
2. A detailed description (2-3 sentences)
3. Preparation time in minutes
4. Cooking time in minutes
5. Number of servings
6. Estimated calories per serving
7. A list of ingredients with quantities and units
8. Step-by-step instructions (at least 3 steps)
9. Relevant tags (e.g., "quick", "healthy", "comfort-food")
10. Basic nutritional information (protein, carbs, fat, fiber in grams)

Return ONLY a JSON object with a "recipes" array. No additional text or explanation.

{
  "recipes": [
    {
      "name": "Recipe Name",
      "description": "Detailed description",
      "category": "%s",
      "cuisine": "%s",
      "difficulty": "%s",
      "prepTime": 15,
      "cookTime": 30,
      "servings": 4,
      "calories": 350,
      "ingredients": [
        {"item": "ingredient name", "quantity": "2", "unit": "cups"}
      ],
      "instructions": [
        "Step 1 description",
        "Step 2 description"
      ],
      "tags": ["tag1", "tag2"],
      "nutritionalInfo": {
        "protein": 25,
        "carbs": 40,
        "fat": 15,
        "fiber": 5
      }
    }
  ]
}

Make sure each recipe is unique, realistic, and follows proper cooking logic.`,
		count, cuisine, category, difficulty, category, cuisine, difficulty)

	content, err := s.complete(ctx, chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: batchSystemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    0.9,
		MaxTokens:      4000,
	})
	if err != nil {
		return nil, err
	}

	return parseRecipesArray(content)
}

func parseRecipesArray(content string) ([]map[string]any, error) {
	var wrapper struct {
		Recipes []map[string]any `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(content), &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse recipes array: %w", err)
	}
	if len(wrapper.Recipes) == 0 {
		return nil, fmt.Errorf("invalid response format from API - no recipes array found")
	}
	return wrapper.Recipes, nil
}

// GenerateMassRecipes generates recipes in sequential batches with an
// inter-batch delay to stay under the provider rate limit. Categories and
// cuisines cycle through the fixed lists so a large run covers all of them.
// A failed batch is recorded and skipped; the loop never aborts, so the
// aggregate may come back shorter than totalCount. onProgress fires exactly
// once per batch, success or not.
func (s *LLMService) GenerateMassRecipes(ctx context.Context, totalCount, batchSize int, onProgress ProgressFunc) ([]map[string]any, []BatchFailure) {
	if batchSize <= 0 {
		batchSize = 10
	}

	numBatches := (totalCount + batchSize - 1) / batchSize
	all := make([]map[string]any, 0, totalCount)
	var failures []BatchFailure

	for i := 0; i < numBatches; i++ {
		// The API sometimes over-delivers; stop early rather than asking a
		// later batch for zero recipes.
		if len(all) >= totalCount {
			break
		}

		if err := s.pacer.Wait(ctx); err != nil {
			failures = append(failures, BatchFailure{Batch: i + 1, Reason: err.Error()})
			if onProgress != nil {
				onProgress(len(all), totalCount)
			}
			break
		}

		size := totalCount - len(all)
		if size > batchSize {
			size = batchSize
		}

		log.Printf("[LLMService] Generating batch %d/%d (%d recipes)", i+1, numBatches, size)

		category := recipe.Categories[i%len(recipe.Categories)]
		cuisine := recipe.Cuisines[i%len(recipe.Cuisines)]

		batch, err := s.GenerateRecipeBatch(ctx, size, category, cuisine)
		if err != nil {
			log.Printf("[LLMService] Batch %d failed: %v", i+1, err)
			failures = append(failures, BatchFailure{Batch: i + 1, Reason: err.Error()})
		} else {
			all = append(all, batch...)
		}

		if onProgress != nil {
			onProgress(len(all), totalCount)
		}
	}

	return all, failures
}

// GenerateThemedRecipes issues a single call requesting count recipes tied
// to a free-text theme. No batching, no pacing: it returns the array or an
// error.
func (s *LLMService) GenerateThemedRecipes(ctx context.Context, theme string, count int) ([]map[string]any, error) {
	prompt := fmt.Sprintf(`Generate %d unique recipes based on the theme: "%s".

Each recipe should be creative, delicious, and fit the theme perfectly.

Return ONLY a JSON object with a "recipes" array:

{
  "recipes": [
    {
      "name": "Recipe Name",
      "description": "Detailed description",
      "category": "category",
      "cuisine": "cuisine",
      "difficulty": "easy|medium|hard",
      "prepTime": 15,
      "cookTime": 30,
      "servings": 4,
      "calories": 350,
      "ingredients": [
        {"item": "ingredient", "quantity": "2", "unit": "cups"}
      ],
      "instructions": ["Step 1", "Step 2"],
      "tags": ["tag1", "tag2"],
      "nutritionalInfo": {
        "protein": 25,
        "carbs": 40,
        "fat": 15,
        "fiber": 5
      }
    }
  ]
}`, count, theme)

	content, err := s.complete(ctx, chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a creative chef specializing in themed recipes. Generate unique and exciting recipes in JSON format. Always return valid JSON with a \"recipes\" array."},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    1.0,
		MaxTokens:      4000,
	})
	if err != nil {
		return nil, err
	}

	return parseRecipesArray(content)
}

var (
	markdownHeaders = regexp.MustCompile(`(?m)^#{1,6}\s`)
	markdownBullets = regexp.MustCompile(`(?m)^[-•]\s`)
)

// GenerateRecipe generates a single free-form recipe as plain text. This is
// the only generation entry point that retries: three attempts with linear
// backoff when the provider reports a rate limit.
func (s *LLMService) GenerateRecipe(ctx context.Context, query string) (string, error) {
	const maxRetries = 3

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		content, err := s.complete(ctx, chatRequest{
			Model: s.model,
			Messages: []chatMessage{
				{Role: "system", Content: "You are an expert chef who creates incredible recipes. Format recipes as clean plain text without markdown characters. Put each ingredient on its own line and number each preparation step on its own line."},
				{Role: "user", Content: "Create a recipe for: " + query + ". Include a creative title, preparation time, difficulty, detailed ingredients with quantities, numbered step-by-step instructions, and nutritional notes."},
			},
			Temperature: 0.8,
			MaxTokens:   1500,
		})
		if err == nil {
			return stripMarkdown(content), nil
		}

		lastErr = err
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests && attempt < maxRetries {
			log.Printf("[LLMService] Rate limited, retrying attempt %d/%d", attempt+1, maxRetries)
			select {
			case <-time.After(time.Duration(attempt) * s.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			continue
		}
		break
	}

	return "", lastErr
}

// stripMarkdown removes the formatting the model emits despite being asked
// not to.
func stripMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "*", "")
	text = markdownHeaders.ReplaceAllString(text, "")
	text = markdownBullets.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
