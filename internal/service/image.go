package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tastegen/backend/config"
	"github.com/tastegen/backend/internal/recipe"
)

// ImageGenerationRequest represents a request to the DALL-E API
type ImageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	ResponseFormat string `json:"response_format"`
}

// ImageGenerationResponse represents the response from DALL-E API
type ImageGenerationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		B64JSON       string `json:"b64_json,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// ImageService handles image generation and storage operations
type ImageService struct {
	apiKey string
	apiURL string
	store  ObjectStore
	client *http.Client
	pacer  Pacer
}

// NewImageService creates a new ImageService instance
func NewImageService(cfg *config.Config, store ObjectStore) *ImageService {
	return &ImageService{
		apiKey: cfg.OpenAIAPIKey,
		apiURL: cfg.OpenAIImagesURL,
		store:  store,
		client: &http.Client{Timeout: 60 * time.Second},
		pacer:  NewPacer(cfg.NarrationDelay),
	}
}

// GenerateRecipeImage generates a hero image for a recipe based on its data
func (s *ImageService) GenerateRecipeImage(ctx context.Context, r *recipe.Recipe) (string, error) {
	prompt := buildRecipeImagePrompt(r)
	log.Printf("[ImageService] Generating image for recipe '%s'", r.Name)

	imageURL, err := s.GenerateImageFromPrompt(ctx, prompt, "1024x1024")
	if err != nil {
		return "", fmt.Errorf("failed to generate recipe image: %w", err)
	}

	return imageURL, nil
}

// GenerateStepImages generates one illustration per instruction step. A
// failed step leaves an empty string in its slot so the result stays
// index-aligned with the instructions.
func (s *ImageService) GenerateStepImages(ctx context.Context, name string, instructions []string) []string {
	urls := make([]string, len(instructions))
	for i, step := range instructions {
		if err := s.pacer.Wait(ctx); err != nil {
			log.Printf("[ImageService] Step image generation aborted: %v", err)
			break
		}

		prompt := fmt.Sprintf("A clear instructional cooking photo showing step %d of preparing %s: %s. Overhead view, bright kitchen lighting, hands visible performing the action, high resolution", i+1, strings.ToLower(name), step)
		if len(prompt) > 900 {
			prompt = prompt[:900]
		}

		url, err := s.GenerateImageFromPrompt(ctx, prompt, "1024x1024")
		if err != nil {
			log.Printf("[ImageService] Step %d image failed: %v", i+1, err)
			continue
		}
		urls[i] = url
	}
	return urls
}

// GenerateImageFromPrompt generates an image from a text prompt
func (s *ImageService) GenerateImageFromPrompt(ctx context.Context, prompt string, size string) (string, error) {
	const maxRetries = 3

	for attempt := 1; attempt <= maxRetries; attempt++ {
		imageURL, err := s.generateImageAttempt(ctx, prompt, size)
		if err != nil {
			log.Printf("[ImageService] Attempt %d failed: %v", attempt, err)
			if attempt == maxRetries {
				return "", fmt.Errorf("failed to generate image after %d attempts: %w", maxRetries, err)
			}
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}

		return imageURL, nil
	}

	return "", fmt.Errorf("failed to generate image after %d attempts", maxRetries)
}

// generateImageAttempt performs a single image generation attempt
func (s *ImageService) generateImageAttempt(ctx context.Context, prompt string, size string) (string, error) {
	reqBody := ImageGenerationRequest{
		Model:          "dall-e-3",
		Prompt:         prompt,
		N:              1,
		Size:           size,
		Quality:        "standard", // Use standard quality to control costs
		ResponseFormat: "url",      // Get URL instead of base64 for efficiency
	}

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

	var result ImageGenerationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Data) == 0 {
		return "", fmt.Errorf("no image data in API response")
	}

	imageURL := result.Data[0].URL
	if imageURL == "" {
		return "", fmt.Errorf("empty image URL in API response")
	}

	// Re-host in our own bucket; the provider URL expires after an hour.
	s3URL, err := s.rehostImage(ctx, imageURL)
	if err != nil {
		log.Printf("[ImageService] Failed to upload to S3, returning original URL: %v", err)
		return imageURL, nil
	}

	return s3URL, nil
}

// rehostImage downloads an image from the provider URL and uploads it to the
// media bucket.
func (s *ImageService) rehostImage(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image, status: %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}

	fileName := fmt.Sprintf("recipe-images/%s.png", uuid.New().String())
	return s.store.Put(ctx, fileName, imageData, "image/png")
}

// buildRecipeImagePrompt creates a detailed prompt for recipe image generation
func buildRecipeImagePrompt(r *recipe.Recipe) string {
	basePrompt := "A professional food photography shot of "

	recipeDescription := strings.ToLower(r.Name)
	if r.Description != "" {
		recipeDescription += ", " + strings.ToLower(r.Description)
	}

	cuisineStyle := ""
	if r.Cuisine != "" {
		cuisineStyle = fmt.Sprintf(", %s style", strings.ToLower(r.Cuisine))
	}

	categoryContext := ""
	switch strings.ToLower(r.Category) {
	case "dessert":
		categoryContext = ", beautifully plated dessert"
	case "breakfast":
		categoryContext = ", appetizing breakfast dish"
	case "main course", "lunch", "dinner":
		categoryContext = ", elegantly presented main dish"
	case "appetizer":
		categoryContext = ", attractive appetizer"
	case "snack":
		categoryContext = ", delicious snack"
	case "beverage":
		categoryContext = ", refreshing beverage"
	case "soup":
		categoryContext = ", steaming bowl of soup"
	case "salad":
		categoryContext = ", fresh and colorful salad"
	}

	stylePrompt := ", shot with natural lighting, shallow depth of field, garnished beautifully, restaurant quality presentation, high resolution, food styling, appetizing colors"

	fullPrompt := basePrompt + recipeDescription + cuisineStyle + categoryContext + stylePrompt

	// DALL-E prompt length limit
	if len(fullPrompt) > 900 {
		fullPrompt = fullPrompt[:900]
	}

	return fullPrompt
}
