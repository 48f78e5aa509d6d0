package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tastegen/backend/config"
	"github.com/tastegen/backend/internal/recipe"
)

// AudioService turns recipes into narrated cooking tutorials via the OpenAI
// text-to-speech API and stores the resulting MP3s.
type AudioService struct {
	apiKey string
	apiURL string
	client *http.Client
	store  ObjectStore
	pacer  Pacer
	now    func() time.Time
}

// NewAudioService creates a new AudioService instance
func NewAudioService(cfg *config.Config, store ObjectStore) *AudioService {
	return &AudioService{
		apiKey: cfg.OpenAIAPIKey,
		apiURL: cfg.OpenAITTSURL,
		client: &http.Client{Timeout: 120 * time.Second},
		store:  store,
		pacer:  NewPacer(cfg.NarrationDelay),
		now:    time.Now,
	}
}

type ttsRequest struct {
	Model string  `json:"model"`
	Voice string  `json:"voice"`
	Input string  `json:"input"`
	Speed float64 `json:"speed"`
}

// BuildNarrationScript renders the fixed tutorial script for a recipe. The
// ingredient list reads naturally whether or not a unit is present.
func BuildNarrationScript(name string, ingredients []recipe.Ingredient, instructions []string) string {
	parts := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		phrase := strings.Join(strings.Fields(ing.Quantity+" "+ing.Unit), " ")
		parts = append(parts, phrase+" of "+ing.Item)
	}

	steps := make([]string, 0, len(instructions))
	for i, step := range instructions {
		steps = append(steps, fmt.Sprintf("Step %d: %s", i+1, strings.TrimSuffix(strings.TrimSpace(step), ".")))
	}

	return fmt.Sprintf(
		"Welcome to the tutorial for %s. You will need the following ingredients: %s. Now let's start the preparation. %s. And that's it! Your %s is ready. Enjoy your meal!",
		name,
		strings.Join(parts, ", "),
		strings.Join(steps, ". "),
		name,
	)
}

// GenerateNarration synthesizes the narration for one recipe and uploads the
// MP3. It returns the public audio URL and the script that was read.
func (s *AudioService) GenerateNarration(ctx context.Context, recipeID uuid.UUID, name string, ingredients []recipe.Ingredient, instructions []string) (string, string, error) {
	if err := s.pacer.Wait(ctx); err != nil {
		return "", "", err
	}

	script := BuildNarrationScript(name, ingredients, instructions)

	audio, err := s.synthesize(ctx, script)
	if err != nil {
		return "", "", err
	}

	key := fmt.Sprintf("recipe-audio-%s-%d.mp3", recipeID, s.now().UnixMilli())
	url, err := s.store.Put(ctx, key, audio, "audio/mpeg")
	if err != nil {
		return "", "", fmt.Errorf("failed to store narration audio: %w", err)
	}

	return url, script, nil
}

func (s *AudioService) synthesize(ctx context.Context, input string) ([]byte, error) {
	jsonData, err := json.Marshal(ttsRequest{
		Model: "tts-1",
		Voice: "nova",
		Input: input,
		Speed: 0.95,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

