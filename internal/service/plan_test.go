package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMealPlan(t *testing.T) {
	t.Run("prompt carries preferences and intake", func(t *testing.T) {
		var gotReq chatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			body, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "**Monday**: oatmeal, salad, grilled fish."}},
				},
			})
			w.Write(body)
		}))
		defer srv.Close()

		svc, _ := newTestLLMService(srv.URL)

		plan, err := svc.GenerateMealPlan(context.Background(), PlanPreferences{
			Diet:          "vegetarian",
			Restrictions:  "no nuts",
			DailyCalories: 1800,
			MealsPerDay:   4,
		}, 450)

		require.NoError(t, err)
		prompt := gotReq.Messages[0].Content
		assert.Contains(t, prompt, "vegetarian")
		assert.Contains(t, prompt, "no nuts")
		assert.Contains(t, prompt, "1800")
		assert.Contains(t, prompt, "450")
		assert.NotContains(t, plan, "**")
		assert.Contains(t, plan, "oatmeal")
	})

	t.Run("empty preferences fall back to defaults", func(t *testing.T) {
		var gotReq chatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			body, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "A simple plan."}},
				},
			})
			w.Write(body)
		}))
		defer srv.Close()

		svc, _ := newTestLLMService(srv.URL)

		_, err := svc.GenerateMealPlan(context.Background(), PlanPreferences{}, 0)

		require.NoError(t, err)
		assert.Contains(t, gotReq.Messages[0].Content, "not specified")
		assert.Contains(t, gotReq.Messages[0].Content, "3 meals per day")
	})
}

func TestGenerateWeeklyPlan(t *testing.T) {
	t.Run("parses the meals array", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, map[string]string{"type": "json_object"}, req.ResponseFormat)
			assert.Contains(t, req.Messages[1].Content, "high protein")

			content, _ := json.Marshal(map[string]any{
				"meals": []map[string]any{
					{"type": "breakfast", "name": "Omelette", "ingredients": []string{"eggs", "cheese"}, "instructions": "Whisk and fry.", "prepTime": 10, "servings": 1},
					{"type": "lunch", "name": "Chicken Bowl", "ingredients": []string{"chicken", "rice"}, "instructions": "Grill and assemble.", "prepTime": 25, "servings": 2},
				},
			})
			body, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": string(content)}},
				},
			})
			w.Write(body)
		}))
		defer srv.Close()

		svc, _ := newTestLLMService(srv.URL)

		meals, err := svc.GenerateWeeklyPlan(context.Background(), "high protein")

		require.NoError(t, err)
		require.Len(t, meals, 2)
		assert.Equal(t, "breakfast", meals[0].Type)
		assert.Equal(t, "Omelette", meals[0].Name)
		assert.Equal(t, []string{"eggs", "cheese"}, meals[0].Ingredients)
		assert.Equal(t, 25, meals[1].PrepTime)
	})

	t.Run("empty meals array is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			content, _ := json.Marshal(map[string]any{"meals": []any{}})
			body, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": string(content)}},
				},
			})
			w.Write(body)
		}))
		defer srv.Close()

		svc, _ := newTestLLMService(srv.URL)

		_, err := svc.GenerateWeeklyPlan(context.Background(), "")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no meals array")
	})

	t.Run("upstream failure propagates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		svc, _ := newTestLLMService(srv.URL)

		_, err := svc.GenerateWeeklyPlan(context.Background(), "anything")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	})
}
