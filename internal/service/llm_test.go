package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPacer counts waits without delaying.
type recordingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *recordingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	return ctx.Err()
}

func chatResponse(recipes []map[string]any) string {
	content, _ := json.Marshal(map[string]any{"recipes": recipes})
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": string(content)}},
		},
	})
	return string(body)
}

func fakeRecipes(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"name": fmt.Sprintf("Recipe %d", i)}
	}
	return out
}

func newTestLLMService(url string) (*LLMService, *recordingPacer) {
	pacer := &recordingPacer{}
	return &LLMService{
		apiKey: "test-key",
		apiURL: url,
		model:  "gpt-4o",
		client: &http.Client{Timeout: 5 * time.Second},
		pacer:  pacer,
	}, pacer
}

func TestGenerateMassRecipes(t *testing.T) {
	t.Run("splits total into sized batches", func(t *testing.T) {
		var requestedCounts []int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			// The prompt opens with "Generate N unique..."
			var n int
			_, err := fmt.Sscanf(req.Messages[1].Content, "Generate %d", &n)
			require.NoError(t, err)
			requestedCounts = append(requestedCounts, n)

			fmt.Fprint(w, chatResponse(fakeRecipes(n)))
		}))
		defer srv.Close()

		svc, pacer := newTestLLMService(srv.URL)

		var progress [][2]int
		recipes, failures := svc.GenerateMassRecipes(context.Background(), 25, 10, func(current, total int) {
			progress = append(progress, [2]int{current, total})
		})

		assert.Empty(t, failures)
		assert.Len(t, recipes, 25)
		assert.Equal(t, []int{10, 10, 5}, requestedCounts)
		assert.Equal(t, 3, pacer.waits)
		assert.Equal(t, [][2]int{{10, 25}, {20, 25}, {25, 25}}, progress)
	})

	t.Run("failed batch is recorded and skipped", func(t *testing.T) {
		call := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			call++
			if call == 2 {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error":"boom"}`)
				return
			}
			fmt.Fprint(w, chatResponse(fakeRecipes(10)))
		}))
		defer srv.Close()

		svc, _ := newTestLLMService(srv.URL)

		progressCalls := 0
		recipes, failures := svc.GenerateMassRecipes(context.Background(), 30, 10, func(current, total int) {
			progressCalls++
		})

		assert.Len(t, recipes, 20)
		require.Len(t, failures, 1)
		assert.Equal(t, 2, failures[0].Batch)
		assert.Contains(t, failures[0].Reason, "500")
		assert.Equal(t, 3, progressCalls)
	})

	t.Run("over-delivery stops the loop early", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			// Hand back more recipes than the prompt asked for.
			fmt.Fprint(w, chatResponse(fakeRecipes(25)))
		}))
		defer srv.Close()

		svc, _ := newTestLLMService(srv.URL)

		recipes, failures := svc.GenerateMassRecipes(context.Background(), 20, 10, nil)

		assert.Empty(t, failures)
		assert.Len(t, recipes, 25)
		assert.Equal(t, 1, calls, "a later batch must never request zero recipes")
	})

	t.Run("empty recipes array is a failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chatResponse(nil))
		}))
		defer srv.Close()

		svc, _ := newTestLLMService(srv.URL)

		recipes, failures := svc.GenerateMassRecipes(context.Background(), 10, 10, nil)

		assert.Empty(t, recipes)
		require.Len(t, failures, 1)
		assert.Contains(t, failures[0].Reason, "no recipes array")
	})
}

func TestGenerateThemedRecipes(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[1].Content, "midnight snacks")
		fmt.Fprint(w, chatResponse(fakeRecipes(5)))
	}))
	defer srv.Close()

	svc, pacer := newTestLLMService(srv.URL)

	recipes, err := svc.GenerateThemedRecipes(context.Background(), "midnight snacks", 5)

	require.NoError(t, err)
	assert.Len(t, recipes, 5)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, pacer.waits, "themed generation is a single unpaced call")
}

func TestGenerateRecipe(t *testing.T) {
	t.Run("retries on rate limit then succeeds", func(t *testing.T) {
		call := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			call++
			if call < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			body, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "## Pancakes\n**Fluffy** and golden"}},
				},
			})
			w.Write(body)
		}))
		defer srv.Close()

		svc, _ := newTestLLMService(srv.URL)
		svc.retryDelay = 0

		text, err := svc.GenerateRecipe(context.Background(), "pancakes")

		require.NoError(t, err)
		assert.Equal(t, 3, call)
		assert.NotContains(t, text, "**")
		assert.NotContains(t, text, "##")
		assert.Contains(t, text, "Pancakes")
	})

	t.Run("gives up after three rate limited attempts", func(t *testing.T) {
		call := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			call++
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		svc, _ := newTestLLMService(srv.URL)
		svc.retryDelay = 0

		_, err := svc.GenerateRecipe(context.Background(), "pancakes")

		require.Error(t, err)
		assert.Equal(t, 3, call)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	})

	t.Run("does not retry other failures", func(t *testing.T) {
		call := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			call++
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		svc, _ := newTestLLMService(srv.URL)
		svc.retryDelay = 0

		_, err := svc.GenerateRecipe(context.Background(), "pancakes")

		require.Error(t, err)
		assert.Equal(t, 1, call)
	})
}

func TestPacer(t *testing.T) {
	t.Run("first call is free, later calls wait", func(t *testing.T) {
		p := NewPacer(50 * time.Millisecond)
		ctx := context.Background()

		start := time.Now()
		require.NoError(t, p.Wait(ctx))
		assert.Less(t, time.Since(start), 30*time.Millisecond)

		start = time.Now()
		require.NoError(t, p.Wait(ctx))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("non-positive interval disables pacing", func(t *testing.T) {
		p := NewPacer(0)
		start := time.Now()
		for i := 0; i < 100; i++ {
			require.NoError(t, p.Wait(context.Background()))
		}
		assert.Less(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		p := NewPacer(time.Hour)
		ctx, cancel := context.WithCancel(context.Background())

		require.NoError(t, p.Wait(ctx))

		cancel()
		assert.Error(t, p.Wait(ctx))
	})
}
