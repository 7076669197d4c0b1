package replicate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		APIKey:       "r8_test",
		BaseURL:      srv.URL,
		PollInterval: time.Millisecond,
		MaxAttempts:  5,
	}, nil)
}

func TestSubmitTraining(t *testing.T) {
	var gotBody map[string]any
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/trainings", r.URL.Path)
		require.Equal(t, "Bearer r8_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "train-1", "status": "starting"})
	}))

	jobID, err := client.SubmitTraining(context.Background(), TrainingRequest{
		InputImages: []string{"https://cdn.example.com/a.jpg"},
		TriggerWord: "sks",
		Hyperparameters: map[string]any{
			"resolution": 512,
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "train-1", jobID)
	assert.Equal(t, "flux-lora", gotBody["model"])
	input, ok := gotBody["input"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sks", input["trigger_word"])
	assert.Equal(t, float64(512), input["resolution"])
}

func TestSubmitTrainingUpstreamError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid input"}`, http.StatusUnprocessableEntity)
	}))

	_, err := client.SubmitTraining(context.Background(), TrainingRequest{TriggerWord: "sks"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=422")
}

func TestGetTrainingStatus(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/trainings/train-1", r.URL.Path)
		json.NewEncoder(w).Encode(TrainingStatus{Status: "processing", Progress: 0.6})
	}))

	status, err := client.GetTrainingStatus(context.Background(), "train-1")

	require.NoError(t, err)
	assert.Equal(t, "processing", status.Status)
	assert.InDelta(t, 0.6, status.Progress, 0.001)
}

func TestGeneratePredictionPollsUntilSucceeded(t *testing.T) {
	var polls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/predictions":
			json.NewEncoder(w).Encode(map[string]string{"id": "pred-1", "status": "starting"})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/predictions/pred-1":
			if polls.Add(1) < 3 {
				json.NewEncoder(w).Encode(map[string]string{"id": "pred-1", "status": "processing"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id":     "pred-1",
				"status": StatusSucceeded,
				"output": []string{"https://cdn.example.com/out.png"},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	outputs, err := client.GeneratePrediction(context.Background(), PredictionRequest{Version: "v1", Prompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/out.png"}, outputs)
	assert.Equal(t, int32(3), polls.Load())
}

func TestGeneratePredictionFailedJob(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"id": "pred-1", "status": "starting"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "pred-1", "status": StatusFailed, "error": "NSFW content"})
	}))

	_, err := client.GeneratePrediction(context.Background(), PredictionRequest{Version: "v1", Prompt: "p"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "NSFW content")
}

func TestGeneratePredictionTimeout(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"id": "pred-1", "status": "starting"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "pred-1", "status": "processing"})
	}))

	_, err := client.GeneratePrediction(context.Background(), PredictionRequest{Version: "v1", Prompt: "p"})

	assert.ErrorIs(t, err, ErrJobTimeout)
}

func TestGeneratePredictionContextCanceled(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]string{"id": "pred-1", "status": "starting"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "pred-1", "status": "processing"})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GeneratePrediction(ctx, PredictionRequest{Version: "v1", Prompt: "p"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncateBody(t *testing.T) {
	assert.Equal(t, "short", truncateBody([]byte("  short \n")))

	long := make([]byte, 1024)
	for i := range long {
		long[i] = 'x'
	}
	got := truncateBody(long)
	assert.Len(t, []rune(got), 513)
}
