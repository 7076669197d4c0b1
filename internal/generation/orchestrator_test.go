package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visiona-app/visiona/internal/entitlement"
	"github.com/visiona-app/visiona/internal/models"
	"github.com/visiona-app/visiona/internal/replicate"
	"github.com/visiona-app/visiona/internal/store"
)

type fakeStore struct {
	model     *models.Model
	getErr    error
	nextID    int64
	created   []*models.Generation
	createErr map[string]error
}

func (f *fakeStore) GetModelForUser(ctx context.Context, modelID, userID int64) (*models.Model, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.model, nil
}

func (f *fakeStore) CreateGeneration(ctx context.Context, generation *models.Generation) error {
	if err, ok := f.createErr[generation.ImageURL]; ok {
		return err
	}
	f.nextID++
	generation.ID = f.nextID
	f.created = append(f.created, generation)
	return nil
}

type fakeSynthesizer struct {
	outputs  []string
	err      error
	requests []replicate.PredictionRequest
}

func (f *fakeSynthesizer) GeneratePrediction(ctx context.Context, req replicate.PredictionRequest) ([]string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.outputs, nil
}

type fakeEnhancer struct {
	enhanced string
	err      error
	calls    int
}

func (f *fakeEnhancer) Enhance(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.enhanced, nil
}

type fakeUsage struct {
	generations int
}

func (f *fakeUsage) CountGenerationsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	return f.generations, nil
}

func (f *fakeUsage) CountModelsByUser(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

type fakePayments struct{}

func (f *fakePayments) ListPaymentRecordsByUser(ctx context.Context, userID int64) ([]*models.PaymentRecord, error) {
	return nil, nil
}

type fakeAudit struct {
	actions []string
	details []map[string]any
}

func (f *fakeAudit) Record(ctx context.Context, userID int64, action string, details map[string]any) error {
	f.actions = append(f.actions, action)
	f.details = append(f.details, details)
	return nil
}

type fixture struct {
	store       *fakeStore
	synthesizer *fakeSynthesizer
	enhancer    *fakeEnhancer
	audit       *fakeAudit
	usage       *fakeUsage
}

func readyModel() *models.Model {
	return &models.Model{ID: 3, UserID: 1, JobID: "version-abc", Status: models.ModelStatusReady}
}

func newFixture() *fixture {
	return &fixture{
		store:       &fakeStore{model: readyModel()},
		synthesizer: &fakeSynthesizer{outputs: []string{"https://cdn.example.com/a.png"}},
		enhancer:    &fakeEnhancer{enhanced: "a cinematic portrait"},
		audit:       &fakeAudit{},
		usage:       &fakeUsage{},
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	guard := entitlement.NewQuotaGuard(f.usage, entitlement.NewResolver(&fakePayments{}))
	return NewOrchestrator(OrchestratorConfig{
		Store:       f.store,
		Quota:       guard,
		Enhancer:    f.enhancer,
		Synthesizer: f.synthesizer,
		Audit:       f.audit,
	})
}

func TestGenerateHappyPath(t *testing.T) {
	f := newFixture()

	images, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "a portrait"})

	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "https://cdn.example.com/a.png", images[0].ImageURL)
	assert.Equal(t, "a portrait", images[0].Prompt)
	assert.Nil(t, images[0].EnhancedPrompt)

	require.Len(t, f.synthesizer.requests, 1)
	req := f.synthesizer.requests[0]
	assert.Equal(t, "version-abc", req.Version)
	assert.Equal(t, 1, req.NumOutputs)
	assert.InDelta(t, 7.5, req.GuidanceScale, 0.001)
	assert.Equal(t, 512, req.Width)
	assert.Equal(t, 512, req.Height)
	assert.Equal(t, negativePrompt, req.NegativePrompt)

	require.Equal(t, []string{"image_generation"}, f.audit.actions)
}

func TestGenerateAspectRatioDimensions(t *testing.T) {
	cases := map[string][2]int{
		"1:1":      {512, 512},
		"4:3":      {512, 384},
		"3:4":      {384, 512},
		"16:9":     {512, 288},
		"9:16":     {288, 512},
		"whatever": {512, 512},
	}
	for ratio, want := range cases {
		t.Run(ratio, func(t *testing.T) {
			f := newFixture()

			_, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "p", AspectRatio: ratio})

			require.NoError(t, err)
			require.Len(t, f.synthesizer.requests, 1)
			assert.Equal(t, want[0], f.synthesizer.requests[0].Width)
			assert.Equal(t, want[1], f.synthesizer.requests[0].Height)
		})
	}
}

func TestGenerateWithEnhancement(t *testing.T) {
	f := newFixture()

	images, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "a portrait", EnhancePrompt: true})

	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "a portrait", images[0].Prompt)
	require.NotNil(t, images[0].EnhancedPrompt)
	assert.Equal(t, "a cinematic portrait", *images[0].EnhancedPrompt)
	assert.Equal(t, "a cinematic portrait", f.synthesizer.requests[0].Prompt)
	assert.Equal(t, "a cinematic portrait", f.audit.details[0]["enhanced_prompt"])
}

func TestGenerateEnhancementFailureFallsBack(t *testing.T) {
	f := newFixture()
	f.enhancer.err = errors.New("model overloaded")

	images, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "a portrait", EnhancePrompt: true})

	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Nil(t, images[0].EnhancedPrompt)
	assert.Equal(t, "a portrait", f.synthesizer.requests[0].Prompt)
	assert.Equal(t, 1, f.enhancer.calls)
}

func TestGenerateQuotaBlocksBeforeSynthesis(t *testing.T) {
	f := newFixture()
	f.usage.generations = 20

	_, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "p"})

	assert.ErrorIs(t, err, entitlement.ErrQuotaExceeded)
	assert.Empty(t, f.synthesizer.requests)
}

func TestGenerateModelNotFound(t *testing.T) {
	f := newFixture()
	f.store.getErr = store.ErrNotFound

	_, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "p"})

	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestGenerateModelNotReady(t *testing.T) {
	f := newFixture()
	f.store.model.Status = models.ModelStatusProcessing

	_, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "p"})

	assert.ErrorIs(t, err, ErrModelNotReady)
}

func TestGenerateSynthesisFailure(t *testing.T) {
	f := newFixture()
	f.synthesizer.err = errors.New("NSFW content detected")

	_, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "p"})

	assert.ErrorIs(t, err, ErrSynthesisJobFailed)
	assert.Contains(t, err.Error(), "NSFW content detected")
}

func TestGenerateSkipsMalformedAssetURLs(t *testing.T) {
	f := newFixture()
	f.synthesizer.outputs = []string{
		"https://cdn.example.com/a.png",
		"not a url at all",
		"https://cdn.example.com/b.png",
		"file:///etc/passwd",
	}

	images, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "p", ImageCount: 4})

	require.NoError(t, err)
	assert.Len(t, images, 2)
	failures, ok := f.audit.details[0]["failed_assets"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, failures, 2)
}

func TestGeneratePartialPersistenceFailure(t *testing.T) {
	f := newFixture()
	f.synthesizer.outputs = []string{
		"https://cdn.example.com/a.png",
		"https://cdn.example.com/b.png",
		"https://cdn.example.com/c.png",
	}
	f.store.createErr = map[string]error{
		"https://cdn.example.com/b.png": errors.New("disk full"),
	}

	images, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "p", ImageCount: 3})

	require.NoError(t, err)
	assert.Len(t, images, 2)
	assert.Equal(t, "https://cdn.example.com/a.png", images[0].ImageURL)
	assert.Equal(t, "https://cdn.example.com/c.png", images[1].ImageURL)
}

func TestGenerateAllPersistenceFailed(t *testing.T) {
	f := newFixture()
	f.store.createErr = map[string]error{
		"https://cdn.example.com/a.png": errors.New("disk full"),
	}

	_, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "p"})

	assert.ErrorIs(t, err, ErrPersistenceFailed)

	// The failed batch still gets its audit entry.
	require.Equal(t, []string{"image_generation"}, f.audit.actions)
	ids, ok := f.audit.details[0]["generated_images"].([]int64)
	require.True(t, ok)
	assert.Empty(t, ids)
	failures, ok := f.audit.details[0]["failed_assets"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, failures, 1)
}

func TestGenerateSingleAuditEntryPerRequest(t *testing.T) {
	f := newFixture()
	f.synthesizer.outputs = []string{
		"https://cdn.example.com/a.png",
		"https://cdn.example.com/b.png",
		"https://cdn.example.com/c.png",
	}

	_, err := f.orchestrator().Generate(context.Background(), 1, Request{ModelID: 3, Prompt: "p", ImageCount: 3})

	require.NoError(t, err)
	require.Len(t, f.audit.actions, 1)
	ids, ok := f.audit.details[0]["generated_images"].([]int64)
	require.True(t, ok)
	assert.Len(t, ids, 3)
}
