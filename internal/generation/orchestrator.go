package generation

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/visiona-app/visiona/internal/audit"
	"github.com/visiona-app/visiona/internal/enhance"
	"github.com/visiona-app/visiona/internal/entitlement"
	"github.com/visiona-app/visiona/internal/models"
	"github.com/visiona-app/visiona/internal/replicate"
	"github.com/visiona-app/visiona/internal/store"
)

const negativePrompt = "blurry, distorted, low quality, unrealistic, pixelated"

var (
	ErrModelNotFound      = errors.New("model not found")
	ErrModelNotReady      = errors.New("model is not ready for generation")
	ErrSynthesisJobFailed = errors.New("image synthesis failed")
	ErrPersistenceFailed  = errors.New("no generated assets could be persisted")
)

// aspectDimensions maps aspect-ratio selectors to fixed width/height pairs,
// normalized so the longer side is 512.
var aspectDimensions = map[string][2]int{
	"1:1":  {512, 512},
	"4:3":  {512, 384},
	"3:4":  {384, 512},
	"16:9": {512, 288},
	"9:16": {288, 512},
}

type Synthesizer interface {
	GeneratePrediction(ctx context.Context, req replicate.PredictionRequest) ([]string, error)
}

type Store interface {
	GetModelForUser(ctx context.Context, modelID, userID int64) (*models.Model, error)
	CreateGeneration(ctx context.Context, generation *models.Generation) error
}

type Request struct {
	ModelID       int64   `json:"model_id"`
	Prompt        string  `json:"prompt"`
	EnhancePrompt bool    `json:"enhance_prompt"`
	ImageCount    int     `json:"image_count"`
	GuidanceScale float64 `json:"guidance_scale"`
	AspectRatio   string  `json:"aspect_ratio"`
}

type Orchestrator struct {
	store       Store
	quota       *entitlement.QuotaGuard
	enhancer    enhance.Enhancer
	synthesizer Synthesizer
	audit       audit.Writer
}

type OrchestratorConfig struct {
	Store       Store
	Quota       *entitlement.QuotaGuard
	Enhancer    enhance.Enhancer
	Synthesizer Synthesizer
	Audit       audit.Writer
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		store:       cfg.Store,
		quota:       cfg.Quota,
		enhancer:    cfg.Enhancer,
		synthesizer: cfg.Synthesizer,
		audit:       cfg.Audit,
	}
}

// Generate runs the full synthesis flow: quota check, model validation,
// optional prompt enhancement, the blocking synthesis job, per-asset
// persistence, and one audit entry for the whole request. The returned slice
// may be shorter than the requested count; that is a success, not an error.
func (o *Orchestrator) Generate(ctx context.Context, userID int64, req Request) ([]*models.Generation, error) {
	if req.ImageCount <= 0 {
		req.ImageCount = 1
	}
	if req.GuidanceScale <= 0 {
		req.GuidanceScale = 7.5
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "1:1"
	}

	if err := o.quota.CheckGenerationQuota(ctx, userID); err != nil {
		return nil, err
	}

	model, err := o.store.GetModelForUser(ctx, req.ModelID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, err
	}
	if model.Status != models.ModelStatusReady {
		return nil, ErrModelNotReady
	}

	effectivePrompt := req.Prompt
	var enhancedPrompt *string
	if req.EnhancePrompt {
		enhanced, err := o.enhancer.Enhance(ctx, req.Prompt)
		if err != nil {
			// Enhancement is best-effort: the request continues on the
			// original prompt.
			log.Warn().
				Err(err).
				Int64("userID", userID).
				Int64("modelID", model.ID).
				Msg("Prompt enhancement failed, using original prompt")
		} else {
			effectivePrompt = enhanced
			enhancedPrompt = &enhanced
		}
	}

	dims, ok := aspectDimensions[req.AspectRatio]
	if !ok {
		dims = aspectDimensions["1:1"]
	}

	outputs, err := o.synthesizer.GeneratePrediction(ctx, replicate.PredictionRequest{
		Version:        model.JobID,
		Prompt:         effectivePrompt,
		NegativePrompt: negativePrompt,
		NumOutputs:     req.ImageCount,
		GuidanceScale:  req.GuidanceScale,
		Width:          dims[0],
		Height:         dims[1],
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisJobFailed, err)
	}

	persisted := make([]*models.Generation, 0, len(outputs))
	failures := make([]map[string]any, 0)
	for _, imageURL := range outputs {
		if !validAssetURL(imageURL) {
			log.Error().
				Int64("userID", userID).
				Int64("modelID", model.ID).
				Str("url", imageURL).
				Msg("Skipping malformed asset URL")
			failures = append(failures, map[string]any{"url": imageURL, "error": "malformed asset URL"})
			continue
		}

		generation := &models.Generation{
			UserID:         userID,
			ModelID:        model.ID,
			Prompt:         req.Prompt,
			EnhancedPrompt: enhancedPrompt,
			ImageURL:       imageURL,
		}
		if err := o.store.CreateGeneration(ctx, generation); err != nil {
			// One asset failing must not take the rest down with it.
			log.Error().
				Err(err).
				Int64("userID", userID).
				Int64("modelID", model.ID).
				Msg("Failed to persist generated asset")
			failures = append(failures, map[string]any{"url": imageURL, "error": err.Error()})
			continue
		}
		persisted = append(persisted, generation)
	}

	generatedIDs := make([]int64, 0, len(persisted))
	for _, g := range persisted {
		generatedIDs = append(generatedIDs, g.ID)
	}

	// The audit entry covers the batch whether or not anything was saved.
	details := map[string]any{
		"model_id":         model.ID,
		"prompt":           req.Prompt,
		"image_count":      req.ImageCount,
		"generated_images": generatedIDs,
	}
	if enhancedPrompt != nil {
		details["enhanced_prompt"] = *enhancedPrompt
	}
	if len(failures) > 0 {
		details["failed_assets"] = failures
	}
	if err := o.audit.Record(ctx, userID, "image_generation", details); err != nil {
		log.Error().
			Err(err).
			Int64("userID", userID).
			Msg("Failed to write audit entry for generation")
	}

	if len(persisted) == 0 {
		return nil, ErrPersistenceFailed
	}

	return persisted, nil
}

func validAssetURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
