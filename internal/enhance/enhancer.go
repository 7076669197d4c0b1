package enhance

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const systemInstruction = "You are an expert at enhancing image generation prompts. " +
	"Your task is to take a basic prompt and make it more detailed and effective for AI image generation. " +
	"Focus on adding details about lighting, composition, style, and other visual elements. " +
	"Keep the original intent of the prompt intact."

type Enhancer interface {
	Enhance(ctx context.Context, prompt string) (string, error)
}

type GeminiEnhancer struct {
	client *genai.Client
	model  string
	apiKey string
}

type GeminiEnhancerFuncOptions = func(e *GeminiEnhancer) error

func NewGeminiEnhancer(ctx context.Context, opts ...GeminiEnhancerFuncOptions) (*GeminiEnhancer, error) {
	enhancer := GeminiEnhancer{
		model: "gemini-2.5-flash",
	}
	for _, opt := range opts {
		if err := opt(&enhancer); err != nil {
			return nil, fmt.Errorf("failed to apply options: %w", err)
		}
	}

	var clientConfig *genai.ClientConfig
	if enhancer.apiKey != "" {
		clientConfig = &genai.ClientConfig{APIKey: enhancer.apiKey}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	enhancer.client = client
	return &enhancer, nil
}

func WithModel(model string) GeminiEnhancerFuncOptions {
	return func(e *GeminiEnhancer) error {
		e.model = model
		return nil
	}
}

func WithAPIKey(apiKey string) GeminiEnhancerFuncOptions {
	return func(e *GeminiEnhancer) error {
		e.apiKey = apiKey
		return nil
	}
}

func (e *GeminiEnhancer) Enhance(ctx context.Context, prompt string) (string, error) {
	contents := genai.Text(fmt.Sprintf("Enhance this image generation prompt: %q", prompt))
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	result, err := e.client.Models.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to enhance prompt: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty enhancement response")
	}
	return text, nil
}
