package enhance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiEnhancerDefaults(t *testing.T) {
	enhancer, err := NewGeminiEnhancer(context.Background(), WithAPIKey("test-key"))

	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", enhancer.model)
	assert.NotNil(t, enhancer.client)
}

func TestNewGeminiEnhancerOptions(t *testing.T) {
	enhancer, err := NewGeminiEnhancer(context.Background(), WithAPIKey("test-key"), WithModel("gemini-2.5-flash-lite"))

	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash-lite", enhancer.model)
	assert.Equal(t, "test-key", enhancer.apiKey)
}
