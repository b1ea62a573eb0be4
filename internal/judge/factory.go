package judge

import (
	"context"
	"fmt"
	"os"

	"github.com/berth-dev/intake/internal/config"
)

// New builds the backend selected by cfg. API keys are read from the
// environment.
func New(ctx context.Context, cfg config.JudgeConfig) (Client, error) {
	switch cfg.Provider {
	case config.ProviderClaude, "":
		return NewClaude(cfg.Model), nil
	case config.ProviderOpenAI:
		return NewOpenAI(os.Getenv("OPENAI_API_KEY"), cfg.Model)
	case config.ProviderGemini:
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			key = os.Getenv("GOOGLE_API_KEY")
		}
		return NewGemini(ctx, key, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown judge provider %q", cfg.Provider)
	}
}
