package llm

import (
	_ "embed"
)

// The system prompts are configuration, not logic; they live as versioned
// template assets next to the client.

//go:embed prompts/public.txt
var publicPrompt string

//go:embed prompts/private.txt
var privatePrompt string

const (
	ModePublic  = "public"
	ModePrivate = "private"
)

// SystemPrompt selects the prompt for a chat mode; unknown modes fall back
// to the public prompt.
func SystemPrompt(mode string) string {
	if mode == ModePrivate {
		return privatePrompt
	}
	return publicPrompt
}
