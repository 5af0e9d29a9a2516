// internal/ai/responder.go
//
// AI auto-reply through an OpenAI-compatible chat completion API.
//
/*
Context
--------
When the user-message webhook fires and auto-reply is enabled, the inbound
text is sent to a chat-completion provider with the admin's system prompt,
and the completion comes back as the reply to enqueue.  The API key, model,
and prompt all live in module_settings so the admin can change provider
behaviour without a deploy.

An empty API key or a disabled flag makes Reply return ErrDisabled; the
webhook treats that as "no reply", not as a failure.

Notes
-----
  • Oxford commas, two spaces after periods.
*/
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/indoai-web/web-sub001/internal/settings"
)

// ErrDisabled means auto-reply is off or not configured.
var ErrDisabled = errors.New("auto-reply disabled")

const defaultModel = openai.GPT4oMini

// Responder produces auto-replies.
type Responder struct {
	settings *settings.Store

	// newClient is swapped in tests to point at a stub server.
	newClient func(key string) *openai.Client
}

// NewResponder returns a Responder reading its configuration from st.
func NewResponder(st *settings.Store) *Responder {
	return &Responder{
		settings:  st,
		newClient: func(key string) *openai.Client { return openai.NewClient(key) },
	}
}

// Reply generates a reply to userMsg, or ErrDisabled when auto-reply is off.
func (r *Responder) Reply(ctx context.Context, userMsg string) (string, error) {
	enabled, err := r.settings.GetBool(ctx, settings.KeyAutoReplyOn)
	if err != nil {
		return "", err
	}
	key, err := r.settings.Get(ctx, settings.KeyAIKey)
	if err != nil {
		return "", err
	}
	if !enabled || key == "" {
		return "", ErrDisabled
	}

	model, err := r.settings.Get(ctx, settings.KeyAIModel)
	if err != nil {
		return "", err
	}
	if model == "" {
		model = defaultModel
	}
	prompt, err := r.settings.Get(ctx, settings.KeyAutoReplyPrompt)
	if err != nil {
		return "", err
	}

	msgs := []openai.ChatCompletionMessage{}
	if prompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMsg,
	})

	resp, err := r.newClient(key).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
