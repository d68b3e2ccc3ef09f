package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements the collaborator contracts against the OpenAI API.
type OpenAIClient struct {
	client         *openai.Client
	model          string
	embeddingModel string
	log            zerolog.Logger
}

// NewOpenAIClient creates a client for the configured chat and embedding models.
func NewOpenAIClient(apiKey, model, embeddingModel string, log zerolog.Logger) *OpenAIClient {
	return &OpenAIClient{
		client:         openai.NewClient(apiKey),
		model:          model,
		embeddingModel: embeddingModel,
		log:            log.With().Str("component", "openai").Logger(),
	}
}

// GenerateJSON runs a chat completion in JSON mode and returns the body.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, system, user string) ([]byte, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens: 600,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: empty response")
	}
	return []byte(resp.Choices[0].Message.Content), nil
}

// Score grades an open-ended answer against the item rubric, asking the model
// for a JSON object matching RubricResult.
func (c *OpenAIClient) Score(ctx context.Context, answer string, rubric map[string]string) (RubricResult, error) {
	var criteria strings.Builder
	for key, desc := range rubric {
		fmt.Fprintf(&criteria, "- %s: %s\n", key, desc)
	}

	system := "Você é um avaliador de respostas sobre proficiência em IA. " +
		"Avalie a resposta do usuário contra a rubrica e retorne JSON: " +
		`{"score": 0.0-1.0, "breakdown": {"criterio": 0.0-1.0, ...}, "flags": {}}`
	user := fmt.Sprintf("Rubrica:\n%s\nResposta do usuário:\n%s", criteria.String(), answer)

	body, err := c.GenerateJSON(ctx, system, user)
	if err != nil {
		return RubricResult{}, err
	}

	var result RubricResult
	if err := json.Unmarshal(body, &result); err != nil {
		return RubricResult{}, fmt.Errorf("parse rubric result: %w", err)
	}
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 1 {
		result.Score = 1
	}
	return result, nil
}

// Embed returns the embedding vector for the given text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("create embedding: empty response")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float64, len(raw))
	for i, v := range raw {
		vec[i] = float64(v)
	}
	return vec, nil
}

// Moderate screens text through the moderation endpoint.
func (c *OpenAIClient) Moderate(ctx context.Context, text string) (ModerationResult, error) {
	resp, err := c.client.Moderations(ctx, openai.ModerationRequest{Input: text})
	if err != nil {
		return ModerationResult{}, fmt.Errorf("moderate: %w", err)
	}
	if len(resp.Results) == 0 {
		return ModerationResult{Safe: true}, nil
	}

	result := resp.Results[0]
	if !result.Flagged {
		return ModerationResult{Safe: true}, nil
	}

	c.log.Warn().Msg("moderation flagged input text")
	return ModerationResult{Safe: false, Flags: []string{"flagged"}}, nil
}
