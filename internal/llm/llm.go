// Package llm generates assessments and topic lists through an
// OpenAI-compatible chat completion API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/varna8104/AssessmentGen/internal/llm/prompts"
	"github.com/varna8104/AssessmentGen/internal/model"
	"github.com/varna8104/AssessmentGen/internal/normalize"

	openai "github.com/sashabaranov/go-openai"
)

const maxGenerationTokens = 8000

// TopicsResult is the parsed topic-generation response.
type TopicsResult struct {
	MainTopic string   `json:"mainTopic"`
	Topics    []string `json:"topics"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
	seed  int
}

// New creates a new LLM client. baseURL may be empty for the default
// OpenAI endpoint; seed pins generation for reproducible assessments.
func New(baseURL, apiKey, modelName string, seed int) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
		seed:  seed,
	}
}

// Ping verifies the API endpoint and credentials are usable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint check: %w", err)
	}
	return nil
}

// GenerateAssessment asks the LLM for a complete assessment. The result is
// raw model output; callers normalize it before use.
func (c *Client) GenerateAssessment(ctx context.Context, params model.GenerateParams) (*normalize.RawAssessment, error) {
	seed := c.seed
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.GenerationSystem},
			{Role: openai.ChatMessageRoleUser, Content: prompts.Assessment(params)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
		Seed:        &seed,
		MaxTokens:   maxGenerationTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := stripFences(resp.Choices[0].Message.Content)
	slog.Debug("LLM assessment response", "bytes", len(raw))

	var assessment normalize.RawAssessment
	if err := json.Unmarshal([]byte(raw), &assessment); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	if len(assessment.Questions) == 0 {
		return nil, fmt.Errorf("LLM produced no questions")
	}
	return &assessment, nil
}

// GenerateTopics asks the LLM for subtopics of the assessment's subject.
func (c *Client) GenerateTopics(ctx context.Context, params model.GenerateParams) (*TopicsResult, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.TopicsSystem},
			{Role: openai.ChatMessageRoleUser, Content: prompts.Topics(params)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := stripFences(resp.Choices[0].Message.Content)

	var result TopicsResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse topics response: %w (raw: %s)", err, raw)
	}
	result.Topics = cleanTopics(result.Topics)
	if len(result.Topics) == 0 {
		return nil, fmt.Errorf("LLM produced no topics")
	}
	if result.MainTopic == "" {
		result.MainTopic = params.AssessmentName
	}
	return &result, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// cleanTopics trims entries, drops empties, and caps the list at 20.
func cleanTopics(topics []string) []string {
	cleaned := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		cleaned = append(cleaned, t)
		if len(cleaned) == 20 {
			break
		}
	}
	return cleaned
}
