package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	Logger "github.com/jotagep/redditlens/utils/log"
	"github.com/pkg/errors"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"

	systemPrompt = "You are an expert in forum content analysis. You will analyze posts and categorize them according to specific criteria."

	// placeholder body used when a post has no self text
	emptyBodyPlaceholder = "(no additional content)"
)

// Categories is the fixed-shape classification of one post. The four flags
// are independent, a post may match any subset of them. The zero value (all
// false) doubles as the fallback when the model returns no structured result.
type Categories struct {
	// the post asks for a solution to a problem
	SolutionRequests bool `json:"solutionRequests"`
	// the post expresses distress or frustration
	PainAndAnger bool `json:"painAndAnger"`
	// the post asks for advice
	AdviceRequests bool `json:"adviceRequests"`
	// the post discusses spending money
	MoneyTalk bool `json:"moneyTalk"`
}

var categoryDescriptions = []struct {
	name        string
	description string
}{
	{"solutionRequests", "Posts where people are looking for solutions to problems"},
	{"painAndAnger", "Posts where people express pain or anger"},
	{"adviceRequests", "Posts where people are asking for advice"},
	{"moneyTalk", "Posts where people talk about spending money"},
}

// Client classifies posts through an OpenAI-compatible chat completions api,
// forcing a structured json response with exactly the four category flags.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client for the real OpenAI endpoint, reading the api key
// from OPENAI_API_KEY.
func NewClient(model string) *Client {
	return &Client{
		endpoint: defaultEndpoint,
		model:    model,
		apiKey:   os.Getenv("OPENAI_API_KEY"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithEndpoint builds a client against a custom endpoint, used by
// tests to point at a local fake.
func NewClientWithEndpoint(endpoint string, model string, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends one post's title and body to the language model and returns
// the four category flags. A missing body is replaced with a placeholder. If
// the model answers without a parseable structured result the all-false
// classification is returned instead of an error; transport and api failures
// propagate as errors.
func (c *Client) Classify(ctx context.Context, title string, body string) (Categories, error) {
	if c.apiKey == "" {
		return Categories{}, errors.New("classify: OPENAI_API_KEY is not set")
	}
	if strings.TrimSpace(body) == "" {
		body = emptyBodyPlaceholder
	}

	payload, err := json.Marshal(map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildPrompt(title, body)},
		},
		"response_format": responseFormat(),
	})
	if err != nil {
		return Categories{}, errors.Wrap(err, "classify: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Categories{}, errors.Wrap(err, "classify: build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Categories{}, errors.Wrap(err, "classify: call chat completions")
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return Categories{}, errors.Errorf("classify: api status %d: %s", res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	resp := chatResponse{}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return Categories{}, errors.Wrap(err, "classify: decode response")
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		Logger.Log.Warnf("classification returned no structured result for post %q, defaulting to all-false", title)
		return Categories{}, nil
	}

	categories := Categories{}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &categories); err != nil {
		Logger.Log.Warnf("classification content is not valid json for post %q, defaulting to all-false: %v", title, err)
		return Categories{}, nil
	}
	return categories, nil
}

func buildPrompt(title string, body string) string {
	lines := make([]string, 0, len(categoryDescriptions))
	for _, cat := range categoryDescriptions {
		lines = append(lines, fmt.Sprintf("%s: %s", cat.name, cat.description))
	}
	return fmt.Sprintf(`Analyze the following forum post:
Title: %s
Content: %s

Categorize the post according to these categories:
%s
`, title, body, strings.Join(lines, "\n"))
}

// responseFormat is the json schema forcing the model to answer with exactly
// the four boolean flags.
func responseFormat() map[string]interface{} {
	properties := map[string]interface{}{}
	required := []string{}
	for _, cat := range categoryDescriptions {
		properties[cat.name] = map[string]interface{}{
			"type":        "boolean",
			"description": cat.description,
		}
		required = append(required, cat.name)
	}
	return map[string]interface{}{
		"type": "json_schema",
		"json_schema": map[string]interface{}{
			"name":   "categorize_post",
			"strict": true,
			"schema": map[string]interface{}{
				"type":                 "object",
				"properties":           properties,
				"required":             required,
				"additionalProperties": false,
			},
		},
	}
}
