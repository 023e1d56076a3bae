package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/hangman/pkg/logger"
	"github.com/okian/hangman/pkg/metrics"
)

const (
	defaultModel   = "gemini-2.0-flash"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Option configures a GeminiClient.
type Option func(*GeminiClient)

// WithModel sets the model name, e.g. "gemini-2.0-flash".
func WithModel(model string) Option {
	return func(c *GeminiClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at another endpoint. Tests use httptest.
func WithBaseURL(base string) Option {
	return func(c *GeminiClient) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *GeminiClient) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds each request, streaming included.
func WithTimeout(d time.Duration) Option {
	return func(c *GeminiClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSystemPrompt replaces DefaultSystemPrompt, the instruction sent ahead
// of every conversation. An empty prompt keeps the default.
func WithSystemPrompt(prompt string) Option {
	return func(c *GeminiClient) {
		if prompt != "" {
			c.systemPrompt = prompt
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *GeminiClient) {
		if l != nil {
			c.log = l
		}
	}
}

// GeminiClient implements Client over the generateContent REST API.
type GeminiClient struct {
	apiKey       string
	model        string
	baseURL      string
	systemPrompt string
	timeout      time.Duration
	http         *http.Client
	log          logger.Logger
}

// NewGeminiClient returns a client. An empty apiKey yields a client whose
// calls fail with ErrNotConfigured.
func NewGeminiClient(apiKey string, opts ...Option) *GeminiClient {
	c := &GeminiClient{
		apiKey:       apiKey,
		model:        defaultModel,
		baseURL:      defaultBaseURL,
		systemPrompt: DefaultSystemPrompt,
		timeout:      defaultTimeout,
		http:         &http.Client{},
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func (c *GeminiClient) buildRequest(message string, history []Turn) generateRequest {
	contents := make([]content, 0, len(history)+1)
	for _, t := range history {
		role := RoleUser
		if t.Role == RoleModel {
			role = RoleModel
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: t.Text}}})
	}
	contents = append(contents, content{Role: RoleUser, Parts: []part{{Text: message}}})

	req := generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
	}
	if c.systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: c.systemPrompt}}}
	}
	return req
}

func (c *GeminiClient) post(ctx context.Context, method string, query url.Values, body generateRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	query.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/%s:%s?%s", c.baseURL, url.PathEscape(c.model), method, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn(ctx, "chat upstream error",
			logger.Int("status", resp.StatusCode), logger.String("body", string(detail)))
		return nil, fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	}
	return resp, nil
}

func (c *GeminiClient) check(message string) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// Send implements Client.
func (c *GeminiClient) Send(ctx context.Context, message string, history []Turn) (reply string, err error) {
	defer func() { metrics.RecordChatRequest("send", result(err)) }()
	if err := c.check(message); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.post(ctx, "generateContent", url.Values{}, c.buildRequest(message, history))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}
	text := out.text()
	if text == "" {
		return "", fmt.Errorf("%w: empty reply", ErrUnavailable)
	}
	return text, nil
}

// Stream implements Client using server-sent events.
func (c *GeminiClient) Stream(ctx context.Context, message string, history []Turn, onChunk func(string) error) (err error) {
	defer func() { metrics.RecordChatRequest("stream", result(err)) }()
	if err := c.check(message); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.post(ctx, "streamGenerateContent", url.Values{"alt": {"sse"}}, c.buildRequest(message, history))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	sent := false
	for sc.Scan() {
		line := sc.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}
		var ev generateResponse
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return fmt.Errorf("%w: decode event: %w", ErrUnavailable, err)
		}
		if chunk := ev.text(); chunk != "" {
			sent = true
			if err := onChunk(chunk); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: read stream: %w", ErrUnavailable, err)
	}
	if !sent {
		return fmt.Errorf("%w: empty reply", ErrUnavailable)
	}
	return nil
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
