// internal/ai/segmenter.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/engagecrm/engage-backend/internal/model"
)

// FallbackLabel is used whenever the provider cannot label a customer.
const FallbackLabel = "Uncategorized"

const (
	batchSize      = 3
	interBatchWait = 500 * time.Millisecond
	callTimeout    = 15 * time.Second
)

// Segmenter labels customers with one-line marketing segments via an
// OpenAI-compatible chat-completions endpoint. Labeling is best effort: any
// per-customer failure yields FallbackLabel, never an error.
type Segmenter struct {
	APIKey        string
	BaseURL       string
	Model         string
	FallbackModel string
	HTTPClient    *http.Client

	mu          sync.Mutex
	useFallback bool
}

func NewSegmenter(apiKey, baseURL, primary, fallback string) *Segmenter {
	return &Segmenter{
		APIKey:        apiKey,
		BaseURL:       strings.TrimSuffix(baseURL, "/"),
		Model:         primary,
		FallbackModel: fallback,
		HTTPClient:    &http.Client{Timeout: callTimeout},
	}
}

// SegmentAll labels every customer. Calls run in batches of three with a
// short pause between batches to stay under provider rate limits.
func (s *Segmenter) SegmentAll(ctx context.Context, customers []*model.Customer) []*model.SegmentedCustomer {
	out := make([]*model.SegmentedCustomer, len(customers))

	for start := 0; start < len(customers); start += batchSize {
		end := start + batchSize
		if end > len(customers) {
			end = len(customers)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i] = &model.SegmentedCustomer{
					Customer: *customers[i],
					Segment:  s.labelOne(ctx, customers[i]),
				}
			}(i)
		}
		wg.Wait()

		if end < len(customers) {
			time.Sleep(interBatchWait)
		}
	}
	return out
}

func (s *Segmenter) labelOne(ctx context.Context, c *model.Customer) string {
	prompt := fmt.Sprintf(
		"Classify this customer into one short marketing segment label (max 4 words). "+
			"Total spend: %.2f. Visits: %d. Last active: %s. "+
			"Respond with the label only.",
		c.TotalSpend, c.Visits, c.LastActive.Format("2006-01-02"),
	)

	label, err := s.complete(ctx, s.activeModel(), prompt)
	if err != nil {
		if isModelRejected(err) && s.FallbackModel != "" {
			s.switchToFallback()
			label, err = s.complete(ctx, s.FallbackModel, prompt)
		}
		if err != nil {
			log.WithError(err).WithField("customerId", c.ID).Warn("segment labeling failed")
			return FallbackLabel
		}
	}

	label = strings.TrimSpace(label)
	if label == "" {
		return FallbackLabel
	}
	// One line only.
	if idx := strings.IndexByte(label, '\n'); idx >= 0 {
		label = strings.TrimSpace(label[:idx])
	}
	return label
}

func (s *Segmenter) activeModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.useFallback && s.FallbackModel != "" {
		return s.FallbackModel
	}
	return s.Model
}

// switchToFallback short-circuits every later call straight to the fallback
// model once the provider has rejected the primary.
func (s *Segmenter) switchToFallback() {
	s.mu.Lock()
	s.useFallback = true
	s.mu.Unlock()
	log.WithField("model", s.FallbackModel).Warn("primary model rejected, switching")
}

type modelRejectedError struct{ model string }

func (e *modelRejectedError) Error() string {
	return fmt.Sprintf("model %q rejected by provider", e.model)
}

func isModelRejected(err error) bool {
	_, ok := err.(*modelRejectedError)
	return ok
}

func (s *Segmenter) complete(ctx context.Context, modelName, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": modelName,
		"messages": []map[string]string{
			{"role": "system", "content": "You are a CRM analyst. Respond with a short segment label only."},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
		"max_tokens":  20,
	}
	body, _ := json.Marshal(reqBody)

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		// Providers report unknown models on both statuses.
		if bytes.Contains(respBody, []byte("model")) {
			return "", &modelRejectedError{model: modelName}
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion status %d: %s", resp.StatusCode, respBody)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
