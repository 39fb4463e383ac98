package extraction

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// extractionPrompt instructs the vision model to emit one markdown block per
// detected medicine. The parser in this package depends on this exact block
// structure.
const extractionPrompt = `You are reading a medical prescription. List every medicine you can identify.
For each medicine output a markdown section in exactly this format:

### Medicine 1
- **Name**: <medicine name>
- **Dosage**: <dosage, e.g. "500mg" or "1 ml - 1 ml">
- **Frequency**: <frequency, e.g. "twice daily", "bid", "6 hourly">
- **Timing**: <"before food", "after food", or "No information available">
- **Duration**: <e.g. "14 days", "2 months", "ongoing", or "No information available">

Use "No information available" for any field you cannot read. Do not add commentary.`

// Client calls an OpenAI-compatible vision endpoint to turn prescription
// images into the markdown text the parser consumes.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates an extraction client.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// ExtractFromImage sends the prescription image to the vision model and
// returns its raw markdown answer.
func (c *Client) ExtractFromImage(imageData []byte, mimeType string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("extraction API key not configured")
	}

	log.Printf("[EXTRACTION] Analyzing prescription image (%d bytes, %s)", len(imageData), mimeType)

	base64Image := base64.StdEncoding.EncodeToString(imageData)
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64Image)

	content := []map[string]interface{}{
		{"type": "text", "text": extractionPrompt},
		{
			"type": "image_url",
			"image_url": map[string]interface{}{
				"url":    dataURL,
				"detail": "auto",
			},
		},
	}

	return c.complete(content)
}

// ExtractFromText runs the extraction prompt over already-extracted document
// text (PDF prescriptions take this path).
func (c *Client) ExtractFromText(text string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("extraction API key not configured")
	}

	log.Printf("[EXTRACTION] Analyzing prescription text (%d chars)", len(text))

	content := []map[string]interface{}{
		{"type": "text", "text": extractionPrompt + "\n\nPrescription text:\n\n" + text},
	}

	return c.complete(content)
}

func (c *Client) complete(content []map[string]interface{}) (string, error) {
	requestBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{"role": "user", "content": content},
		},
		"max_tokens": 1500,
	}

	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/chat/completions", c.baseURL)
	httpReq, err := http.NewRequest(http.MethodPost, apiURL, bytes.NewReader(requestJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[EXTRACTION] API error: %d - %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("no response from extraction model")
	}

	text := apiResp.Choices[0].Message.Content
	log.Printf("[EXTRACTION] Extraction completed (%d chars)", len(text))
	return text, nil
}
