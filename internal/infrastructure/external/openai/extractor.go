package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/expensehub/approval-engine/internal/application/port"
)

// Extractor implements port.ReceiptExtractor using GPT-4 Vision. Receipts
// arrive as PDFs or images; PDFs are rasterized first.
type Extractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewExtractor creates a new receipt extractor
func NewExtractor(apiKey, model string, logger *zap.Logger) *Extractor {
	return &Extractor{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Extract reads a receipt file and returns the structured fields. API or
// parse failures are reported inside the result rather than as an error so
// callers can store the failure verbatim; only unreadable files error out.
func (e *Extractor) Extract(ctx context.Context, receiptPath string) (*port.ReceiptExtraction, error) {
	e.logger.Info("Extracting receipt data", zap.String("path", receiptPath))

	images, err := receiptToImages(receiptPath, e.logger)
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no pages extracted from %s", receiptPath)
	}

	// First two pages are enough for a receipt and bound the request size.
	maxPages := 2
	if len(images) < maxPages {
		maxPages = len(images)
	}

	contentParts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: visionPrompt,
	}}
	for _, imgData := range images[:maxPages] {
		contentParts = append(contentParts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(imgData)),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		MaxTokens:   1024,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert at reading purchase receipts and extracting merchant, date, amount and currency. Always respond with valid JSON.",
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: contentParts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("Vision API call failed", zap.Error(err))
		return &port.ReceiptExtraction{
			Success: false,
			Error:   fmt.Sprintf("Vision API call failed: %v", err),
		}, nil
	}

	if len(resp.Choices) == 0 {
		return &port.ReceiptExtraction{
			Success: false,
			Error:   "no response from Vision API",
		}, nil
	}

	content := resp.Choices[0].Message.Content

	var result port.ReceiptExtraction
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		e.logger.Error("Failed to parse Vision API response",
			zap.Error(err),
			zap.String("content", content))
		return &port.ReceiptExtraction{
			Success: false,
			Error:   fmt.Sprintf("failed to parse response: %v", err),
		}, nil
	}
	result.Success = true

	e.logger.Info("Receipt data extracted",
		zap.String("merchant", result.MerchantName),
		zap.Float64("total_amount", result.TotalAmount),
		zap.Float64("confidence", result.Confidence))

	return &result, nil
}

const visionPrompt = `Examine this purchase receipt and extract the key fields.

Return a JSON object with this exact structure:
{
  "merchant_name": "string",
  "receipt_date": "YYYY-MM-DD",
  "total_amount": number,
  "currency": "ISO 4217 code, e.g. USD",
  "confidence": number between 0.0 and 1.0
}

IMPORTANT:
- Extract EXACTLY what you see. Do not guess or make up values.
- total_amount is the final amount paid, after tax and tips.
- For amounts, use numbers without currency symbols.
- If a field is not visible or unclear, use empty string "" or 0.
- Set confidence to reflect how clearly the receipt is readable.`

// Verify interface compliance
var _ port.ReceiptExtractor = (*Extractor)(nil)
