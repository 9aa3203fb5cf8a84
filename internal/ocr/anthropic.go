package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Defaults for the vision request.
const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 2000
)

const extractionPrompt = `この書類画像から情報を抽出してJSON形式で返してください。

抽出項目:
- document_type: 書類の種類（invoice, expense_report, celebration_application, other）
- issuer: 発行元（請求書を発行した会社名）
- recipient: 宛先（請求書の宛先会社名）
- invoice_no: 請求書番号
- date: 請求日（YYYY-MM-DD形式）
- total_amount: 合計金額（税込）
- items: 明細行の配列 [{"name": "品目名", "quantity": 数量, "unit_price": 単価, "amount": 金額}]
- description: 請求内容の要約（「○月分 ○○費」のような形式で）
- confidence: 読み取りの確信度（0から1）

JSONのみを返してください。説明は不要です。
金額は数値のみ（カンマなし）で返してください。
読み取れない項目は省略してください。`

// messageClient is the subset of the Anthropic SDK the extractor uses.
type messageClient interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Config configures the Anthropic extractor.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// AnthropicExtractor extracts invoice fields with Claude vision.
type AnthropicExtractor struct {
	messages  messageClient
	model     string
	maxTokens int64
}

// NewAnthropicExtractor creates an extractor backed by the Anthropic API.
func NewAnthropicExtractor(cfg Config) (*AnthropicExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key is required", common.ErrMissingConfig)
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return newAnthropicExtractor(&client.Messages, cfg), nil
}

func newAnthropicExtractor(messages messageClient, cfg Config) *AnthropicExtractor {
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &AnthropicExtractor{
		messages:  messages,
		model:     modelName,
		maxTokens: int64(maxTokens),
	}
}

// Extract sends the document to Claude and parses the JSON reply.
func (e *AnthropicExtractor) Extract(ctx context.Context, path string) (model.OCRFields, error) {
	mediaType, err := MediaType(path)
	if err != nil {
		return model.OCRFields{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.OCRFields{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	var source anthropic.ContentBlockParamUnion
	if mediaType == MediaTypePDF {
		source = anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: encoded})
	} else {
		source = anthropic.NewImageBlockBase64(mediaType, encoded)
	}

	slog.Debug("Sending document to OCR", "path", path, "media_type", mediaType, "bytes", len(data))

	message, err := e.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: e.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(source, anthropic.NewTextBlock(extractionPrompt)),
		},
	})
	if err != nil {
		return model.OCRFields{}, fmt.Errorf("%w: %v", common.ErrOCRFailed, err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return model.OCRFields{}, fmt.Errorf("%w: empty response", common.ErrOCRFailed)
	}

	fields, err := ParseFields(text.String())
	if err != nil {
		return model.OCRFields{}, fmt.Errorf("%w: %v", common.ErrOCRFailed, err)
	}
	return fields, nil
}
