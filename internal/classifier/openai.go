package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/archivist-ml/collate/internal/block"
)

const systemPrompt = `You classify a single text block extracted from a scanned document page.
Given the block text and its position on the page, assign one semantic label.
Position is normalized: y near 0 is the top of the page, y near 1 the bottom.
Return only the JSON object described by the schema.`

// labelSchema constrains the model to the canonical vocabulary plus a
// calibrated confidence.
var labelSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"label": map[string]any{
			"type": "string",
			"enum": []string{
				string(block.LabelBodyText),
				string(block.LabelFootnote),
				string(block.LabelHeading),
				string(block.LabelFrontMatter),
				string(block.LabelCaption),
				string(block.LabelPageHeader),
				string(block.LabelPageFooter),
			},
		},
		"confidence": map[string]any{
			"type":    "number",
			"minimum": 0,
			"maximum": 1,
		},
	},
	"required":             []string{"label", "confidence"},
	"additionalProperties": false,
}

// OpenAIConfig configures the OpenAI-backed classifier.
type OpenAIConfig struct {
	Model   string
	APIKey  string
	BaseURL string        // optional override for compatible endpoints
	Timeout time.Duration // per-call bound
	Logger  *slog.Logger
}

// OpenAIClassifier implements Classifier with a structured-output chat call.
type OpenAIClassifier struct {
	client  openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewOpenAI creates the classifier. The API key must already have ${ENV_VAR}
// references resolved.
func NewOpenAI(cfg OpenAIConfig) *OpenAIClassifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClassifier{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "classifier", "type", "openai"),
	}
}

// Classify predicts a label for one block. Every failure path wraps
// ErrUnavailable so the resolver can fall through to unresolved.
func (c *OpenAIClassifier) Classify(ctx context.Context, b block.TextBlock) (*Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	user := fmt.Sprintf("Page %d, bbox (%.3f, %.3f, %.3f, %.3f)\n\nText:\n%s",
		b.PageNo, b.BBox.X1, b.BBox.Y1, b.BBox.X2, b.BBox.Y2, b.Text)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(user),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "block_label",
					Strict: openai.Bool(true),
					Schema: labelSchema,
				},
			},
		},
	})
	if err != nil {
		c.logger.Warn("classifier call failed", "block_id", b.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	var out struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}

	label := block.Label(out.Label)
	if !block.ValidLabel(label) || label == block.LabelUnresolved {
		return nil, fmt.Errorf("%w: label %q outside vocabulary", ErrUnavailable, out.Label)
	}

	return &Prediction{Label: label, Confidence: out.Confidence}, nil
}

var _ Classifier = (*OpenAIClassifier)(nil)
