package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ZhenYan1214/sugar-linebot-go/internal/ctxutil"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/lineutil"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/logger"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// helpText is the fallback reply for text that matches no trigger and no
// pending dialogue.
const helpText = "📋 請選擇操作：\n- 輸入「血糖紀錄」查看紀錄"

// Processor handles the core logic of processing LINE events.
// It validates incoming events and dispatches them to registered handlers.
type Processor struct {
	registry *Registry
	logger   *logger.Logger

	webhookTimeout      time.Duration
	maxPostbackDataSize int
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	Registry            *Registry
	Logger              *logger.Logger
	WebhookTimeout      time.Duration
	MaxPostbackDataSize int
}

// NewProcessor creates a new event processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	maxData := cfg.MaxPostbackDataSize
	if maxData <= 0 {
		maxData = lineutil.MaxPostbackData
	}
	return &Processor{
		registry:            cfg.Registry,
		logger:              cfg.Logger,
		webhookTimeout:      cfg.WebhookTimeout,
		maxPostbackDataSize: maxData,
	}
}

// ProcessMessage handles a text message event.
// Trigger phrases always win over pending dialogue state, so a user can bail
// out of an input prompt by typing another command.
func (p *Processor) ProcessMessage(ctx context.Context, event webhook.MessageEvent) ([]messaging_api.MessageInterface, error) {
	userID := GetUserID(event.Source)
	ctx = ctxutil.WithUserID(ctx, userID)

	// Only handle text messages
	if event.Message.GetType() != "text" {
		return nil, nil
	}

	textMsg, ok := event.Message.(webhook.TextMessageContent)
	if !ok {
		return nil, errors.New("failed to cast message to text")
	}

	text := strings.TrimSpace(textMsg.Text)
	if text == "" {
		return nil, nil // Empty message, ignore
	}

	processCtx, cancel := context.WithTimeout(ctxutil.PreserveTracing(ctx), p.webhookTimeout)
	defer cancel()

	// Dispatch to a module whose trigger matches the text
	if msgs := p.registry.DispatchMessage(processCtx, text); len(msgs) > 0 {
		return msgs, nil
	}

	// No trigger matched - offer the text to pending dialogues
	if msgs, consumed := p.registry.DispatchPendingInput(processCtx, text); consumed {
		return msgs, nil
	}

	return []messaging_api.MessageInterface{lineutil.NewTextMessage(helpText)}, nil
}

// ProcessPostback handles a postback event.
func (p *Processor) ProcessPostback(ctx context.Context, event webhook.PostbackEvent) ([]messaging_api.MessageInterface, error) {
	userID := GetUserID(event.Source)
	ctx = ctxutil.WithUserID(ctx, userID)

	data := strings.TrimSpace(event.Postback.Data)
	if data == "" {
		p.logger.Warn("empty postback data")
		return nil, nil
	}
	if len(data) > p.maxPostbackDataSize {
		p.logger.Warn("postback data too long", "bytes", len(data))
		return nil, nil
	}

	var params map[string]interface{}
	if event.Postback.Params != nil {
		params = make(map[string]interface{}, len(event.Postback.Params))
		for k, v := range event.Postback.Params {
			params[k] = v
		}
	}
	pb, err := ParsePostback(data, params)
	if err != nil {
		// Only buttons this bot built can produce postbacks, so a parse
		// failure means a stale client or a bug.
		p.logger.WithError(err).Warn("unparseable postback data")
		return nil, nil
	}

	p.logger.Debug("received postback", "action", pb.Action)

	processCtx, cancel := context.WithTimeout(ctxutil.PreserveTracing(ctx), p.webhookTimeout)
	defer cancel()

	if msgs := p.registry.DispatchPostback(processCtx, pb); len(msgs) > 0 {
		return msgs, nil
	}

	// Unknown action, stay silent like an expired button
	p.logger.Warn("no handler for postback action", "action", pb.Action)
	return nil, nil
}
