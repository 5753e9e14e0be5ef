// Package webhook provides LINE webhook handling: it authenticates each
// delivery, parses it into events, and dispatches them to the bot processor.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ZhenYan1214/sugar-linebot-go/internal/bot"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/config"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/ctxutil"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/logger"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/metrics"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/sentry"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/signature"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// Handler handles LINE webhook events
type Handler struct {
	channelSecret string
	client        *messaging_api.MessagingApiAPI
	metrics       *metrics.Metrics
	logger        *logger.Logger
	processor     *bot.Processor
	wg            sync.WaitGroup // WaitGroup for async event processing

	// LINE API constraints (from config.BotConfig)
	maxMessagesPerReply int
	maxEventsPerWebhook int
	minReplyTokenLength int
}

// HandlerConfig holds configuration for creating a new Handler
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	BotConfig     *config.BotConfig
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
	Processor     *bot.Processor
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	client, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}

	return &Handler{
		channelSecret:       cfg.ChannelSecret,
		client:              client,
		metrics:             cfg.Metrics,
		logger:              cfg.Logger,
		processor:           cfg.Processor,
		maxMessagesPerReply: cfg.BotConfig.MaxMessagesPerReply,
		maxEventsPerWebhook: cfg.BotConfig.MaxEventsPerWebhook,
		minReplyTokenLength: cfg.BotConfig.MinReplyTokenLength,
	}, nil
}

// Client exposes the messaging API client for the startup probe.
func (h *Handler) Client() *messaging_api.MessagingApiAPI {
	return h.client
}

// Handle is the Gin handler for the webhook endpoint
func (h *Handler) Handle(c *gin.Context) {
	// 1. Verify the signature over the byte-exact body before any parsing.
	// No event is ever dispatched for an unverified payload.
	body, err := c.GetRawData()
	if err != nil {
		h.logger.WithError(err).Error("Failed to read webhook body")
		c.Status(http.StatusBadRequest)
		return
	}

	if !signature.Verify(h.channelSecret, c.GetHeader(signature.HeaderName), body) {
		h.logger.Warn("Invalid webhook signature")
		h.metrics.RecordHTTPError("invalid_signature")
		c.Status(http.StatusBadRequest)
		return
	}

	// 2. Parse request. The SDK verifies the signature again while parsing;
	// the body reader is restored because GetRawData drained it.
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		h.logger.WithError(err).Error("Failed to parse webhook request")
		h.metrics.RecordHTTPError("parse_error")
		c.Status(http.StatusBadRequest)
		return
	}

	// 3. Return 200 OK immediately (LINE requirement)
	c.Status(http.StatusOK)

	// 4. Process events asynchronously
	start := time.Now()
	h.metrics.RecordWebhook("batch", "received", 0)

	// Validate event count (max events per webhook per LINE API spec)
	if len(cb.Events) > h.maxEventsPerWebhook {
		h.logger.Warn("Too many events in webhook batch; truncating",
			"event_count", len(cb.Events), "limit", h.maxEventsPerWebhook)
		cb.Events = cb.Events[:h.maxEventsPerWebhook]
	}

	// Copy events to avoid race condition after HTTP response completes
	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)

	// Process events asynchronously using WaitGroup.Go (Go 1.25+)
	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("Panic in async event processing", "panic", r)
				sentry.CaptureException(fmt.Errorf("panic in event processing: %v", r))
			}
		}()

		processingCtx := context.Background()
		for _, event := range events {
			h.processEvent(processingCtx, event, start)
		}
	})
}

// processEvent handles a single webhook event asynchronously
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface, webhookStart time.Time) {
	eventStart := time.Now()
	var messages []messaging_api.MessageInterface
	var eventType string
	var err error

	eventID := extractEventID(event)
	if eventID != "" {
		ctx = ctxutil.WithRequestID(ctx, eventID)
	}

	log := h.logger
	if eventID != "" {
		log = log.WithRequestID(eventID)
	}

	switch e := event.(type) {
	case webhook.MessageEvent:
		eventType = "message"
		messages, err = h.processor.ProcessMessage(ctx, e)
	case webhook.PostbackEvent:
		eventType = "postback"
		messages, err = h.processor.ProcessPostback(ctx, e)
	default:
		// Unsupported event type, skip
		log.Debug("Unsupported event type", "event_type", fmt.Sprintf("%T", e))
		return
	}

	eventDurationMs := time.Since(eventStart).Milliseconds()
	durationSeconds := float64(eventDurationMs) / 1000.0
	status := "success"
	if err != nil {
		status = "error"
		log.WithError(err).Error("Failed to handle event", "event_type", eventType)
		sentry.CaptureExceptionWithContext(ctx, err)
	}
	h.metrics.RecordWebhook(eventType, status, durationSeconds)

	if len(messages) > 0 && err == nil {
		// LINE API restriction: max messages per reply
		if len(messages) > h.maxMessagesPerReply {
			log.Warn("Message count exceeds limit; truncating",
				"message_count", len(messages), "limit", h.maxMessagesPerReply)
			messages = messages[:h.maxMessagesPerReply]
		}

		replyToken := h.getReplyToken(event)
		if replyToken == "" {
			log.Debug("Empty reply token, skipping reply")
			return
		}

		// Validate reply token format
		if len(replyToken) < h.minReplyTokenLength {
			log.Debug("Invalid reply token format", "token_length", len(replyToken))
			return
		}

		// Delivery failures are logged and swallowed. There is no channel to
		// notify the user, and a mutation that already happened stays done.
		if _, err := h.client.ReplyMessage(
			&messaging_api.ReplyMessageRequest{
				ReplyToken: replyToken,
				Messages:   messages,
			},
		); err != nil {
			if strings.Contains(err.Error(), "Invalid reply token") {
				log.WithError(err).Debug("Reply token already used or invalid")
			} else {
				log.WithError(err).Error("Failed to send reply")
			}
			h.metrics.RecordDeliveryFailure("reply")
		}
	}

	// Log overall processing duration
	batchDurationMs := time.Since(webhookStart).Milliseconds()
	log.Info("Event processed",
		"event_type", eventType,
		"event_duration_ms", eventDurationMs,
		"batch_duration_ms", batchDurationMs,
	)
}

func extractEventID(event webhook.EventInterface) string {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.WebhookEventId
	case webhook.PostbackEvent:
		return e.WebhookEventId
	default:
		return ""
	}
}

// getReplyToken extracts reply token from event
func (h *Handler) getReplyToken(event webhook.EventInterface) string {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.ReplyToken
	case webhook.PostbackEvent:
		return e.ReplyToken
	default:
		return ""
	}
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
