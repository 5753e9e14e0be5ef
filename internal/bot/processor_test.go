package bot

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ZhenYan1214/sugar-linebot-go/internal/ctxutil"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/logger"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// stubHandler matches a single trigger phrase and records what it saw.
type stubHandler struct {
	name    string
	trigger string
	actions map[string]bool

	pendingReply    string
	pendingConsumed bool

	lastText     string
	lastPostback *Postback
	lastUserID   string
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) CanHandle(text string) bool { return text == h.trigger }

func (h *stubHandler) HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface {
	h.lastText = text
	h.lastUserID = ctxutil.GetUserID(ctx)
	return []messaging_api.MessageInterface{&messaging_api.TextMessage{Text: "handled:" + text}}
}

func (h *stubHandler) CanHandlePostback(action string) bool { return h.actions[action] }

func (h *stubHandler) HandlePostback(ctx context.Context, pb *Postback) []messaging_api.MessageInterface {
	h.lastPostback = pb
	return []messaging_api.MessageInterface{&messaging_api.TextMessage{Text: "postback:" + pb.Action}}
}

func (h *stubHandler) HandlePendingInput(ctx context.Context, text string) ([]messaging_api.MessageInterface, bool) {
	if !h.pendingConsumed {
		return nil, false
	}
	return []messaging_api.MessageInterface{&messaging_api.TextMessage{Text: h.pendingReply}}, true
}

func newTestProcessor(handlers ...*stubHandler) *Processor {
	registry := NewRegistry()
	for _, h := range handlers {
		registry.Register(h)
	}
	return NewProcessor(ProcessorConfig{
		Registry:       registry,
		Logger:         logger.NewWithWriter("error", io.Discard),
		WebhookTimeout: 5 * time.Second,
	})
}

func textEvent(userID, text string) webhook.MessageEvent {
	return webhook.MessageEvent{
		Message: webhook.TextMessageContent{
			MessageContent: webhook.MessageContent{Type: "text"},
			Text:           text,
		},
		Source:  webhook.UserSource{UserId: userID},
	}
}

func postbackEvent(userID, data string, params map[string]interface{}) webhook.PostbackEvent {
	var sdkParams map[string]string
	if params != nil {
		sdkParams = make(map[string]string, len(params))
		for k, v := range params {
			if s, ok := v.(string); ok {
				sdkParams[k] = s
			}
		}
	}
	return webhook.PostbackEvent{
		Postback: &webhook.PostbackContent{Data: data, Params: sdkParams},
		Source:   webhook.UserSource{UserId: userID},
	}
}

func messageText(t *testing.T, msg messaging_api.MessageInterface) string {
	t.Helper()
	tm, ok := msg.(*messaging_api.TextMessage)
	if !ok {
		t.Fatalf("message is %T, want *TextMessage", msg)
	}
	return tm.Text
}

func TestProcessMessage_TriggerDispatch(t *testing.T) {
	h := &stubHandler{name: "sugar", trigger: "血糖紀錄"}
	p := newTestProcessor(h)

	msgs, err := p.ProcessMessage(context.Background(), textEvent("U1", "血糖紀錄"))
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if len(msgs) != 1 || messageText(t, msgs[0]) != "handled:血糖紀錄" {
		t.Errorf("msgs = %v", msgs)
	}
	if h.lastUserID != "U1" {
		t.Errorf("handler saw user %q, want U1", h.lastUserID)
	}
}

func TestProcessMessage_TrimsWhitespace(t *testing.T) {
	h := &stubHandler{name: "sugar", trigger: "血糖紀錄"}
	p := newTestProcessor(h)

	msgs, err := p.ProcessMessage(context.Background(), textEvent("U1", "  血糖紀錄 \n"))
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("trimmed trigger not dispatched, msgs = %v", msgs)
	}
}

func TestProcessMessage_PendingInputFallback(t *testing.T) {
	h := &stubHandler{name: "sugar", trigger: "血糖紀錄", pendingConsumed: true, pendingReply: "consumed"}
	p := newTestProcessor(h)

	msgs, err := p.ProcessMessage(context.Background(), textEvent("U1", "142"))
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if len(msgs) != 1 || messageText(t, msgs[0]) != "consumed" {
		t.Errorf("msgs = %v, want pending-input reply", msgs)
	}
}

func TestProcessMessage_TriggerBeatsPendingInput(t *testing.T) {
	h := &stubHandler{name: "sugar", trigger: "血糖紀錄", pendingConsumed: true, pendingReply: "consumed"}
	p := newTestProcessor(h)

	msgs, err := p.ProcessMessage(context.Background(), textEvent("U1", "血糖紀錄"))
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if len(msgs) != 1 || messageText(t, msgs[0]) != "handled:血糖紀錄" {
		t.Errorf("msgs = %v, trigger should win over pending dialogue", msgs)
	}
}

func TestProcessMessage_HelpFallback(t *testing.T) {
	h := &stubHandler{name: "sugar", trigger: "血糖紀錄"}
	p := newTestProcessor(h)

	msgs, err := p.ProcessMessage(context.Background(), textEvent("U1", "hello"))
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("msgs = %v, want help reply", msgs)
	}
	if got := messageText(t, msgs[0]); !strings.Contains(got, "血糖紀錄") {
		t.Errorf("help reply = %q", got)
	}
}

func TestProcessMessage_EmptyTextIgnored(t *testing.T) {
	p := newTestProcessor(&stubHandler{name: "sugar", trigger: "血糖紀錄"})

	msgs, err := p.ProcessMessage(context.Background(), textEvent("U1", "   "))
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if msgs != nil {
		t.Errorf("msgs = %v, want nil for blank text", msgs)
	}
}

func TestProcessMessage_NonTextIgnored(t *testing.T) {
	p := newTestProcessor(&stubHandler{name: "sugar", trigger: "血糖紀錄"})

	event := webhook.MessageEvent{
		Message: webhook.StickerMessageContent{PackageId: "1", StickerId: "2"},
		Source:  webhook.UserSource{UserId: "U1"},
	}
	msgs, err := p.ProcessMessage(context.Background(), event)
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if msgs != nil {
		t.Errorf("msgs = %v, want nil for sticker message", msgs)
	}
}

func TestProcessPostback_Dispatch(t *testing.T) {
	h := &stubHandler{name: "sugar", actions: map[string]bool{"add_blood_sugar": true}}
	p := newTestProcessor(h)

	msgs, err := p.ProcessPostback(context.Background(), postbackEvent("U1", "action=add_blood_sugar", nil))
	if err != nil {
		t.Fatalf("ProcessPostback: %v", err)
	}
	if len(msgs) != 1 || messageText(t, msgs[0]) != "postback:add_blood_sugar" {
		t.Errorf("msgs = %v", msgs)
	}
}

func TestProcessPostback_PickerParams(t *testing.T) {
	h := &stubHandler{name: "sugar", actions: map[string]bool{"select_date": true}}
	p := newTestProcessor(h)

	params := map[string]interface{}{"date": "2024-03-01"}
	if _, err := p.ProcessPostback(context.Background(), postbackEvent("U1", "action=select_date", params)); err != nil {
		t.Fatalf("ProcessPostback: %v", err)
	}
	if h.lastPostback == nil || h.lastPostback.Date != "2024-03-01" {
		t.Errorf("handler saw postback %+v, want date 2024-03-01", h.lastPostback)
	}
}

func TestProcessPostback_SilentOnBadData(t *testing.T) {
	h := &stubHandler{name: "sugar", actions: map[string]bool{"add_blood_sugar": true}}
	p := newTestProcessor(h)

	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing_action", "index=1"},
		{"negative_index", "action=edit_record&index=-2"},
		{"unknown_action", "action=launch_rocket"},
		{"oversized", "action=" + strings.Repeat("a", 400)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := p.ProcessPostback(context.Background(), postbackEvent("U1", tt.data, nil))
			if err != nil {
				t.Fatalf("ProcessPostback: %v", err)
			}
			if msgs != nil {
				t.Errorf("msgs = %v, want silence", msgs)
			}
		})
	}
}

func TestRegistry_GetHandler(t *testing.T) {
	h := &stubHandler{name: "sugar", trigger: "血糖紀錄"}
	registry := NewRegistry()
	registry.Register(h)

	if got := registry.GetHandler("sugar"); got != Handler(h) {
		t.Errorf("GetHandler(sugar) = %v", got)
	}
	if got := registry.GetHandler("missing"); got != nil {
		t.Errorf("GetHandler(missing) = %v, want nil", got)
	}
}
