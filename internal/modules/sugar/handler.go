// Package sugar implements the blood sugar bot module: recording, editing,
// deleting, and charting measurements through a small per-user dialogue.
package sugar

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/ZhenYan1214/sugar-linebot-go/internal/bot"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/ctxutil"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/dialogue"
	domerrors "github.com/ZhenYan1214/sugar-linebot-go/internal/errors"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/lineutil"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/logger"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/report"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/storage"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Trigger phrases. Exact match after trimming, checked before any pending
// dialogue state so a command always interrupts an input prompt without
// touching it.
const (
	TriggerRecords = "血糖紀錄"
	TriggerVoice   = "語音轉文字"
	TriggerReport  = "個人報表"
)

// Handler is the blood sugar bot module.
type Handler struct {
	repo    *storage.DB
	states  *dialogue.Store
	reports *report.Service
	log     *logger.Logger

	voiceLiffURL string
}

// NewHandler creates the blood sugar module.
func NewHandler(repo *storage.DB, states *dialogue.Store, reports *report.Service, log *logger.Logger, voiceLiffURL string) *Handler {
	return &Handler{
		repo:         repo,
		states:       states,
		reports:      reports,
		log:          log.WithModule("sugar"),
		voiceLiffURL: voiceLiffURL,
	}
}

// Name returns the module name.
func (h *Handler) Name() string {
	return "sugar"
}

// CanHandle reports whether the text is one of the module's trigger phrases.
func (h *Handler) CanHandle(text string) bool {
	switch strings.TrimSpace(text) {
	case TriggerRecords, TriggerVoice, TriggerReport:
		return true
	}
	return false
}

// HandleMessage processes a trigger phrase.
func (h *Handler) HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface {
	userID := ctxutil.GetUserID(ctx)

	switch strings.TrimSpace(text) {
	case TriggerRecords:
		return h.recordsReply(ctx, userID, lineutil.Today())

	case TriggerVoice:
		return []messaging_api.MessageInterface{voiceLinkMessage(h.voiceLiffURL)}

	case TriggerReport:
		return []messaging_api.MessageInterface{reportMenuMessage()}
	}

	return nil
}

// HandlePendingInput consumes free text when the user has a dialogue in
// progress. Returns false when the user is idle so the processor can fall
// through to the help message.
func (h *Handler) HandlePendingInput(ctx context.Context, text string) ([]messaging_api.MessageInterface, bool) {
	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return nil, false
	}

	state := h.states.Get(userID)
	switch state.Kind {
	case dialogue.AwaitingNewValue:
		return h.consumeNewValue(ctx, userID, text), true
	case dialogue.AwaitingEditValue:
		return h.consumeEditValue(ctx, userID, state, text), true
	}
	return nil, false
}

// consumeNewValue records a new measurement from the awaited text.
// Invalid numbers re-prompt and keep the dialogue open.
func (h *Handler) consumeNewValue(ctx context.Context, userID, text string) []messaging_api.MessageInterface {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return textReply(msgInvalidNumber)
	}

	// Whatever the store says, the pending dialogue is over.
	h.states.Clear(userID)

	now := lineutil.NowTaipei()
	date := now.Format(lineutil.DateFormat)
	if _, err := h.repo.CreateRecord(ctx, userID, date, now.Format(lineutil.TimeFormat), value); err != nil {
		h.log.WithError(err).Error("record create failed", "user_id", userID)
		return textReply(domerrors.UserMessage(err))
	}

	h.log.Info("record created", "user_id", userID, "value", value)
	return h.confirmedReply(ctx, userID, "已記錄！", date)
}

// consumeEditValue applies the awaited replacement value to the record the
// user selected earlier.
func (h *Handler) consumeEditValue(ctx context.Context, userID string, state dialogue.State, text string) []messaging_api.MessageInterface {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return textReply(msgInvalidNumber)
	}

	h.states.Clear(userID)

	if _, err := h.repo.UpdateRecordAt(ctx, userID, state.Date, state.Index, value); err != nil {
		h.log.WithError(err).Warn("record update failed",
			"user_id", userID, "date", state.Date, "index", state.Index)
		return textReply(domerrors.UserMessage(err))
	}

	h.log.Info("record updated", "user_id", userID, "date", state.Date, "index", state.Index, "value", value)
	return h.confirmedReply(ctx, userID, "已修改！", state.Date)
}

// CanHandlePostback reports whether the module owns the postback action.
func (h *Handler) CanHandlePostback(action string) bool {
	switch action {
	case "select_date", "add_blood_sugar", "edit_blood_sugar", "delete_blood_sugar",
		"edit_record", "delete_record",
		"report_today", "report_last_week", "report_select_date":
		return true
	}
	return false
}

// HandlePostback processes a button tap or date picker result.
func (h *Handler) HandlePostback(ctx context.Context, pb *bot.Postback) []messaging_api.MessageInterface {
	userID := ctxutil.GetUserID(ctx)

	switch pb.Action {
	case "select_date":
		if pb.Date == "" {
			return textReply(msgPickADate)
		}
		return h.recordsReply(ctx, userID, pb.Date)

	case "add_blood_sugar":
		h.states.Set(userID, dialogue.AwaitingNew())
		return textReply(msgEnterValue)

	case "edit_blood_sugar":
		return h.selectionReply(ctx, userID, "請選擇要修改的血糖紀錄", "edit_record")

	case "delete_blood_sugar":
		return h.selectionReply(ctx, userID, "請選擇要刪除的血糖紀錄", "delete_record")

	case "edit_record":
		if !pb.HasIndex {
			h.log.Warn("edit_record postback without index", "user_id", userID)
			return nil
		}
		h.states.Set(userID, dialogue.AwaitingEdit(lineutil.Today(), pb.Index))
		return textReply(msgEnterNewValue)

	case "delete_record":
		if !pb.HasIndex {
			h.log.Warn("delete_record postback without index", "user_id", userID)
			return nil
		}
		return h.deleteRecord(ctx, userID, pb.Index)

	case "report_today":
		return h.reportReply(ctx, userID, report.PeriodToday, "")

	case "report_last_week":
		return h.reportReply(ctx, userID, report.PeriodLastWeek, "")

	case "report_select_date":
		if pb.Date == "" {
			return textReply(msgPickADate)
		}
		return h.reportReply(ctx, userID, report.PeriodDate, pb.Date)
	}

	return nil
}

// recordsReply composes the record list for a date with the action menu.
func (h *Handler) recordsReply(ctx context.Context, userID, date string) []messaging_api.MessageInterface {
	records, err := h.repo.GetRecordsByDate(ctx, userID, date)
	if err != nil {
		h.log.WithError(err).Error("record query failed", "user_id", userID, "date", date)
		return textReply(domerrors.UserMessage(err))
	}
	return []messaging_api.MessageInterface{recordsMessage(date, records)}
}

// confirmedReply composes a confirmation plus the date's refreshed record list.
// A query failure after a successful mutation still confirms the mutation.
func (h *Handler) confirmedReply(ctx context.Context, userID, confirmation, date string) []messaging_api.MessageInterface {
	records, err := h.repo.GetRecordsByDate(ctx, userID, date)
	if err != nil {
		h.log.WithError(err).Error("record query failed after mutation", "user_id", userID, "date", date)
		return textReply(confirmation)
	}
	return []messaging_api.MessageInterface{confirmedRecordsMessage(confirmation, date, records)}
}

// selectionReply composes a per-record button screen for edit or delete,
// always against today's list.
func (h *Handler) selectionReply(ctx context.Context, userID, prompt, action string) []messaging_api.MessageInterface {
	today := lineutil.Today()
	records, err := h.repo.GetRecordsByDate(ctx, userID, today)
	if err != nil {
		h.log.WithError(err).Error("record query failed", "user_id", userID, "date", today)
		return textReply(domerrors.UserMessage(err))
	}
	return []messaging_api.MessageInterface{selectionMessage(prompt, today, action, records)}
}

// deleteRecord removes today's record at the given position, immediately and
// without a confirmation step. The position is resolved against the list as
// it exists now; if it went stale the store's failure text is relayed as is.
func (h *Handler) deleteRecord(ctx context.Context, userID string, index int) []messaging_api.MessageInterface {
	today := lineutil.Today()
	if _, err := h.repo.DeleteRecordAt(ctx, userID, today, index); err != nil {
		h.log.WithError(err).Warn("record delete failed", "user_id", userID, "date", today, "index", index)
		return textReply(domerrors.UserMessage(err))
	}

	h.log.Info("record deleted", "user_id", userID, "date", today, "index", index)
	return h.confirmedReply(ctx, userID, "已刪除！", today)
}

// reportReply renders and publishes the requested chart and replies with the
// image, or with the range's empty-state text.
func (h *Handler) reportReply(ctx context.Context, userID string, period report.Period, date string) []messaging_api.MessageInterface {
	url, err := h.reports.ChartURL(ctx, userID, period, date)
	if errors.Is(err, report.ErrNoRecords) {
		return textReply(emptyReportText(string(period), date))
	}
	if err != nil {
		h.log.WithError(err).Error("report failed", "user_id", userID, "period", string(period))
		return textReply(domerrors.UserMessage(err))
	}

	return []messaging_api.MessageInterface{lineutil.NewImageMessage(url, url)}
}

func textReply(text string) []messaging_api.MessageInterface {
	return []messaging_api.MessageInterface{lineutil.NewTextMessage(text)}
}
