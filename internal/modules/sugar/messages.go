package sugar

import (
	"fmt"
	"strings"

	"github.com/ZhenYan1214/sugar-linebot-go/internal/lineutil"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/storage"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// pickerMinDate bounds the datetime picker. Records before the service
// existed cannot be browsed.
const pickerMinDate = "2020-01-01"

const (
	msgNoRecords     = "尚無血糖紀錄！\n"
	msgEnterValue    = "請輸入血糖"
	msgEnterNewValue = "請輸入新的血糖值"
	msgInvalidNumber = "❌ 請輸入有效的數字！"
	msgPickADate     = "❌ 請選擇一個日期！"
	msgReportMenu    = "請選擇要查看的報表時間範圍："
)

// recordListText renders the record list body for a date: a header naming
// the date, then one line per record, or the fixed no-records line.
func recordListText(date string, records []storage.Record) string {
	var b strings.Builder
	b.WriteString("今日血糖紀錄\n(")
	b.WriteString(date)
	b.WriteString(")\n")

	if len(records) == 0 {
		b.WriteString(msgNoRecords)
		return b.String()
	}

	for _, r := range records {
		fmt.Fprintf(&b, "🔹 %s - %d mg/dL\n", r.Time, r.Value)
	}
	return b.String()
}

// actionMenuItems builds the standard four-item menu attached to every
// record-list reply: date picker, add, edit, delete.
func actionMenuItems(date string) []lineutil.QuickReplyItem {
	return []lineutil.QuickReplyItem{
		{Action: lineutil.NewDatePickerAction("選擇日期", "action=select_date", date, pickerMinDate, lineutil.Today())},
		{Action: lineutil.NewPostbackAction("新增", "action=add_blood_sugar")},
		{Action: lineutil.NewPostbackAction("修改", "action=edit_blood_sugar")},
		{Action: lineutil.NewPostbackAction("刪除", "action=delete_blood_sugar")},
	}
}

// recordsMessage composes the record list for a date with the action menu.
func recordsMessage(date string, records []storage.Record) *messaging_api.TextMessage {
	return lineutil.NewTextMessageWithQuickReply(recordListText(date, records), actionMenuItems(date)...)
}

// confirmedRecordsMessage prepends a confirmation line and separator to the
// record list, keeping the action menu attached.
func confirmedRecordsMessage(confirmation, date string, records []storage.Record) *messaging_api.TextMessage {
	text := confirmation + "\n-------------\n" + recordListText(date, records)
	return lineutil.NewTextMessageWithQuickReply(text, actionMenuItems(date)...)
}

// selectionMessage composes the edit/delete selection screen: a prompt
// header plus one button per record carrying the record's position.
func selectionMessage(prompt, date, action string, records []storage.Record) *messaging_api.TextMessage {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n(")
	b.WriteString(date)
	b.WriteString(")\n")

	if len(records) == 0 {
		b.WriteString(msgNoRecords)
		return lineutil.NewTextMessage(b.String())
	}

	items := make([]lineutil.QuickReplyItem, 0, len(records))
	for idx, r := range records {
		label := fmt.Sprintf("%s - %d mg/dL", r.Time, r.Value)
		data := fmt.Sprintf("action=%s&index=%d", action, idx)
		items = append(items, lineutil.QuickReplyItem{Action: lineutil.NewPostbackAction(label, data)})
	}

	return lineutil.NewTextMessageWithQuickReply(b.String(), items...)
}

// reportMenuMessage composes the report time-range menu.
func reportMenuMessage() *messaging_api.TextMessage {
	today := lineutil.Today()
	return lineutil.NewTextMessageWithQuickReply(msgReportMenu,
		lineutil.QuickReplyItem{Action: lineutil.NewPostbackAction("今天", "action=report_today")},
		lineutil.QuickReplyItem{Action: lineutil.NewPostbackAction("最近一週", "action=report_last_week")},
		lineutil.QuickReplyItem{Action: lineutil.NewDatePickerAction("查看更多日期", "action=report_select_date", today, pickerMinDate, today)},
	)
}

// voiceLinkMessage composes the LIFF voice input link reply.
func voiceLinkMessage(liffURL string) *messaging_api.TextMessage {
	return lineutil.NewTextMessage("請點擊進行語音輸入：" + liffURL)
}

// emptyReportText names the reply for a report range with no measurements.
func emptyReportText(period string, date string) string {
	switch period {
	case "last_week":
		return "最近一週還沒有記錄血糖喔!"
	case "date":
		return date + " 還沒有記錄血糖喔!"
	default:
		return "今天還沒有記錄血糖喔!"
	}
}
