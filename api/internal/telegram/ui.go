package telegram

import (
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	introText = "⚡ Patrol AI: ตรวจสอบลูกถ้วยไฟฟ้า\n\n" +
		"ส่งภาพลูกถ้วยมาเพื่อวิเคราะห์ความเสียหาย\n\n" +
		"คำแนะนำในการถ่ายภาพ\n" +
		"• ถ่ายให้เห็นลูกถ้วยชัดเจนเต็มเฟรม\n" +
		"• หลีกเลี่ยงการย้อนแสง\n" +
		"• ถ่ายหลายมุมหากพบความผิดปกติ\n\n" +
		"คำสั่ง: /reset เริ่มใหม่"
	idleText    = "📷 ส่งภาพลูกถ้วยเพื่อเริ่มการตรวจสอบ"
	loadingText = "⏳ กำลังวิเคราะห์ภาพ..."
	busyText    = "⏳ กำลังวิเคราะห์ภาพก่อนหน้า กรุณารอสักครู่"
)

func makeNewInspectionKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("ตรวจสอบรายการใหม่", cbNewInspection)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

func makeRetryKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("ลองใหม่อีกครั้ง", cbRetry)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

// esc makes model text safe for HTML parse mode.
func esc(s string) string {
	return html.EscapeString(s)
}

var htmlTags = strings.NewReplacer("<b>", "", "</b>", "")

// stripHTML turns a message built for HTML parse mode back into plain text.
func stripHTML(s string) string {
	return html.UnescapeString(htmlTags.Replace(s))
}
