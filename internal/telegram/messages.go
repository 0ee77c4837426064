package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recovery-plan/internal/catalog"
	"recovery-plan/internal/flows"
	"recovery-plan/internal/logger"
	"recovery-plan/internal/services"
	"recovery-plan/internal/utils"
)

const (
	callbackToggle   = "toggle_"
	callbackSave     = "save"
	callbackProgress = "progress_"
)

const helpText = `🩺 <b>Recovery Plan Assistant</b>

Pick a plan, then follow it day by day:
/conditions - Available recovery plans
/select [key] - Follow a plan, e.g. /select flu
/symptoms [text] - Describe symptoms to find a plan
📎 Send a photo or PDF of a prescription to find a plan

/today - Today's tasks
/day YYYY-MM-DD - Tasks for another day
/save - Save the ticked tasks
/progress [key] - Progress summary
/motivate - A word of encouragement
/help - This message`

func (b *Bot) SendMessageOrLogError(chatID int64, message string) {
	if err := b.send(chatID, message); err != nil {
		logger.Error("❌ Failed to send message", "chat", chatID, "error", err)
	}
}

// parseCommand splits "/cmd@bot args" into "/cmd" and "args".
func parseCommand(text string) (command, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	command, args, _ = strings.Cut(text, " ")
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command), strings.TrimSpace(args)
}

func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, text)
}

func formatDayPlan(cond services.ActiveCondition, plan *services.DayPlanResult, done *services.CompletionSet) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("📅 <b>%s</b>\n", escape(cond.Name)))

	if plan.OutOfPeriod {
		if plan.DayNumber < 1 {
			message.WriteString(fmt.Sprintf("%s is before your plan started.", plan.PlanDate))
		} else {
			message.WriteString(fmt.Sprintf("%s is outside your %d-day plan.", plan.PlanDate, services.PlanLength))
		}
		return message.String()
	}

	message.WriteString(fmt.Sprintf("Day %d of %d · %s\n\n", plan.DayNumber, services.PlanLength, plan.PlanDate))
	if len(plan.Tasks) == 0 {
		message.WriteString("📭 No tasks for this day.")
		return message.String()
	}

	for _, task := range plan.Tasks {
		message.WriteString(fmt.Sprintf("%s %s %s\n",
			utils.CheckMark(done.Contains(task.ID)),
			utils.IconEmoji(task.Icon),
			escape(task.Text),
		))
	}
	message.WriteString(fmt.Sprintf("\n✅ Ticked: %d/%d", done.Len(), len(plan.Tasks)))
	if !plan.Persisted {
		message.WriteString("\n⚠️ <i>This plan could not be stored and may change if reloaded.</i>")
	}
	return message.String()
}

func dayKeyboard(plan *services.DayPlanResult, done *services.CompletionSet) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, task := range plan.Tasks {
		label := fmt.Sprintf("%s %d", utils.CheckMark(done.Contains(task.ID)), i+1)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackToggle+task.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("💾 Save progress", callbackSave),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatConditions(conditions []catalog.Condition) string {
	var message strings.Builder
	message.WriteString("📋 <b>Recovery plans</b>\n\n")
	for _, c := range conditions {
		if c.IsDynamic() {
			continue
		}
		message.WriteString(fmt.Sprintf("<code>%s</code> - %s\n", c.Key, escape(c.Name)))
	}
	message.WriteString("\nUse /select [key] to follow one.")
	return message.String()
}

func formatReport(report *services.ProgressReport) string {
	s := report.Summary
	return fmt.Sprintf(
		"📊 <b>%s</b>\n<i>%s · %d task(s) over %d day(s)</i>\n\n"+
			"%s\n\n"+
			"💡 <b>Why it helps</b>\n%s\n\n"+
			"🔭 <b>What's next</b>\n%s",
		escape(s.Title),
		escape(report.ConditionName),
		report.TotalCompleted,
		len(report.History),
		escape(s.Summary),
		escape(s.Benefits),
		escape(s.Lookahead),
	)
}

func progressKeyboard(conditions []catalog.Condition) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range conditions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Name, callbackProgress+c.Key),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatClassification(name, reasoning string) string {
	return fmt.Sprintf("🩺 Suggested plan: <b>%s</b>\n\n<i>%s</i>", escape(name), escape(reasoning))
}

// userError turns a service error into a chat reply. Superseded views get
// no reply.
func userError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, services.ErrInvalidInput):
		return "❌ " + escape(err.Error())
	case errors.Is(err, services.ErrSessionUnavailable):
		return "⚠️ Your session is unavailable, so progress cannot be saved right now."
	case errors.Is(err, services.ErrStorageWrite):
		return "⚠️ Saving failed. Your ticks are kept here, try /save again."
	case errors.Is(err, services.ErrStorageRead):
		return "⚠️ Could not load your saved data. Please try again."
	case errors.Is(err, flows.ErrMalformedOutput):
		return "⚠️ The assistant gave an unusable answer. Please try again."
	case errors.Is(err, services.ErrGeneration), errors.Is(err, context.DeadlineExceeded):
		return "⚠️ The assistant is unavailable right now. Please try again."
	default:
		return "❌ Something went wrong. Please try again."
	}
}

func (b *Bot) replyError(chatID int64, action string, err error) {
	logger.Error("❌ "+action+" failed", "chat", chatID, "error", err)
	if text := userError(err); text != "" {
		b.SendMessageOrLogError(chatID, text)
	}
}
