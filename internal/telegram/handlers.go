package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recovery-plan/internal/catalog"
	"recovery-plan/internal/flows"
	"recovery-plan/internal/logger"
	"recovery-plan/internal/services"
	"recovery-plan/internal/utils"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, _ string) {
	client := b.services.OpenClient(ctx, clientID(msg.Chat.ID))
	b.SendMessageOrLogError(msg.Chat.ID, helpText)

	cond, ok, err := services.GetActiveCondition(ctx, client.Local)
	if err != nil {
		logger.Warn("⚠️ Failed to read active condition", "chat", msg.Chat.ID, "error", err)
		return
	}
	if ok {
		b.SendMessageOrLogError(msg.Chat.ID, fmt.Sprintf("👉 You are following <b>%s</b>. Use /today to continue.", escape(cond.Name)))
	}
}

func (b *Bot) handleHelp(_ context.Context, msg *tgbotapi.Message, _ string) {
	b.SendMessageOrLogError(msg.Chat.ID, helpText)
}

func (b *Bot) handleConditions(_ context.Context, msg *tgbotapi.Message, _ string) {
	b.SendMessageOrLogError(msg.Chat.ID, formatConditions(b.services.Catalog.Conditions()))
}

func (b *Bot) handleSelect(ctx context.Context, msg *tgbotapi.Message, args string) {
	key := strings.ToLower(strings.TrimSpace(args))
	if !b.services.Catalog.IsCatalogKey(key) {
		b.SendMessageOrLogError(msg.Chat.ID, "❌ Format: /select [key]. See /conditions for the keys.")
		return
	}

	cond := services.ActiveCondition{Key: key, Name: b.services.Catalog.Name(key)}
	if !b.activate(ctx, msg.Chat.ID, cond) {
		return
	}
	b.openDay(ctx, msg.Chat.ID, b.services.Now())
}

func (b *Bot) handleSymptoms(ctx context.Context, msg *tgbotapi.Message, args string) {
	if strings.TrimSpace(args) == "" {
		b.SendMessageOrLogError(msg.Chat.ID, "❌ Format: /symptoms [what you feel], e.g. /symptoms sore throat and a dry cough")
		return
	}

	b.typing(msg.Chat.ID)
	result, err := b.services.Classifier.ClassifyFromText(ctx, args)
	if err != nil {
		b.replyError(msg.Chat.ID, "Symptom classification", err)
		return
	}

	b.SendMessageOrLogError(msg.Chat.ID, formatClassification(result.ConditionName, result.Reasoning))
	cond := services.ActiveCondition{Key: result.ConditionKey, Name: result.ConditionName}
	if !b.activate(ctx, msg.Chat.ID, cond) {
		return
	}
	b.openDay(ctx, msg.Chat.ID, b.services.Now())
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message, _ string) {
	b.openDay(ctx, msg.Chat.ID, b.services.Now())
}

func (b *Bot) handleDay(ctx context.Context, msg *tgbotapi.Message, args string) {
	date, err := utils.ParseDate(strings.TrimSpace(args), b.services.Location())
	if err != nil {
		b.SendMessageOrLogError(msg.Chat.ID, "❌ Format: /day YYYY-MM-DD")
		return
	}
	b.openDay(ctx, msg.Chat.ID, date)
}

func (b *Bot) handleSave(ctx context.Context, msg *tgbotapi.Message, _ string) {
	b.saveDay(ctx, msg.Chat.ID)
}

func (b *Bot) handleProgress(ctx context.Context, msg *tgbotapi.Message, args string) {
	if key := strings.ToLower(strings.TrimSpace(args)); key != "" {
		b.showProgress(ctx, msg.Chat.ID, key)
		return
	}

	client := b.services.OpenClient(ctx, clientID(msg.Chat.ID))
	conditions, err := b.services.Progress.ConditionsWithProgress(ctx, client.Session)
	if err != nil {
		b.replyError(msg.Chat.ID, "Progress listing", err)
		return
	}
	if len(conditions) == 0 {
		b.SendMessageOrLogError(msg.Chat.ID, "📭 No saved progress yet. Tick tasks in /today and press Save.")
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, "📊 Choose a plan to summarize:")
	reply.ReplyMarkup = progressKeyboard(conditions)
	if _, err := b.bot.Send(reply); err != nil {
		logger.Error("❌ Failed to send message", "chat", msg.Chat.ID, "error", err)
	}
}

func (b *Bot) handleMotivate(ctx context.Context, msg *tgbotapi.Message, _ string) {
	state, ok := b.currentDay(msg.Chat.ID)
	if !ok || len(state.plan.Tasks) == 0 {
		b.SendMessageOrLogError(msg.Chat.ID, "📅 Open a plan with /today first.")
		return
	}

	b.mu.Lock()
	rate := services.CompletionRate(state.done.Len(), len(state.plan.Tasks))
	b.mu.Unlock()

	b.sendFeedback(ctx, msg.Chat.ID, rate)
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	largest := msg.Photo[len(msg.Photo)-1]
	b.classifyUpload(ctx, msg.Chat.ID, largest.FileID, "image/jpeg", largest.FileSize)
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	doc := msg.Document
	b.classifyUpload(ctx, msg.Chat.ID, doc.FileID, doc.MimeType, doc.FileSize)
}

// classifyUpload matches an uploaded prescription to a plan and opens today.
func (b *Bot) classifyUpload(ctx context.Context, chatID int64, fileID, mimeType string, size int) {
	if size > services.MaxDocumentSize {
		b.SendMessageOrLogError(chatID, "❌ The file is too large. Please send a smaller photo or PDF.")
		return
	}

	b.typing(chatID)
	data, err := b.download(ctx, fileID)
	if err != nil {
		logger.Error("❌ Download failed", "chat", chatID, "error", err)
		b.SendMessageOrLogError(chatID, "⚠️ Could not download the file. Please try again.")
		return
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	result, err := b.services.Classifier.ClassifyFromDocument(ctx, flows.Document{MIMEType: mimeType, Data: data})
	if err != nil {
		b.replyError(chatID, "Prescription classification", err)
		return
	}

	name := b.services.Catalog.Name(result.ConditionKey)
	b.SendMessageOrLogError(chatID, formatClassification(name, result.Reasoning))
	if !b.activate(ctx, chatID, services.ActiveCondition{Key: result.ConditionKey, Name: name}) {
		return
	}
	b.openDay(ctx, chatID, b.services.Now())
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, services.MaxDocumentSize+1))
}

func (b *Bot) activate(ctx context.Context, chatID int64, cond services.ActiveCondition) bool {
	local := b.services.LocalStore(clientID(chatID))
	if err := services.SetActiveCondition(ctx, local, cond); err != nil {
		b.replyError(chatID, "Plan selection", err)
		return false
	}
	logger.Info("🎯 Plan selected", "chat", chatID, "condition", cond.Key)
	return true
}

// openDay loads or generates a day and shows it. A newer request from the
// same chat cancels this one.
func (b *Bot) openDay(ctx context.Context, chatID int64, date time.Time) {
	client := b.services.OpenClient(ctx, clientID(chatID))
	cond, ok, err := services.GetActiveCondition(ctx, client.Local)
	if err != nil {
		b.replyError(chatID, "Plan lookup", err)
		return
	}
	if !ok {
		b.SendMessageOrLogError(chatID, "👉 Choose a plan first: /conditions, /symptoms or send a prescription.")
		return
	}

	viewCtx, view := b.services.Views.Begin(ctx, clientID(chatID))
	defer b.services.Views.End(view)

	b.typing(chatID)
	plan, err := b.services.DayPlans.GetDayTasks(viewCtx, client, cond.Key, cond.Name, date)
	if !b.services.Views.IsCurrent(view) {
		return
	}
	if err != nil {
		b.replyError(chatID, "Plan loading", err)
		return
	}

	done, err := b.services.Completion.LoadCompletion(viewCtx, client.Session, cond.Key, plan.PlanDate)
	if !b.services.Views.IsCurrent(view) {
		return
	}
	if err != nil {
		b.replyError(chatID, "Progress loading", err)
		return
	}

	if err := b.showDay(chatID, &chatState{condition: cond, plan: plan, done: done}); err != nil {
		logger.Error("❌ Failed to send plan", "chat", chatID, "error", err)
		return
	}
	if !client.Session.Available() {
		b.SendMessageOrLogError(chatID, userError(services.ErrSessionUnavailable))
	}
}

// saveDay stores the chat's ticked tasks for its current day.
func (b *Bot) saveDay(ctx context.Context, chatID int64) {
	state, ok := b.currentDay(chatID)
	if !ok || state.plan.OutOfPeriod {
		b.SendMessageOrLogError(chatID, "📅 Open a plan with /today first.")
		return
	}

	b.mu.Lock()
	snapshot := services.NewCompletionSet(state.done.Tasks()...)
	total := len(state.plan.Tasks)
	edits := state.edits
	b.mu.Unlock()

	client := b.services.OpenClient(ctx, clientID(chatID))
	err := b.services.Completion.SaveCompletion(ctx, client.Session, state.condition.Key, state.plan.PlanDate, snapshot)
	if err != nil {
		b.replyError(chatID, "Progress save", err)
		return
	}
	b.mu.Lock()
	state.saved = edits
	b.mu.Unlock()

	b.SendMessageOrLogError(chatID, fmt.Sprintf("💾 Saved %d/%d tasks for %s.", snapshot.Len(), total, state.plan.PlanDate))
	if total > 0 {
		b.sendFeedback(ctx, chatID, services.CompletionRate(snapshot.Len(), total))
	}
}

func (b *Bot) showProgress(ctx context.Context, chatID int64, key string) {
	client := b.services.OpenClient(ctx, clientID(chatID))

	active, _, err := services.GetActiveCondition(ctx, client.Local)
	if err != nil {
		logger.Warn("⚠️ Failed to read active condition", "chat", chatID, "error", err)
	}
	name := progressPlanName(b.services.Catalog, active, key)
	if name == "" {
		b.SendMessageOrLogError(chatID, "❌ Unknown plan. Use /progress to see your plans.")
		return
	}

	viewCtx, view := b.services.Views.Begin(ctx, clientID(chatID))
	defer b.services.Views.End(view)

	b.typing(chatID)
	report, err := b.services.Progress.SummarizeCondition(viewCtx, client.Session, key, name)
	if !b.services.Views.IsCurrent(view) {
		return
	}
	if err != nil {
		b.replyError(chatID, "Progress summary", err)
		return
	}
	b.SendMessageOrLogError(chatID, formatReport(report))
}

func (b *Bot) sendFeedback(ctx context.Context, chatID int64, rate float64) {
	text, err := b.services.Motivation.Feedback(ctx, rate)
	if err != nil {
		logger.Warn("⚠️ Motivational feedback failed", "chat", chatID, "error", err)
		return
	}
	b.SendMessageOrLogError(chatID, "🌟 "+escape(text))
}

// progressPlanName names the plan behind key: the active plan's own name when
// it matches, otherwise the catalog name. Unknown keys give "".
func progressPlanName(cat *catalog.Catalog, active services.ActiveCondition, key string) string {
	if active.Key == key && active.Name != "" {
		return active.Name
	}
	if cond, ok := cat.Lookup(key); ok {
		return cond.Name
	}
	return ""
}
