package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recovery-plan/internal/database"
	"recovery-plan/internal/logger"
	"recovery-plan/internal/services"
)

type Bot struct {
	bot      *tgbotapi.BotAPI
	allowed  func(chatID int64) bool
	services *services.ServiceManager
	handlers map[string]func(ctx context.Context, msg *tgbotapi.Message, args string)
	http     *http.Client

	mu    sync.Mutex
	chats map[int64]*chatState
}

// chatState is the day a chat is looking at and its unsaved completion set.
type chatState struct {
	condition services.ActiveCondition
	plan      *services.DayPlanResult
	done      *services.CompletionSet
	messageID int
	// edits counts toggles; saved is its value at the last successful save.
	edits int
	saved int
}

func (s *chatState) unsaved() bool {
	return s != nil && s.edits != s.saved
}

// reminderText renders a pushed day plan. When the chat has unsaved ticks the
// plan is sent as plain text with a note, and the open day stays current.
func reminderText(existing *chatState, cond services.ActiveCondition, plan *services.DayPlanResult, done *services.CompletionSet) (text string, replace bool) {
	text = formatDayPlan(cond, plan, done)
	if !existing.unsaved() {
		return text, true
	}
	note := fmt.Sprintf("✏️ Your ticks for <b>%s</b> (%s) are not saved yet. Tap 💾 Save on that plan to keep them, then use /today to tick this one.",
		escape(existing.condition.Name), existing.plan.PlanDate)
	return text + "\n\n" + note, false
}

func NewBot(token string, allowed func(int64) bool, serviceManager *services.ServiceManager) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	bot := &Bot{
		bot:      botAPI,
		allowed:  allowed,
		services: serviceManager,
		handlers: make(map[string]func(context.Context, *tgbotapi.Message, string)),
		http:     &http.Client{Timeout: 30 * time.Second},
		chats:    make(map[int64]*chatState),
	}

	bot.registerHandlers()
	logger.Info("🤖 Bot initialized", "username", botAPI.Self.UserName)
	return bot, nil
}

func (b *Bot) registerHandlers() {
	b.handlers["/start"] = b.handleStart
	b.handlers["/help"] = b.handleHelp
	b.handlers["/conditions"] = b.handleConditions
	b.handlers["/select"] = b.handleSelect
	b.handlers["/symptoms"] = b.handleSymptoms
	b.handlers["/today"] = b.handleToday
	b.handlers["/day"] = b.handleDay
	b.handlers["/save"] = b.handleSave
	b.handlers["/progress"] = b.handleProgress
	b.handlers["/motivate"] = b.handleMotivate
}

func (b *Bot) GetUsername() string {
	return b.bot.Self.UserName
}

// SendMessage sends an HTML message to a client; the client id is the chat id.
func (b *Bot) SendMessage(clientID string, text string) error {
	chatID, err := parseChatID(clientID)
	if err != nil {
		return err
	}
	return b.send(chatID, text)
}

// SendDayPlan shows a plan with its toggle keyboard and makes it the chat's
// current day, unless the current day has unsaved ticks.
func (b *Bot) SendDayPlan(clientID string, cond services.ActiveCondition, plan *services.DayPlanResult, done *services.CompletionSet) error {
	chatID, err := parseChatID(clientID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	text, replace := reminderText(b.chats[chatID], cond, plan, done)
	b.mu.Unlock()
	if !replace {
		logger.Info("📝 Keeping unsaved day open", "chat", chatID)
		return b.send(chatID, text)
	}
	return b.showDay(chatID, &chatState{condition: cond, plan: plan, done: done})
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("❌ Handler panic", "update", update.UpdateID, "panic", r)
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	msg := update.Message
	if msg == nil {
		return
	}

	if !b.allowed(msg.Chat.ID) {
		b.SendMessageOrLogError(msg.Chat.ID, "⛔ Access denied")
		return
	}

	b.handleMessage(ctx, msg)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
		return
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
		return
	}

	command, args := parseCommand(msg.Text)
	if command == "" {
		if strings.TrimSpace(msg.Text) != "" {
			b.SendMessageOrLogError(msg.Chat.ID, "💬 Describe your symptoms with /symptoms, or send a photo of your prescription.")
		}
		return
	}

	handler, exists := b.handlers[command]
	if !exists {
		b.SendMessageOrLogError(msg.Chat.ID, "❌ Unknown command. Use /help")
		return
	}
	handler(ctx, msg, args)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.bot.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
			logger.Warn("⚠️ Callback answer failed", "error", err)
		}
	}()

	if callback.Message == nil || !b.allowed(callback.Message.Chat.ID) {
		return
	}

	chatID := callback.Message.Chat.ID
	data := callback.Data
	logger.Debug("Received callback", "chat", chatID, "data", data)

	switch {
	case strings.HasPrefix(data, callbackToggle):
		b.handleToggle(chatID, callback.Message.MessageID, strings.TrimPrefix(data, callbackToggle))
	case data == callbackSave:
		b.saveDay(ctx, chatID)
	case strings.HasPrefix(data, callbackProgress):
		b.showProgress(ctx, chatID, strings.TrimPrefix(data, callbackProgress))
	}
}

// handleToggle flips one task locally and redraws the day message.
func (b *Bot) handleToggle(chatID int64, messageID int, taskID string) {
	b.mu.Lock()
	state, ok := b.chats[chatID]
	if !ok || state.messageID != messageID {
		b.mu.Unlock()
		b.SendMessageOrLogError(chatID, "⌛ This plan is no longer active. Use /today to reload it.")
		return
	}

	var task *database.Task
	for i := range state.plan.Tasks {
		if state.plan.Tasks[i].ID == taskID {
			task = &state.plan.Tasks[i]
			break
		}
	}
	if task == nil {
		b.mu.Unlock()
		return
	}
	state.done.Toggle(*task)
	state.edits++
	text := formatDayPlan(state.condition, state.plan, state.done)
	markup := dayKeyboard(state.plan, state.done)
	b.mu.Unlock()

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.bot.Send(edit); err != nil {
		logger.Warn("⚠️ Failed to redraw plan", "chat", chatID, "error", err)
	}
}

// showDay sends the day message and stores it as the chat's current view.
func (b *Bot) showDay(chatID int64, state *chatState) error {
	msg := tgbotapi.NewMessage(chatID, formatDayPlan(state.condition, state.plan, state.done))
	msg.ParseMode = tgbotapi.ModeHTML
	if !state.plan.OutOfPeriod && len(state.plan.Tasks) > 0 {
		msg.ReplyMarkup = dayKeyboard(state.plan, state.done)
	}

	sent, err := b.bot.Send(msg)
	if err != nil {
		return err
	}

	state.messageID = sent.MessageID
	b.mu.Lock()
	b.chats[chatID] = state
	b.mu.Unlock()
	return nil
}

func (b *Bot) currentDay(chatID int64) (*chatState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.chats[chatID]
	return state, ok
}

func (b *Bot) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.bot.Send(msg)
	return err
}

func (b *Bot) typing(chatID int64) {
	if _, err := b.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		logger.Debug("Chat action failed", "chat", chatID, "error", err)
	}
}

func parseChatID(clientID string) (int64, error) {
	chatID, err := strconv.ParseInt(clientID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("client %q is not a chat: %w", clientID, err)
	}
	return chatID, nil
}

func clientID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
