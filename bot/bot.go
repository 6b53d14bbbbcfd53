package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/gmucodingclub/clubbot/ai"
	"github.com/gmucodingclub/clubbot/config"
	"github.com/gmucodingclub/clubbot/database"
	"github.com/gmucodingclub/clubbot/metrics"
	"github.com/gmucodingclub/clubbot/models"
	"github.com/gmucodingclub/clubbot/quiz"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// telegramClient is the part of tgbotapi.BotAPI the bot talks through
type telegramClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot
type Bot struct {
	api       *tgbotapi.BotAPI
	client    telegramClient
	db        *database.DB
	assistant *ai.Assistant
	questions []models.Question
	log       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	quizSessions map[int64]*quiz.Engine
	heldAdvances map[*quiz.Engine][]quiz.Session
	advanceDelay time.Duration
}

const (
	cmdStart     = "start"
	cmdMenu      = "menu"
	cmdEvents    = "events"
	cmdEvent     = "event"
	cmdAddEvent  = "addevent"
	cmdPlanEvent = "planevent"
	cmdQuiz      = "quiz"
	cmdRestart   = "restart"
	cmdProjects  = "projects"
	cmdAbout     = "about"
	cmdCerts     = "certs"
	cmdVerify    = "verify"
	cmdJoin      = "join"
	cmdHelp      = "help"

	callbackMenu       = "menu"
	callbackQuizStart  = "quiz:start"
	callbackQuizReset  = "quiz:restart"
	callbackQuizExit   = "quiz:exit"
	callbackQuizAnswer = "quiz:answer:"
	callbackEvents     = "events:"
	callbackProjects   = "projects:"
	callbackPage       = "page:"
)

// New creates a new bot instance
func New(cfg *config.Config, db *database.DB, log *zap.Logger) (*Bot, error) {
	// Create bot API
	botAPI, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	botAPI.Debug = cfg.Bot.Debug

	// Assistant limits and quiz timing come from config
	assistant := ai.NewAssistant(cfg.Assistant.ReplyDelay, cfg.Assistant.RatePerMinute, cfg.Assistant.Burst)
	b := newBot(botAPI, db, assistant, models.QuizQuestions(), cfg.Quiz.AdvanceDelay, log)
	b.api = botAPI

	log.Info("authorised on account", zap.String("username", botAPI.Self.UserName), zap.Int("questions", len(b.questions)))
	return b, nil
}

// newBot wires a bot around any Telegram client, which lets tests record what is sent
func newBot(client telegramClient, db *database.DB, assistant *ai.Assistant, questions []models.Question, advanceDelay time.Duration, log *zap.Logger) *Bot {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		client:       client,
		db:           db,
		assistant:    assistant,
		questions:    questions,
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
		quizSessions: make(map[int64]*quiz.Engine),
		heldAdvances: make(map[*quiz.Engine][]quiz.Session),
		advanceDelay: advanceDelay,
	}
}

// ApplyConfig updates timings after a config reload. Running quizzes keep their delay.
func (b *Bot) ApplyConfig(cfg *config.Config) {
	b.mu.Lock()
	b.advanceDelay = cfg.Quiz.AdvanceDelay
	b.mu.Unlock()
	b.assistant.Configure(cfg.Assistant.ReplyDelay, cfg.Assistant.RatePerMinute, cfg.Assistant.Burst)
	b.log.Info("configuration reloaded",
		zap.Duration("advance_delay", cfg.Quiz.AdvanceDelay),
		zap.Duration("reply_delay", cfg.Assistant.ReplyDelay))
}

// Start polls for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) {
	b.log.Info("starting bot polling")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.Stop()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(update)
		}
	}
}

// Stop cancels pending assistant replies, discards every quiz session and waits for background work
func (b *Bot) Stop() {
	b.cancel()

	b.mu.Lock()
	for chatID, eng := range b.quizSessions {
		eng.Close()
		delete(b.quizSessions, chatID)
	}
	b.mu.Unlock()

	b.wg.Wait()
}

// handleUpdate routes one update to the callback or message handler
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		metrics.Updates.WithLabelValues("callback").Inc()
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		metrics.Updates.WithLabelValues("message").Inc()
		b.handleMessage(update.Message)
	default:
		metrics.Updates.WithLabelValues("other").Inc()
	}
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)
	b.log.Debug("received message", zap.Int64("chat_id", chatID), zap.Int("length", len(text)))

	// Free text goes to the assistant, commands are dispatched below
	if !strings.HasPrefix(text, "/") {
		b.handleAssistant(chatID, text)
		return
	}

	cmd, args := splitCommand(text)
	switch cmd {
	case cmdStart, cmdMenu:
		b.sendHome(chatID)
	case cmdEvents:
		b.sendEvents(chatID, args)
	case cmdEvent:
		b.sendEvent(chatID, args)
	case cmdAddEvent:
		b.handleAddEvent(chatID, args)
	case cmdPlanEvent:
		b.handlePlanEvent(chatID, args)
	case cmdQuiz:
		b.startQuiz(chatID)
	case cmdRestart:
		b.restartQuiz(chatID)
	case cmdProjects:
		b.sendProjects(chatID, args)
	case cmdAbout:
		b.sendAbout(chatID)
	case cmdCerts:
		b.sendCertifications(chatID)
	case cmdVerify:
		b.handleVerify(chatID, args)
	case cmdJoin:
		if args == "" {
			b.sendJoin(chatID)
		} else {
			b.handleJoin(chatID, args)
		}
	case cmdHelp:
		b.sendHelp(chatID)
	default:
		b.sendMessage(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

// splitCommand turns "/events@clubbot Workshop" into ("events", "Workshop")
func splitCommand(text string) (string, string) {
	head, args, _ := strings.Cut(text, " ")
	cmd := strings.TrimPrefix(head, "/")
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

// handleCallback processes callback queries from inline buttons
func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.Message.Chat == nil {
		b.answerCallback(callback.ID, "")
		return
	}
	chatID := callback.Message.Chat.ID
	data := callback.Data
	b.log.Debug("handling callback", zap.Int64("chat_id", chatID), zap.String("data", data))

	// quiz answers acknowledge the callback themselves with the outcome
	if strings.HasPrefix(data, callbackQuizAnswer) {
		b.handleQuizAnswer(callback)
		return
	}
	b.answerCallback(callback.ID, "")

	switch {
	case data == callbackMenu:
		b.sendHome(chatID)
	case data == callbackQuizStart:
		b.startQuiz(chatID)
	case data == callbackQuizReset:
		b.restartQuiz(chatID)
	case data == callbackQuizExit:
		b.exitQuiz(chatID)
	case strings.HasPrefix(data, callbackEvents):
		b.sendEvents(chatID, strings.TrimPrefix(data, callbackEvents))
	case strings.HasPrefix(data, callbackProjects):
		b.sendProjects(chatID, strings.TrimPrefix(data, callbackProjects))
	case strings.HasPrefix(data, callbackPage):
		b.sendPage(chatID, strings.TrimPrefix(data, callbackPage))
	default:
		b.log.Warn("unknown callback", zap.Int64("chat_id", chatID), zap.String("data", data))
	}
}

// sendPage opens a page from a menu button
func (b *Bot) sendPage(chatID int64, page string) {
	switch page {
	case cmdAbout:
		b.sendAbout(chatID)
	case cmdCerts:
		b.sendCertifications(chatID)
	case cmdJoin:
		b.sendJoin(chatID)
	case cmdAddEvent:
		b.sendMessage(chatID, addEventUsage)
	case cmdPlanEvent:
		b.sendMessage(chatID, planEventUsage)
	case cmdHelp:
		b.sendHelp(chatID)
	default:
		b.log.Warn("unknown page", zap.String("page", page))
	}
}

// handleAssistant answers free text in the background so the update loop keeps going
func (b *Bot) handleAssistant(chatID int64, text string) {
	if text == "" {
		b.sendMessage(chatID, "Please enter a message")
		return
	}
	b.sendChatAction(chatID, tgbotapi.ChatTyping)

	b.async(func(ctx context.Context) {
		reply, err := b.assistant.Reply(ctx, chatID, text)
		switch {
		case err == nil:
			metrics.AssistantReplies.WithLabelValues(string(reply.Topic)).Inc()
			b.sendMessage(chatID, html.EscapeString(reply.Text))
		case ctx.Err() != nil:
			return
		case errors.Is(err, ai.ErrRateLimited):
			b.sendMessage(chatID, "You're sending messages too quickly. Please wait a moment and try again.")
		case errors.Is(err, ai.ErrEmptyMessage):
			b.sendMessage(chatID, "Please enter a message")
		default:
			b.log.Error("assistant reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	})
}

// async runs fn in the background with the bot context. Stop waits for it.
func (b *Bot) async(fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.log.Error("recovered from panic in background task", zap.Any("panic", r))
			}
		}()
		fn(b.ctx)
	}()
}

// sendMessage sends an HTML message; callers escape catalog and user text
func (b *Bot) sendMessage(chatID int64, text string, markup ...interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if len(markup) > 0 {
		msg.ReplyMarkup = markup[0]
	}

	if _, err := b.client.Send(msg); err != nil {
		b.log.Error("error sending message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// editMessage replaces the text of an earlier message and drops its keyboard
func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML

	if _, err := b.client.Send(edit); err != nil {
		b.log.Error("error editing message", zap.Int64("chat_id", chatID), zap.Int("message_id", messageID), zap.Error(err))
	}
}

// answerCallback acknowledges a button press. A non-empty text shows up as a short notification.
func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.client.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Error("error sending callback response", zap.Error(err))
	}
}

// sendChatAction shows a status such as "typing" in the chat
func (b *Bot) sendChatAction(chatID int64, action string) {
	if _, err := b.client.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		b.log.Debug("error sending chat action", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
