package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/gmucodingclub/clubbot/metrics"
	"github.com/gmucodingclub/clubbot/quiz"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	answerCorrect   = "Correct! 🎉"
	answerIncorrect = "Incorrect. Try the next one!"
	answerRejected  = "This question has already been answered."
	answerNoOption  = "That option is not available."
	answerNoQuiz    = "This quiz has ended. Start a new one with /quiz."

	progressWidth = 10
)

// quizSession returns the chat's running quiz, or nil
func (b *Bot) quizSession(chatID int64) *quiz.Engine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.quizSessions[chatID]
}

// currentAdvanceDelay is the delay new quizzes start with
func (b *Bot) currentAdvanceDelay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.advanceDelay
}

// startQuiz replaces any quiz running in the chat with a fresh one
func (b *Bot) startQuiz(chatID int64) {
	var eng *quiz.Engine
	eng, err := quiz.New(b.questions,
		quiz.WithAdvanceDelay(b.currentAdvanceDelay()),
		quiz.WithOnAdvance(func(s quiz.Session) { b.afterAdvance(chatID, eng, s) }),
	)
	if err != nil {
		b.log.Error("failed to start quiz", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendMessage(chatID, "Sorry, the quiz is not available right now.")
		return
	}

	b.mu.Lock()
	if old := b.quizSessions[chatID]; old != nil {
		old.Close()
	}
	b.quizSessions[chatID] = eng
	b.mu.Unlock()

	b.log.Info("quiz started", zap.Int64("chat_id", chatID), zap.Int("questions", eng.Len()))
	b.sendQuestion(chatID, eng)
}

// restartQuiz puts the chat's quiz back on the first question, or starts one
func (b *Bot) restartQuiz(chatID int64) {
	eng := b.quizSession(chatID)
	if eng == nil {
		b.startQuiz(chatID)
		return
	}

	// Restart also drops an advance still waiting on its timer
	pending := eng.Pending()
	eng.Restart()
	b.log.Info("quiz restarted", zap.Int64("chat_id", chatID), zap.Bool("advance_dropped", pending))
	b.sendQuestion(chatID, eng)
}

// exitQuiz discards the chat's quiz and goes back to the home page
func (b *Bot) exitQuiz(chatID int64) {
	b.mu.Lock()
	eng := b.quizSessions[chatID]
	delete(b.quizSessions, chatID)
	b.mu.Unlock()

	if eng != nil {
		eng.Close()
		b.log.Info("quiz closed", zap.Int64("chat_id", chatID))
	}
	b.sendHome(chatID)
}

// afterAdvance runs once an answered question has been moved past. While the answer
// feedback for eng is still being sent the advance is held back and sent afterwards.
func (b *Bot) afterAdvance(chatID int64, eng *quiz.Engine, s quiz.Session) {
	b.mu.Lock()
	if held, ok := b.heldAdvances[eng]; ok {
		b.heldAdvances[eng] = append(held, s)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	b.renderAdvance(chatID, eng, s)
}

// holdAdvances queues advances of eng until releaseAdvances
func (b *Bot) holdAdvances(eng *quiz.Engine) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.heldAdvances[eng] = nil
}

// releaseAdvances stops holding eng back and sends whatever advanced meanwhile
func (b *Bot) releaseAdvances(chatID int64, eng *quiz.Engine) {
	b.mu.Lock()
	held := b.heldAdvances[eng]
	delete(b.heldAdvances, eng)
	b.mu.Unlock()

	for _, s := range held {
		b.renderAdvance(chatID, eng, s)
	}
}

func (b *Bot) renderAdvance(chatID int64, eng *quiz.Engine, s quiz.Session) {
	// the chat may have exited or started over since the answer
	if b.quizSession(chatID) != eng {
		return
	}
	if s.Completed {
		b.sendResult(chatID, eng)
		return
	}
	b.sendQuestion(chatID, eng)
}

// sendQuestion shows the active question with one button per option
func (b *Bot) sendQuestion(chatID int64, eng *quiz.Engine) {
	// one snapshot so the buttons carry the generation and index of the same run
	s := eng.Snapshot()
	if s.Completed {
		b.sendResult(chatID, eng)
		return
	}
	q, ok := eng.Question(s.Index)
	if !ok {
		return
	}

	text := fmt.Sprintf("🧠 <b>Coding Quiz</b>\nQuestion %d of %d · Score: %d\n%s\n\n<b>%s</b>\n\n💡 Tip: Take your time and think carefully before answering",
		s.Index+1, eng.Len(), s.Score, progressBar(s.Progress()), html.EscapeString(q.Question))

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, answer := range q.Answers {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(optionLabel(i, answer), answerData(s.Generation, s.Index, i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Restart", callbackQuizReset),
		tgbotapi.NewInlineKeyboardButtonData("✖️ Exit", callbackQuizExit),
	))

	b.sendMessage(chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleQuizAnswer submits a pressed option and reports the outcome
func (b *Bot) handleQuizAnswer(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID

	// Decode run, question and option from the button

	gen, index, option, err := parseAnswerData(callback.Data)
	if err != nil {
		b.log.Warn("malformed quiz answer", zap.Int64("chat_id", chatID), zap.String("data", callback.Data), zap.Error(err))
		b.answerCallback(callback.ID, "")
		return
	}

	eng := b.quizSession(chatID)
	if eng == nil {
		b.answerCallback(callback.ID, answerNoQuiz)
		return
	}

	// With no advance delay the engine advances inside the submit call, so the next
	// question is held until the outcome has been shown
	b.holdAdvances(eng)
	defer b.releaseAdvances(chatID, eng)

	outcome, err := eng.SubmitAnswerAt(gen, index, option)
	if err != nil {
		metrics.QuizRejected.Inc()
		b.log.Warn("quiz answer rejected", zap.Int64("chat_id", chatID), zap.Error(err))
		switch {
		case errors.Is(err, quiz.ErrAlreadyAnswered), errors.Is(err, quiz.ErrStaleAnswer):
			b.answerCallback(callback.ID, answerRejected)
		case errors.Is(err, quiz.ErrSessionClosed):
			b.answerCallback(callback.ID, answerNoQuiz)
		default:
			b.answerCallback(callback.ID, answerNoOption)
		}
		return
	}

	// Toast the outcome, then mark the answered question
	metrics.QuizAnswers.WithLabelValues(outcome.String()).Inc()
	if outcome == quiz.Correct {
		b.answerCallback(callback.ID, answerCorrect)
	} else {
		b.answerCallback(callback.ID, answerIncorrect)
	}
	b.showAnswer(chatID, callback.Message.MessageID, eng, index, option)
}

// showAnswer rewrites the answered question with the right and chosen options marked
func (b *Bot) showAnswer(chatID int64, messageID int, eng *quiz.Engine, index, selected int) {
	q, ok := eng.Question(index)
	if !ok {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🧠 <b>Question %d of %d</b>\n<b>%s</b>\n\n", index+1, eng.Len(), html.EscapeString(q.Question))
	for i, answer := range q.Answers {
		mark := "▫️"
		switch {
		case i == q.RightAnswer:
			mark = "✅"
		case i == selected:
			mark = "❌"
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, html.EscapeString(optionLabel(i, answer)))
	}
	b.editMessage(chatID, messageID, sb.String())
}

// sendResult shows the final score with Try Again and Main menu buttons
func (b *Bot) sendResult(chatID int64, eng *quiz.Engine) {
	r, err := eng.Result()
	if err != nil {
		b.log.Error("quiz result requested early", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	metrics.QuizCompleted.WithLabelValues(r.Grade.String()).Inc()
	metrics.QuizPercentage.Observe(float64(r.Percentage))
	b.log.Info("quiz completed",
		zap.Int64("chat_id", chatID),
		zap.Int("score", r.Score),
		zap.Int("total", r.Total),
		zap.String("grade", r.Grade.String()))

	text := fmt.Sprintf("🏆 <b>Quiz Complete!</b>\nYou scored %d out of %d\n\n<b>%d%%</b>\n%s\n\n%s",
		r.Score, r.Total, r.Percentage, progressBar(r.Percentage), html.EscapeString(r.Grade.Message()))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Try Again", callbackQuizReset),
			tgbotapi.NewInlineKeyboardButtonData("📋 Main menu", callbackMenu),
		),
	)
	b.sendMessage(chatID, text, keyboard)
}

// optionLabel prefixes an option with its letter: A, B, C, ...
func optionLabel(i int, answer string) string {
	return fmt.Sprintf("%c. %s", 'A'+rune(i), answer)
}

// answerData encodes the run, question and option a button belongs to
func answerData(gen uint64, index, option int) string {
	return fmt.Sprintf("%s%d:%d:%d", callbackQuizAnswer, gen, index, option)
}

// parseAnswerData reverses answerData
func parseAnswerData(data string) (gen uint64, index, option int, err error) {
	parts := strings.Split(strings.TrimPrefix(data, callbackQuizAnswer), ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("want 3 fields, got %d", len(parts))
	}
	if gen, err = strconv.ParseUint(parts[0], 10, 64); err != nil {
		return 0, 0, 0, err
	}
	if index, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, err
	}
	if option, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, err
	}
	return gen, index, option, nil
}

// progressBar draws percent as a row of filled and empty blocks
func progressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * progressWidth / 100
	return strings.Repeat("▰", filled) + strings.Repeat("▱", progressWidth-filled)
}
