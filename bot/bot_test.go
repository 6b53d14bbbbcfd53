package bot

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gmucodingclub/clubbot/ai"
	"github.com/gmucodingclub/clubbot/database"
	"github.com/gmucodingclub/clubbot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const testChat int64 = 4242

type fakeClient struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	all      []tgbotapi.Chattable // sent and requests in call order
}

func (f *fakeClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.all = append(f.all, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeClient) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	f.all = append(f.all, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeClient) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeClient) edits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeClient) callbacks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb.Text)
		}
	}
	return out
}

func (f *fakeClient) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	if len(msgs) == 0 {
		t.Fatal("no messages sent")
	}
	return msgs[len(msgs)-1]
}

func newTestBot(t *testing.T, advanceDelay time.Duration) (*Bot, *fakeClient) {
	t.Helper()
	db, err := database.New(database.MemoryDSN)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	client := &fakeClient{}
	b := newBot(client, db, ai.NewAssistant(0, 60, 2), models.QuizQuestions(), advanceDelay, zap.NewNop())
	t.Cleanup(func() {
		b.Stop()
		db.Close()
	})
	return b, client
}

func sendText(b *Bot, text string) {
	b.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: testChat},
		Chat:      &tgbotapi.Chat{ID: testChat},
		Text:      text,
	}})
}

func press(b *Bot, messageID int, data string) {
	b.handleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: testChat},
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: testChat}},
		Data:    data,
	}})
}

// buttons returns the callback data of every inline button on a message
func buttons(t *testing.T, msg tgbotapi.MessageConfig) []string {
	t.Helper()
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("message has no inline keyboard: %q", msg.Text)
	}
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}

func answerButtons(t *testing.T, msg tgbotapi.MessageConfig) []string {
	t.Helper()
	var out []string
	for _, data := range buttons(t, msg) {
		if strings.HasPrefix(data, callbackQuizAnswer) {
			out = append(out, data)
		}
	}
	return out
}

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		in, cmd, args string
	}{
		{"/start", "start", ""},
		{"/events Workshop", "events", "Workshop"},
		{"/Events@clubbot   bootcamp ", "events", "bootcamp"},
		{"/join Ada | a@b.c | G1", "join", "Ada | a@b.c | G1"},
	}
	for _, tc := range cases {
		cmd, args := splitCommand(tc.in)
		if cmd != tc.cmd || args != tc.args {
			t.Errorf("%q: got (%q, %q), want (%q, %q)", tc.in, cmd, args, tc.cmd, tc.args)
		}
	}
}

func TestAnswerDataRoundTrip(t *testing.T) {
	gen, index, option, err := parseAnswerData(answerData(7, 3, 2))
	if err != nil || gen != 7 || index != 3 || option != 2 {
		t.Fatalf("got %d %d %d %v", gen, index, option, err)
	}
	if _, _, _, err := parseAnswerData(callbackQuizAnswer + "1:x:2"); err == nil {
		t.Fatal("expected error for malformed data")
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(0); got != "▱▱▱▱▱▱▱▱▱▱" {
		t.Fatalf("0%%: %q", got)
	}
	if got := progressBar(60); got != "▰▰▰▰▰▰▱▱▱▱" {
		t.Fatalf("60%%: %q", got)
	}
	if got := progressBar(150); got != "▰▰▰▰▰▰▰▰▰▰" {
		t.Fatalf("150%%: %q", got)
	}
}

func TestQuizAllCorrect(t *testing.T) {
	b, client := newTestBot(t, 0)
	sendText(b, "/quiz")

	for i, right := range []int{0, 2, 0, 2, 0} {
		msg := client.lastMessage(t)
		if !strings.Contains(msg.Text, "Question "+string(rune('1'+i))+" of 5") {
			t.Fatalf("question %d: unexpected text %q", i+1, msg.Text)
		}
		answers := answerButtons(t, msg)
		if len(answers) != 4 {
			t.Fatalf("question %d: got %d options", i+1, len(answers))
		}
		press(b, 100+i, answers[right])
	}

	result := client.lastMessage(t)
	for _, want := range []string{"Quiz Complete!", "You scored 5 out of 5", "100%", "Excellent work!"} {
		if !strings.Contains(result.Text, want) {
			t.Errorf("result missing %q: %q", want, result.Text)
		}
	}
	for _, cb := range client.callbacks() {
		if cb != answerCorrect {
			t.Fatalf("got notification %q, want %q", cb, answerCorrect)
		}
	}
	if got := len(client.edits()); got != 5 {
		t.Fatalf("got %d answered-question edits, want 5", got)
	}
}

// describe reduces the call log to one word per call
func (f *fakeClient) describe() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.all {
		switch m := c.(type) {
		case tgbotapi.CallbackConfig:
			out = append(out, "toast:"+m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, "edit")
		case tgbotapi.MessageConfig:
			switch {
			case strings.Contains(m.Text, "Quiz Complete!"):
				out = append(out, "result")
			case strings.Contains(m.Text, "Coding Quiz"):
				out = append(out, "question")
			default:
				out = append(out, "message")
			}
		}
	}
	return out
}

func TestAnswerFeedbackPrecedesNextQuestion(t *testing.T) {
	b, client := newTestBot(t, 0)
	sendText(b, "/quiz")
	for i, right := range []int{0, 2, 0, 2, 0} {
		press(b, 100+i, answerButtons(t, client.lastMessage(t))[right])
	}

	want := []string{"question"}
	for i := 0; i < 4; i++ {
		want = append(want, "toast:"+answerCorrect, "edit", "question")
	}
	want = append(want, "toast:"+answerCorrect, "edit", "result")

	got := client.describe()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("call order\n got %v\nwant %v", got, want)
	}
}

func TestQuizScoreAndGrade(t *testing.T) {
	b, client := newTestBot(t, 0)
	sendText(b, "/quiz")

	// right, wrong, right, wrong, right
	for i, choice := range []int{0, 1, 0, 1, 0} {
		press(b, 100+i, answerButtons(t, client.lastMessage(t))[choice])
	}

	result := client.lastMessage(t).Text
	if !strings.Contains(result, "You scored 3 out of 5") || !strings.Contains(result, "60%") || !strings.Contains(result, "Good job!") {
		t.Fatalf("unexpected result %q", result)
	}
	cbs := client.callbacks()
	if len(cbs) != 5 || cbs[1] != answerIncorrect {
		t.Fatalf("unexpected notifications %v", cbs)
	}
}

func TestQuizSecondPressRejected(t *testing.T) {
	b, client := newTestBot(t, time.Hour)
	sendText(b, "/quiz")

	answers := answerButtons(t, client.lastMessage(t))
	press(b, 100, answers[0])
	press(b, 100, answers[1])

	cbs := client.callbacks()
	if len(cbs) != 2 || cbs[0] != answerCorrect || cbs[1] != answerRejected {
		t.Fatalf("unexpected notifications %v", cbs)
	}
	s := b.quizSession(testChat).Snapshot()
	if s.Score != 1 || s.Index != 0 || s.Selected != 0 {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestQuizAdvancesAfterDelay(t *testing.T) {
	b, client := newTestBot(t, 20*time.Millisecond)
	sendText(b, "/quiz")
	press(b, 100, answerButtons(t, client.lastMessage(t))[0])

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(client.lastMessage(t).Text, "Question 2 of 5") {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("second question was never sent")
}

func TestQuizRestartDropsPendingAdvance(t *testing.T) {
	b, client := newTestBot(t, time.Hour)
	sendText(b, "/quiz")
	first := client.lastMessage(t)
	press(b, 100, answerButtons(t, first)[0])

	press(b, 100, callbackQuizReset)
	s := b.quizSession(testChat).Snapshot()
	if s.Index != 0 || s.Score != 0 || s.Completed || b.quizSession(testChat).Pending() {
		t.Fatalf("unexpected session after restart %+v", s)
	}

	// buttons from before the restart belong to another run
	press(b, 100, answerButtons(t, first)[0])
	cbs := client.callbacks()
	if cbs[len(cbs)-1] != answerRejected {
		t.Fatalf("stale button accepted: %v", cbs)
	}

	press(b, 101, answerButtons(t, client.lastMessage(t))[0])
	if got := b.quizSession(testChat).Snapshot().Score; got != 1 {
		t.Fatalf("score after restart: got %d, want 1", got)
	}
}

func TestQuizExit(t *testing.T) {
	b, client := newTestBot(t, 0)
	sendText(b, "/quiz")
	question := client.lastMessage(t)

	press(b, 100, callbackQuizExit)
	if b.quizSession(testChat) != nil {
		t.Fatal("session kept after exit")
	}
	if !strings.Contains(client.lastMessage(t).Text, "Welcome to GMU Coding Club") {
		t.Fatalf("exit did not return home: %q", client.lastMessage(t).Text)
	}

	press(b, 100, answerButtons(t, question)[0])
	cbs := client.callbacks()
	if cbs[len(cbs)-1] != answerNoQuiz {
		t.Fatalf("answer after exit: %v", cbs)
	}
}

func TestQuizStartReplacesSession(t *testing.T) {
	b, client := newTestBot(t, time.Hour)
	sendText(b, "/quiz")
	old := b.quizSession(testChat)
	press(b, 100, answerButtons(t, client.lastMessage(t))[0])

	sendText(b, "/quiz")
	if b.quizSession(testChat) == old {
		t.Fatal("quiz was not replaced")
	}
	if _, err := old.SubmitAnswer(0); err == nil {
		t.Fatal("replaced session still accepts answers")
	}
}

func TestEventsFilter(t *testing.T) {
	b, client := newTestBot(t, 0)

	sendText(b, "/events workshop")
	text := client.lastMessage(t).Text
	if !strings.Contains(text, "Introduction to React Workshop") || !strings.Contains(text, "Python for Data Science") {
		t.Fatalf("workshops missing: %q", text)
	}
	if strings.Contains(text, "Hackathon 2025") {
		t.Fatalf("competition listed under workshops: %q", text)
	}
	if !strings.Contains(text, "Nov 15, 2025") {
		t.Fatalf("date not formatted: %q", text)
	}

	press(b, 1, callbackEvents+"Competition")
	if text := client.lastMessage(t).Text; !strings.Contains(text, "Hackathon 2025") || strings.Contains(text, "React") {
		t.Fatalf("competition filter: %q", text)
	}

	sendText(b, "/events party")
	if text := client.lastMessage(t).Text; !strings.Contains(text, "Unknown category") {
		t.Fatalf("unknown category accepted: %q", text)
	}
}

func TestAddEvent(t *testing.T) {
	b, client := newTestBot(t, 0)

	sendText(b, "/addevent Go Meetup | 2025-11-20")
	if text := client.lastMessage(t).Text; !strings.Contains(text, "Please fill in all fields") {
		t.Fatalf("missing fields accepted: %q", text)
	}

	sendText(b, "/addevent Go Meetup | 2025-11-20 | 6:00 PM | Lab 101 | bootcamp | Intro to Go")
	if text := client.lastMessage(t).Text; !strings.Contains(text, "Event added successfully!") {
		t.Fatalf("event not added: %q", text)
	}

	events, err := b.db.ListEvents("Bootcamp")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d bootcamps, want 2", len(events))
	}
}

func TestProjectsFilter(t *testing.T) {
	b, client := newTestBot(t, 0)

	sendText(b, "/projects ai/ml")
	msg := client.lastMessage(t)
	if !strings.Contains(msg.Text, "Projects</b> (AI/ML)") {
		t.Fatalf("category not canonicalised: %q", msg.Text)
	}
	found := false
	for _, data := range buttons(t, msg) {
		if data == callbackProjects+"Data Science" {
			found = true
		}
	}
	if !found {
		t.Fatal("category buttons missing")
	}

	sendText(b, "/projects games")
	if text := client.lastMessage(t).Text; !strings.Contains(text, "Unknown category") {
		t.Fatalf("unknown category accepted: %q", text)
	}
}

func TestJoin(t *testing.T) {
	b, client := newTestBot(t, 0)

	sendText(b, "/join Ada Lovelace | not-an-email | G0001")
	if text := client.lastMessage(t).Text; text != "Please enter a valid email address." {
		t.Fatalf("bad email: %q", text)
	}

	sendText(b, "/join Ada Lovelace")
	if text := client.lastMessage(t).Text; !strings.Contains(text, "Please fill in all required fields") {
		t.Fatalf("missing fields: %q", text)
	}

	sendText(b, "/join Ada Lovelace | ada@gmu.edu | G0001 | CS | junior | beginner | | yes")
	text := client.lastMessage(t).Text
	if !strings.Contains(text, "Check your email for next steps.") || !strings.Contains(text, "Newsletter: yes") {
		t.Fatalf("application not accepted: %q", text)
	}
	if strings.Contains(text, "Interests:") {
		t.Fatalf("empty interests echoed: %q", text)
	}

	sendText(b, "/join Ada Lovelace | ada@gmu.edu | G0001 | CS | junior | beginner | compilers & <b>AI</b>")
	text = client.lastMessage(t).Text
	if !strings.Contains(text, "Interests: compilers &amp; &lt;b&gt;AI&lt;/b&gt;") || !strings.Contains(text, "Newsletter: no") {
		t.Fatalf("interests not echoed: %q", text)
	}
}

func TestEventDetails(t *testing.T) {
	b, client := newTestBot(t, 0)

	sendText(b, "/events Competition")
	if text := client.lastMessage(t).Text; !strings.Contains(text, "Details: /event 2") {
		t.Fatalf("event number missing from list: %q", text)
	}

	tests := []struct {
		name string
		args string
		want string
	}{
		{"found", "2", "Hackathon 2025"},
		{"not found", "42", "Event 42 not found."},
		{"not a number", "hackathon", "Please enter an event number"},
		{"missing", "", "Please enter an event number"},
		{"zero", "0", "Please enter an event number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sendText(b, strings.TrimSpace("/event "+tt.args))
			if text := client.lastMessage(t).Text; !strings.Contains(text, tt.want) {
				t.Fatalf("got %q, want it to contain %q", text, tt.want)
			}
		})
	}
}

func TestPlanEvent(t *testing.T) {
	b, client := newTestBot(t, 0)

	sendText(b, "/planevent")
	if text := client.lastMessage(t).Text; !strings.HasPrefix(text, "Please enter a prompt") {
		t.Fatalf("empty prompt accepted: %q", text)
	}

	sendText(b, "/planevent Go workshop <before> finals")
	text := client.lastMessage(t).Text
	if !strings.Contains(text, "AI is processing your request...") || !strings.Contains(text, "Go workshop &lt;before&gt; finals") {
		t.Fatalf("prompt not acknowledged: %q", text)
	}

	press(b, 1, callbackPage+cmdPlanEvent)
	if text := client.lastMessage(t).Text; !strings.Contains(text, "Plan an event with AI") {
		t.Fatalf("plan page: %q", text)
	}
}

func TestVerifyCertificate(t *testing.T) {
	b, client := newTestBot(t, 0)

	sendText(b, "/verify G0001")
	if text := client.lastMessage(t).Text; !strings.Contains(text, "Please enter your student ID and event code") {
		t.Fatalf("missing event code accepted: %q", text)
	}

	sendText(b, "/verify G0001 REACT25")
	if text := client.lastMessage(t).Text; !strings.Contains(text, "Certificate verified! Check your email for download link.") {
		t.Fatalf("verification: %q", text)
	}
}

func TestAssistantReply(t *testing.T) {
	b, client := newTestBot(t, 0)

	sendText(b, "Tell me about upcoming EVENTS")
	b.wg.Wait()

	if text := client.lastMessage(t).Text; !strings.Contains(text, "Hackathon 2025") {
		t.Fatalf("unexpected reply %q", text)
	}
	client.mu.Lock()
	typing := false
	for _, r := range client.requests {
		if a, ok := r.(tgbotapi.ChatActionConfig); ok && a.Action == tgbotapi.ChatTyping {
			typing = true
		}
	}
	client.mu.Unlock()
	if !typing {
		t.Fatal("typing action not sent")
	}
}

func TestAssistantRateLimited(t *testing.T) {
	b, client := newTestBot(t, 0)

	for i := 0; i < 3; i++ {
		sendText(b, "hello")
		b.wg.Wait()
	}
	if text := client.lastMessage(t).Text; !strings.Contains(text, "sending messages too quickly") {
		t.Fatalf("third message not limited: %q", text)
	}
}

func TestUnknownCommandAndHome(t *testing.T) {
	b, client := newTestBot(t, 0)

	sendText(b, "/dance")
	if text := client.lastMessage(t).Text; !strings.Contains(text, "Unknown command") {
		t.Fatalf("got %q", text)
	}

	sendText(b, "/start")
	msg := client.lastMessage(t)
	if !strings.Contains(msg.Text, "Upcoming events") || !strings.Contains(msg.Text, "Learn &amp; Code") {
		t.Fatalf("home page: %q", msg.Text)
	}
	if len(buttons(t, msg)) != 6 {
		t.Fatalf("menu buttons: %v", buttons(t, msg))
	}
}
