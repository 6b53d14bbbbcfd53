package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultReplyDelay is the pause before a reply, while the chat shows "typing"
	DefaultReplyDelay = time.Second

	defaultRatePerMinute = 20
	defaultBurst         = 5
)

var (
	ErrEmptyMessage = errors.New("please enter a message")
	ErrRateLimited  = errors.New("too many messages, slow down a little")
)

// Topic is what a message was matched to
type Topic string

const (
	TopicEvents         Topic = "events"
	TopicJoin           Topic = "join"
	TopicProjects       Topic = "projects"
	TopicCertifications Topic = "certifications"
	TopicGreeting       Topic = "greeting"
	TopicFallback       Topic = "fallback"
)

// Greeting opens every conversation with the assistant
const Greeting = "Hello! I'm your GMU Coding Club AI Assistant. How can I help you today? " +
	"You can ask me about events, workshops, projects, or anything related to the coding club!"

type rule struct {
	topic    Topic
	keywords []string
	reply    string
}

// rules are checked in order; the first keyword hit wins
var rules = []rule{
	{
		topic:    TopicEvents,
		keywords: []string{"event", "workshop"},
		reply: "We have exciting events coming up! Check out our Introduction to React Workshop on Nov 15 " +
			"and our Hackathon 2025 from Dec 5-7. You can view all events with /events.",
	},
	{
		topic:    TopicJoin,
		keywords: []string{"join", "member"},
		reply: "We'd love to have you join! Use /join to fill out the membership form. " +
			"Membership is free and gives you access to all our events, workshops, and projects!",
	},
	{
		topic:    TopicProjects,
		keywords: []string{"project"},
		reply: "Our members work on various exciting projects! From web development to AI/ML, we've got it all. " +
			"Check out /projects to see what we're building and how you can contribute!",
	},
	{
		topic:    TopicCertifications,
		keywords: []string{"certification", "quiz"},
		reply: "We offer certifications through our quiz platform! Complete quizzes on various programming topics " +
			"to earn certificates and showcase your skills. Try /quiz or visit /certs to get started!",
	},
	{
		topic:    TopicGreeting,
		keywords: []string{"hello", "hi"},
		reply:    "Hello! Welcome to GMU Coding Club! What would you like to know about our community?",
	},
}

const fallbackReply = "That's a great question! For more specific information, I recommend exploring the menu " +
	"or reaching out to our club leaders. You can also check out /events, /projects, and /certs for more details!"

// Reply is the assistant's answer to one message
type Reply struct {
	Topic Topic
	Text  string
}

// Respond matches query against the keyword rules. Matching is a case-insensitive substring search.
func Respond(query string) Reply {
	q := strings.ToLower(query)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return Reply{Topic: r.topic, Text: r.reply}
			}
		}
	}
	return Reply{Topic: TopicFallback, Text: fallbackReply}
}

// Assistant answers chat messages with canned replies after a short, cancellable delay
type Assistant struct {
	mu       sync.Mutex
	delay    time.Duration
	limit    rate.Limit
	burst    int
	limiters map[int64]*rate.Limiter
}

// NewAssistant creates an assistant that allows ratePerMinute messages per chat with the given burst.
// Non-positive values fall back to the defaults.
func NewAssistant(delay time.Duration, ratePerMinute, burst int) *Assistant {
	a := &Assistant{limiters: make(map[int64]*rate.Limiter)}
	a.Configure(delay, ratePerMinute, burst)
	return a
}

// Configure updates the reply delay and rate limits. Existing per-chat limiters are dropped.
func (a *Assistant) Configure(delay time.Duration, ratePerMinute, burst int) {
	if delay < 0 {
		delay = 0
	}
	if ratePerMinute <= 0 {
		ratePerMinute = defaultRatePerMinute
	}
	if burst <= 0 {
		burst = defaultBurst
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.delay = delay
	a.limit = rate.Limit(float64(ratePerMinute) / 60)
	a.burst = burst
	a.limiters = make(map[int64]*rate.Limiter)
}

func (a *Assistant) limiter(chatID int64) (*rate.Limiter, time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.limiters[chatID]
	if !ok {
		l = rate.NewLimiter(a.limit, a.burst)
		a.limiters[chatID] = l
	}
	return l, a.delay
}

// Reply answers message for chatID. It waits for the reply delay unless ctx is cancelled first.
func (a *Assistant) Reply(ctx context.Context, chatID int64, message string) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{}, ErrEmptyMessage
	}
	l, delay := a.limiter(chatID)
	if !l.Allow() {
		return Reply{}, ErrRateLimited
	}

	reply := Respond(message)
	if delay == 0 {
		return reply, nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case <-t.C:
		return reply, nil
	}
}
