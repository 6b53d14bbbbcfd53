package bot

import (
	"database/sql"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/gmucodingclub/clubbot/ai"
	"github.com/gmucodingclub/clubbot/metrics"
	"github.com/gmucodingclub/clubbot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const upcomingOnHome = 2

const addEventUsage = "➕ <b>Add an event</b>\n" +
	"Send all fields separated by |, description is optional:\n\n" +
	"<code>/addevent Title | 2025-12-01 | 6:00 PM - 8:00 PM | Venue | Workshop | Description</code>\n\n" +
	"Categories: Workshop, Competition, Bootcamp"

const eventUsage = "Please enter an event number, for example <code>/event 2</code>"

const planEventUsage = "🤖 <b>Plan an event with AI</b>\n" +
	"Describe the event you have in mind:\n\n" +
	"<code>/planevent A beginner Go workshop before finals</code>"

const joinUsage = "Apply by sending your details separated by |. Name, email and student ID are required:\n\n" +
	"<code>/join Full Name | email@gmu.edu | G01234567 | Major | junior | beginner | Interests | yes</code>\n\n" +
	"Year: freshman, sophomore, junior, senior, graduate\n" +
	"Experience: beginner, intermediate, advanced\n" +
	"The last field subscribes you to the newsletter."

const verifyUsage = "Please enter your student ID and event code:\n<code>/verify G01234567 EVENTCODE</code>"

const helpText = "<b>Commands</b>\n" +
	"/start - Home page\n" +
	"/events [category] - Upcoming events\n" +
	"/event &lt;number&gt; - Event details\n" +
	"/addevent - Add an event\n" +
	"/planevent &lt;idea&gt; - Plan an event with AI\n" +
	"/quiz - Take the coding quiz\n" +
	"/restart - Restart your quiz\n" +
	"/projects [category] - Member projects\n" +
	"/about - About the club\n" +
	"/certs - Certifications\n" +
	"/verify - Verify a certificate\n" +
	"/join - Become a member\n" +
	"/help - This message\n\n" +
	"💬 Any other message goes to the club assistant."

// menuKeyboard is the main menu shown on the home page
func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Events", callbackEvents+models.AllCategories),
			tgbotapi.NewInlineKeyboardButtonData("🧠 Quiz", callbackQuizStart),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💻 Projects", callbackProjects+models.AllCategories),
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ About", callbackPage+cmdAbout),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎓 Certifications", callbackPage+cmdCerts),
			tgbotapi.NewInlineKeyboardButtonData("🚀 Join", callbackPage+cmdJoin),
		),
	)
}

// backRow is a single Main menu button
func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📋 Main menu", callbackMenu))
}

// sendHome shows the welcome text, club features and the next events
func (b *Bot) sendHome(chatID int64) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👋 <b>Welcome to %s</b>\n", models.ClubName)
	sb.WriteString("Learn, build and compete with fellow student developers.\n\n")

	// Load features
	features, err := b.db.Features()
	if err != nil {
		b.log.Error("failed to load features", zap.Error(err))
	}
	for _, f := range features {
		fmt.Fprintf(&sb, "• <b>%s</b>: %s\n", html.EscapeString(f.Title), html.EscapeString(f.Description))
	}

	// Load upcoming events
	events, err := b.db.UpcomingEvents(upcomingOnHome)
	if err != nil {
		b.log.Error("failed to load upcoming events", zap.Error(err))
	}
	if len(events) > 0 {
		sb.WriteString("\n📅 <b>Upcoming events</b>\n")
		for _, e := range events {
			fmt.Fprintf(&sb, "• %s: %s, %s, %s\n",
				html.EscapeString(e.Title), formatDate(e.Date), html.EscapeString(e.Time), html.EscapeString(e.Venue))
		}
	}

	sb.WriteString("\n💬 ")
	sb.WriteString(html.EscapeString(ai.Greeting))

	b.sendMessage(chatID, sb.String(), menuKeyboard())
}

// sendHelp lists the commands
func (b *Bot) sendHelp(chatID int64) {
	b.sendMessage(chatID, helpText, tgbotapi.NewInlineKeyboardMarkup(backRow()))
}

// sendEvents lists events, optionally filtered by category
func (b *Bot) sendEvents(chatID int64, category string) {
	selected := models.AllCategories
	if category != "" && !strings.EqualFold(category, models.AllCategories) {
		canonical, ok := models.CanonicalEventCategory(category)
		if !ok {
			b.sendMessage(chatID, fmt.Sprintf("Unknown category %q. Choose one of: %s, %s.",
				html.EscapeString(category), models.AllCategories, strings.Join(models.EventCategories, ", ")))
			return
		}
		selected = canonical
	}

	events, err := b.db.ListEvents(selected)
	if err != nil {
		b.log.Error("failed to list events", zap.String("category", selected), zap.Error(err))
		b.sendMessage(chatID, "Sorry, I couldn't load the events right now. Please try again later.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 <b>Events</b> (%s)\n\n", html.EscapeString(selected))
	if len(events) == 0 {
		sb.WriteString("No events in this category yet.")
	}
	for _, e := range events {
		sb.WriteString(formatEvent(e))
		fmt.Fprintf(&sb, "Details: /event %d\n\n", e.ID)
	}

	filters := []tgbotapi.InlineKeyboardButton{}
	for _, c := range append([]string{models.AllCategories}, models.EventCategories...) {
		label := c
		if c == selected {
			label = "• " + c
		}
		filters = append(filters, tgbotapi.NewInlineKeyboardButtonData(label, callbackEvents+c))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		filters,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add event", callbackPage+cmdAddEvent),
			tgbotapi.NewInlineKeyboardButtonData("🤖 Plan with AI", callbackPage+cmdPlanEvent),
		),
		backRow(),
	)
	b.sendMessage(chatID, sb.String(), keyboard)
}

// sendEvent shows one event looked up by its number
func (b *Bot) sendEvent(chatID int64, args string) {
	id, err := strconv.Atoi(args)
	if err != nil || id <= 0 {
		b.sendMessage(chatID, eventUsage)
		return
	}

	event, err := b.db.GetEvent(id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		b.sendMessage(chatID, fmt.Sprintf("Event %d not found. Use /events to see the list.", id))
		return
	case err != nil:
		b.log.Error("failed to load event", zap.Int("event_id", id), zap.Error(err))
		b.sendMessage(chatID, "Sorry, I couldn't load the event right now. Please try again later.")
		return
	}

	b.sendMessage(chatID, "📅 "+formatEvent(event),
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 All events", callbackEvents+models.AllCategories)),
			backRow(),
		))
}

// handlePlanEvent takes an event idea for the AI planner. Planning itself is not
// available yet, so the idea is acknowledged and logged.
func (b *Bot) handlePlanEvent(chatID int64, prompt string) {
	if prompt == "" {
		b.sendMessage(chatID, "Please enter a prompt\n\n"+planEventUsage)
		return
	}

	metrics.FormSubmissions.WithLabelValues("planevent", "ok").Inc()
	b.log.Info("event plan requested", zap.Int64("chat_id", chatID), zap.Int("length", len(prompt)))
	b.sendMessage(chatID, fmt.Sprintf("🤖 AI is processing your request...\n\n<i>%s</i>\n\nThis feature will be enhanced with AI capabilities soon. Meanwhile you can add the event with /addevent.",
		html.EscapeString(prompt)))
}

// formatEvent renders an event card with escaped catalog text
func formatEvent(e models.Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b> [%s]\n", html.EscapeString(e.Title), html.EscapeString(e.Category))
	fmt.Fprintf(&sb, "📅 %s · %s\n", formatDate(e.Date), html.EscapeString(e.Time))
	fmt.Fprintf(&sb, "📍 %s · 👥 %d attending\n", html.EscapeString(e.Venue), e.Attendees)
	if e.Description != "" {
		sb.WriteString(html.EscapeString(e.Description))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatDate renders 2025-11-15 as Nov 15, 2025
func formatDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return html.EscapeString(date)
	}
	return t.Format("Jan 2, 2006")
}

// handleAddEvent adds an event to the catalog, or shows the form when args is empty
func (b *Bot) handleAddEvent(chatID int64, args string) {
	if args == "" {
		b.sendMessage(chatID, addEventUsage)
		return
	}

	// Validate, then store
	event, err := models.ParseEvent(args)
	if err == nil {
		event, err = b.db.AddEvent(event)
	}
	if err != nil {
		metrics.FormSubmissions.WithLabelValues("event", "invalid").Inc()
		switch {
		case errors.Is(err, models.ErrMissingFields):
			b.sendMessage(chatID, "Please fill in all fields: title, date, time, venue and category.")
		case errors.Is(err, models.ErrInvalidDate):
			b.sendMessage(chatID, "Please enter the date as YYYY-MM-DD.")
		case errors.Is(err, models.ErrInvalidCategory):
			b.sendMessage(chatID, "Please choose a category: "+strings.Join(models.EventCategories, ", ")+".")
		default:
			b.log.Error("failed to add event", zap.Int64("chat_id", chatID), zap.Error(err))
			b.sendMessage(chatID, "Sorry, the event could not be saved. Please try again later.")
		}
		return
	}

	metrics.FormSubmissions.WithLabelValues("event", "ok").Inc()
	b.log.Info("event added", zap.Int64("chat_id", chatID), zap.Int("event_id", event.ID), zap.String("category", event.Category))
	b.sendMessage(chatID, "✅ Event added successfully!\n\n"+formatEvent(event),
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 All events", callbackEvents+models.AllCategories)),
		))
}

// sendProjects lists member projects, optionally filtered by category
func (b *Bot) sendProjects(chatID int64, category string) {
	categories, err := b.db.ProjectCategories()
	if err != nil {
		b.log.Error("failed to list project categories", zap.Error(err))
		b.sendMessage(chatID, "Sorry, I couldn't load the projects right now. Please try again later.")
		return
	}

	selected := models.AllCategories
	if category != "" {
		selected = ""
		for _, c := range categories {
			if strings.EqualFold(c, category) {
				selected = c
				break
			}
		}
		if selected == "" {
			b.sendMessage(chatID, fmt.Sprintf("Unknown category %q. Choose one of: %s.",
				html.EscapeString(category), html.EscapeString(strings.Join(categories, ", "))))
			return
		}
	}

	projects, err := b.db.ListProjects(selected)
	if err != nil {
		b.log.Error("failed to list projects", zap.String("category", selected), zap.Error(err))
		b.sendMessage(chatID, "Sorry, I couldn't load the projects right now. Please try again later.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💻 <b>Projects</b> (%s)\n\n", html.EscapeString(selected))
	if len(projects) == 0 {
		sb.WriteString("No projects found in this category.")
	}
	for _, p := range projects {
		fmt.Fprintf(&sb, "<b>%s</b> [%s]\n%s\n", html.EscapeString(p.Title), html.EscapeString(p.Category), html.EscapeString(p.Description))
		fmt.Fprintf(&sb, "🛠 %s\n", html.EscapeString(strings.Join(p.Technologies, ", ")))
		fmt.Fprintf(&sb, "👥 %s\n", html.EscapeString(strings.Join(p.Contributors, ", ")))
		links := []string{}
		if p.GithubURL != "" {
			links = append(links, fmt.Sprintf(`<a href="%s">GitHub</a>`, html.EscapeString(p.GithubURL)))
		}
		if p.DemoURL != "" {
			links = append(links, fmt.Sprintf(`<a href="%s">Demo</a>`, html.EscapeString(p.DemoURL)))
		}
		if len(links) > 0 {
			sb.WriteString("🔗 " + strings.Join(links, " · ") + "\n")
		}
		sb.WriteString("\n")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range categories {
		label := c
		if c == selected {
			label = "• " + c
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, callbackProjects+c))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, backRow())
	b.sendMessage(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// sendAbout shows the mission, values and leadership team
func (b *Bot) sendAbout(chatID int64) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ℹ️ <b>About %s</b>\n%s\n\n", models.ClubName, html.EscapeString(models.About))
	fmt.Fprintf(&sb, "🎯 <b>Our mission</b>\n%s\n", html.EscapeString(models.Mission))

	values, err := b.db.Values()
	if err != nil {
		b.log.Error("failed to load values", zap.Error(err))
	}
	if len(values) > 0 {
		sb.WriteString("\n💡 <b>Our values</b>\n")
		for _, v := range values {
			fmt.Fprintf(&sb, "• <b>%s</b>: %s\n", html.EscapeString(v.Title), html.EscapeString(v.Description))
		}
	}

	team, err := b.db.Team()
	if err != nil {
		b.log.Error("failed to load team", zap.Error(err))
	}
	if len(team) > 0 {
		sb.WriteString("\n👥 <b>Leadership team</b>\n")
		for _, m := range team {
			fmt.Fprintf(&sb, "• <b>%s</b>, %s: %s\n", html.EscapeString(m.Name), html.EscapeString(m.Role), html.EscapeString(m.Bio))
		}
	}

	b.sendMessage(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(backRow()))
}

// sendCertifications lists issued certificates and how to verify one
func (b *Bot) sendCertifications(chatID int64) {
	certs, err := b.db.Certifications()
	if err != nil {
		b.log.Error("failed to load certifications", zap.Error(err))
		b.sendMessage(chatID, "Sorry, I couldn't load the certifications right now. Please try again later.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎓 <b>Certifications</b>\n\n")
	for _, c := range certs {
		fmt.Fprintf(&sb, "<b>%s</b>\n%s · %s · %s issued\n\n",
			html.EscapeString(c.Title), html.EscapeString(c.Event), formatDate(c.Date), html.EscapeString(c.Issued))
	}
	sb.WriteString(verifyUsage)

	b.sendMessage(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(backRow()))
}

// handleVerify acknowledges a certificate request for a student ID and event code
func (b *Bot) handleVerify(chatID int64, args string) {
	fields := strings.Fields(args)
	req := models.CertificateRequest{}
	if len(fields) > 0 {
		req.StudentID = fields[0]
	}
	if len(fields) > 1 {
		req.EventCode = strings.Join(fields[1:], " ")
	}

	if err := req.Validate(); err != nil {
		metrics.FormSubmissions.WithLabelValues("verify", "invalid").Inc()
		b.sendMessage(chatID, verifyUsage)
		return
	}

	ref := models.NewReference()
	metrics.FormSubmissions.WithLabelValues("verify", "ok").Inc()
	b.log.Info("certificate verification requested", zap.Int64("chat_id", chatID), zap.String("reference", ref))
	b.sendMessage(chatID, fmt.Sprintf("✅ Certificate verified! Check your email for download link.\nReference: <code>%s</code>", ref))
}

// sendJoin shows member benefits and the application format
func (b *Bot) sendJoin(chatID int64) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🚀 <b>Join %s</b>\n\n<b>Member benefits</b>\n", models.ClubName)
	benefits, err := b.db.Benefits()
	if err != nil {
		b.log.Error("failed to load benefits", zap.Error(err))
	}
	for _, benefit := range benefits {
		fmt.Fprintf(&sb, "• %s\n", html.EscapeString(benefit))
	}
	sb.WriteString("\n")
	sb.WriteString(joinUsage)

	b.sendMessage(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(backRow()))
}

// handleJoin validates a membership application and echoes it back with a reference
func (b *Bot) handleJoin(chatID int64, args string) {
	app := models.ParseMembershipApplication(args)
	if err := app.Validate(); err != nil {
		metrics.FormSubmissions.WithLabelValues("join", "invalid").Inc()
		switch {
		case errors.Is(err, models.ErrMissingFields):
			b.sendMessage(chatID, "Please fill in all required fields: full name, email and student ID.")
		case errors.Is(err, models.ErrInvalidEmail):
			b.sendMessage(chatID, "Please enter a valid email address.")
		default:
			b.sendMessage(chatID, "Please check your application: "+html.EscapeString(err.Error()))
		}
		return
	}

	// Accepted: reply with the details we received
	ref := models.NewReference()
	metrics.FormSubmissions.WithLabelValues("join", "ok").Inc()
	b.log.Info("membership application received", zap.Int64("chat_id", chatID), zap.String("reference", ref))

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎉 <b>Welcome to %s!</b> Check your email for next steps.\n\n", models.ClubName)
	fmt.Fprintf(&sb, "Name: %s\nEmail: %s\nStudent ID: %s\n",
		html.EscapeString(app.FullName), html.EscapeString(app.Email), html.EscapeString(app.StudentID))
	if app.Major != "" {
		fmt.Fprintf(&sb, "Major: %s\n", html.EscapeString(app.Major))
	}
	if app.Year != "" {
		fmt.Fprintf(&sb, "Year: %s\n", html.EscapeString(app.Year))
	}
	if app.Experience != "" {
		fmt.Fprintf(&sb, "Experience: %s\n", html.EscapeString(app.Experience))
	}
	if app.Interests != "" {
		fmt.Fprintf(&sb, "Interests: %s\n", html.EscapeString(app.Interests))
	}
	newsletter := "no"
	if app.Newsletter {
		newsletter = "yes"
	}
	fmt.Fprintf(&sb, "Newsletter: %s\nReference: <code>%s</code>", newsletter, ref)

	b.sendMessage(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(backRow()))
}
