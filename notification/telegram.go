// Package notification provides implementations for various notification services
package notification

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"slices"

	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/raykavin/pricelens/core"
)

const (
	pollingTimeout = 10 * time.Second
)

var thresholdRegexp = regexp.MustCompile(`/threshold\s+(?P<value>\d+(?:\.\d+)?)`)

// Settings configures the Telegram notifier.
type Settings struct {
	Token  string
	Users  []int  // authorized telegram user IDs, also the broadcast list
	Symbol string // symbol quoted by the /price command
}

// Telegram implements the core.Notifier interface as a Telegram bot.
// Besides broadcasting alerts it answers a small command set so the
// threshold can be inspected and moved from chat.
type Telegram struct {
	settings    Settings
	feeder      core.Feeder
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
	log         core.Logger

	getThreshold func() float64
	setThreshold func(value float64)
}

// Option is a function that configures a telegram instance
type Option func(telegram *Telegram)

// WithThreshold wires the alert threshold to its owner. The bot reads
// the live value through get on every /threshold, so moves made on the
// chart show up immediately, and writes moves back through set.
func WithThreshold(get func() float64, set func(value float64)) Option {
	return func(t *Telegram) {
		t.getThreshold = get
		t.setThreshold = set
	}
}

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(feeder core.Feeder, settings Settings, log core.Logger, options ...Option) (*Telegram, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: pollingTimeout}
	userMiddleware := newAuthMiddleware(poller, settings, log)

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Token,
		Poller:    userMiddleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &Telegram{
		settings:    settings,
		feeder:      feeder,
		client:      client,
		defaultMenu: menu,
		log:         log,
	}

	for _, option := range options {
		option(bot)
	}

	registerHandlers(client, bot)

	return bot, nil
}

// newAuthMiddleware creates a middleware to validate authorized users
func newAuthMiddleware(poller *tb.LongPoller, settings Settings, log core.Logger) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Error("message or sender is nil ", u)
			return false
		}

		if slices.Contains(settings.Users, int(u.Message.Sender.ID)) {
			return true
		}

		log.Error("unauthorized user ", u.Message.Sender.ID)
		return false
	})
}

// setupKeyboard configures the reply keyboard layout
func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		priceBtn     = menu.Text("/price")
		thresholdBtn = menu.Text("/threshold")
		helpBtn      = menu.Text("/help")
	)

	menu.Reply(
		menu.Row(priceBtn, thresholdBtn, helpBtn),
	)
}

// setupCommands configures available bot commands
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/price", Description: "Show the latest price"},
		{Text: "/threshold", Description: "Show or move the alert threshold"},
	})
}

// registerHandlers registers all command handlers
func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/price", bot.PriceHandle)
	client.Handle("/threshold", bot.ThresholdHandle)
}

// Start begins the Telegram bot and notifies all authorized users
func (t *Telegram) Start() {
	go t.client.Start()
	t.sendMessageWithOptions("Price alerts initialized.", t.defaultMenu)
}

// Notification methods
// -------------------

// Notify sends a message to all authorized users
func (t *Telegram) Notify(text string) {
	for _, user := range t.settings.Users {
		_, err := t.client.Send(&tb.User{ID: int64(user)}, text)
		if err != nil {
			t.log.WithError(err).Error("failed to send notification")
		}
	}
}

// OnError notifies users about errors
func (t *Telegram) OnError(err error) {
	var sb strings.Builder
	sb.WriteString("🛑 ERROR\n")
	sb.WriteString("-----\n")
	sb.WriteString(err.Error())

	t.Notify(sb.String())
}

// sendMessageWithOptions sends a message to all authorized users with additional options
func (t *Telegram) sendMessageWithOptions(text string, options ...any) {
	for _, user := range t.settings.Users {
		_, err := t.client.Send(&tb.User{ID: int64(user)}, text, options...)
		if err != nil {
			t.log.WithError(err).Error("failed to send notification with options")
		}
	}
}

// sendMessage sends a message to a specific user
func (t *Telegram) sendMessage(to *tb.User, text string, options ...any) {
	_, err := t.client.Send(to, text, options...)
	if err != nil {
		t.log.WithError(err).Error("failed to send message")
	}
}

// Command handlers
// ---------------

// HelpHandle displays available commands
func (t *Telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		t.log.WithError(err).Error("failed to get commands")
		t.OnError(err)
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("/%s - %s", command.Text, command.Description))
	}

	t.sendMessage(m.Sender, strings.Join(lines, "\n"))
}

// PriceHandle quotes the latest price of the configured symbol
func (t *Telegram) PriceHandle(m *tb.Message) {
	quote, err := t.feeder.LastQuote(context.Background(), t.settings.Symbol)
	if err != nil {
		t.log.WithError(err).Error("failed to get last quote")
		t.OnError(err)
		return
	}

	t.sendMessage(m.Sender, fmt.Sprintf("*%s*: `%.2f`", t.settings.Symbol, quote))
}

// ThresholdHandle shows the alert threshold, or moves it when the
// command carries a value, e.g. `/threshold 45000`.
func (t *Telegram) ThresholdHandle(m *tb.Message) {
	reply, moved := t.thresholdResponse(m.Text)
	if moved {
		t.log.Info("[TELEGRAM]: THRESHOLD MOVED")
		t.sendMessage(m.Sender, reply, t.defaultMenu)
		return
	}
	t.sendMessage(m.Sender, reply)
}

// thresholdResponse builds the /threshold reply. The current value is
// always read through the owner, never cached here.
func (t *Telegram) thresholdResponse(text string) (reply string, moved bool) {
	match := thresholdRegexp.FindStringSubmatch(text)
	if len(match) == 0 {
		return fmt.Sprintf("Threshold: `%.2f`\nMove it with `/threshold 45000`",
			t.currentThreshold()), false
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil || value <= 0 {
		return "Invalid threshold value", false
	}

	if t.setThreshold != nil {
		t.setThreshold(value)
	}
	return fmt.Sprintf("Threshold moved to `%.2f`", value), true
}

func (t *Telegram) currentThreshold() float64 {
	if t.getThreshold == nil {
		return 0
	}
	return t.getThreshold()
}
