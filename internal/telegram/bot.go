package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meal-planner/internal/checkout"
	"meal-planner/internal/config"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/stores"
)

// maxMessageLen is Telegram's limit for a single text message.
const maxMessageLen = 4096

// Service is the part of the application the bot talks to.
type Service interface {
	ExportText(ctx context.Context, dr planner.DateRange) (string, error)
	StoreCounts(ctx context.Context, dr planner.DateRange) (map[string]int, error)
	Stores(ctx context.Context) ([]stores.Store, error)
	CheckoutStore(ctx context.Context, storeID string, dr planner.DateRange) (checkout.Session, error)
}

// Sender delivers messages. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot answers grocery and checkout commands over a Telegram webhook.
type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Sender
	svc     Service
	cfg     *config.Config
	started time.Time
	now     func() time.Time
	logger  *slog.Logger
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, svc Service, logger *slog.Logger) (*Bot, error) {
	if cfg.TelegramBotToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized on telegram", "account", api.Self.UserName)

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		logger.Info("webhook set", "description", resp.Description)
	}

	b := newBot(api, svc, cfg, logger)
	b.api = api
	return b, nil
}

func newBot(sender Sender, svc Service, cfg *config.Config, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		sender:  sender,
		svc:     svc,
		cfg:     cfg,
		started: time.Now(),
		now:     time.Now,
		logger:  logger.With("component", "telegram"),
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.Warn("error parsing update", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if update.Message == nil {
		return
	}
	if !b.allowed(update.Message.From) {
		b.logUnauthorized(update.Message.From)
		return
	}

	go func(msg *tgbotapi.Message) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		b.HandleMessage(ctx, msg)
	}(update.Message)
}

func (b *Bot) logUnauthorized(from *tgbotapi.User) {
	if from == nil {
		b.logger.Warn("unauthorized access attempt", "user_id", "unknown")
		return
	}
	b.logger.Warn("unauthorized access attempt", "user_id", from.ID, "username", from.UserName)
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	return b.cfg.TelegramAllowUserID == 0 || from.ID == b.cfg.TelegramAllowUserID
}

// HandleMessage dispatches a single command message.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	switch msg.Command() {
	case "groceries":
		b.handleGroceries(ctx, msg.Chat.ID, args)
	case "stores":
		b.handleStores(ctx, msg.Chat.ID, args)
	case "checkout":
		b.handleCheckout(ctx, msg.Chat.ID, args)
	case "health":
		b.handleHealth(msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

const helpText = `Commands:
/groceries [from] [to] - grocery list for a date range (default: next week)
/stores [from] [to] - stores and item counts
/checkout <storeId> [from] [to] - build an online cart for one store
/health - service health`

// parseArgsRange reads optional YYYY-MM-DD bounds. A single date covers one day.
func parseArgsRange(args []string, now time.Time) (planner.DateRange, error) {
	switch len(args) {
	case 0:
		return planner.WeekOf(now), nil
	case 1:
		return planner.ParseRange(args[0], args[0])
	default:
		return planner.ParseRange(args[0], args[1])
	}
}

func (b *Bot) handleGroceries(ctx context.Context, chatID int64, args []string) {
	dr, err := parseArgsRange(args, b.now())
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	text, err := b.svc.ExportText(ctx, dr)
	if err != nil {
		b.logger.Error("failed to export grocery list", "error", err)
		b.reply(chatID, "❌ Failed to build the grocery list.")
		return
	}
	b.reply(chatID, formatGroceries(dr, text))
}

func formatGroceries(dr planner.DateRange, text string) string {
	header := fmt.Sprintf("🛒 Groceries %s to %s", dr.From.Format(planner.DateLayout), dr.To.Format(planner.DateLayout))
	if strings.TrimSpace(text) == "" {
		return header + "\n\nNothing to buy."
	}
	return header + "\n\n" + text
}

func (b *Bot) handleStores(ctx context.Context, chatID int64, args []string) {
	dr, err := parseArgsRange(args, b.now())
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	known, err := b.svc.Stores(ctx)
	if err != nil {
		b.logger.Error("failed to list stores", "error", err)
		b.reply(chatID, "❌ Failed to list stores.")
		return
	}
	counts, err := b.svc.StoreCounts(ctx, dr)
	if err != nil {
		b.logger.Error("failed to count grocery items", "error", err)
		b.reply(chatID, "❌ Failed to build the grocery list.")
		return
	}
	b.reply(chatID, formatStores(known, counts))
}

func formatStores(known []stores.Store, counts map[string]int) string {
	if len(known) == 0 {
		return "No stores configured."
	}
	var sb strings.Builder
	sb.WriteString("🏪 Stores\n")
	for _, s := range known {
		fmt.Fprintf(&sb, "\n• %s (%s): %d items", s.Name, s.ID, counts[s.ID])
		if s.OnlineOrderingEnabled() {
			sb.WriteString(" · online cart")
		}
	}
	return sb.String()
}

func (b *Bot) handleCheckout(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		b.reply(chatID, "Usage: /checkout <storeId> [from] [to]")
		return
	}
	dr, err := parseArgsRange(args[1:], b.now())
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	session, err := b.svc.CheckoutStore(ctx, args[0], dr)
	if err != nil {
		b.reply(chatID, formatCheckoutError(err))
		if _, ok := checkout.AsError(err); !ok {
			b.logger.Error("checkout failed", "store_id", args[0], "error", err)
		}
		return
	}
	b.reply(chatID, formatSession(session))
}

func formatSession(s checkout.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Cart ready\n%s", s.CheckoutURL)
	if len(s.UnmatchedItems) > 0 {
		sb.WriteString("\n\nNot found:")
		for _, u := range s.UnmatchedItems {
			fmt.Fprintf(&sb, "\n• %s", u.Name)
			if u.Reason != "" {
				fmt.Fprintf(&sb, " (%s)", u.Reason)
			}
		}
	}
	return sb.String()
}

func formatCheckoutError(err error) string {
	ce, ok := checkout.AsError(err)
	if !ok {
		return "❌ Checkout failed."
	}
	if ce.Kind == checkout.KindRateLimited {
		return fmt.Sprintf("⏳ %s", ce.Message)
	}
	return fmt.Sprintf("❌ %s (%s)", ce.Message, ce.Code())
}

func (b *Bot) handleHealth(chatID int64) {
	b.reply(chatID, formatHealth(metrics.GetSysHealth(filepath.Dir(b.cfg.DatabasePath), b.started)))
}

func formatHealth(h metrics.SysHealth) string {
	lines := []string{
		"🧠 System Health",
		fmt.Sprintf("• Uptime: %s", h.Uptime),
		fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)", h.AllocMB, h.SysMB),
		fmt.Sprintf("• Goroutines: %d", h.Goroutines),
		fmt.Sprintf("• Disk Data: %s", h.DataDiskSize),
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) reply(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLen) {
		if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			b.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
			return
		}
	}
}

// splitMessage breaks text into chunks of at most limit bytes, preferring
// line boundaries. Long lines are cut on rune boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var parts []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				parts = append(parts, strings.TrimRight(cur.String(), "\n"))
				cur.Reset()
			}
			cut := runeCut(line, limit)
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			parts = append(parts, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		parts = append(parts, strings.TrimRight(cur.String(), "\n"))
	}
	return parts
}

// runeCut returns the largest offset <= limit that starts a rune.
func runeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}
