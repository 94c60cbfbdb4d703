package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meal-planner/internal/checkout"
	"meal-planner/internal/config"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/stores"
)

type recordingSender struct {
	sent []string
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		r.sent = append(r.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

type fakeService struct {
	lastRange planner.DateRange
	lastStore string
	text      string
	session   checkout.Session
	err       error
}

func (f *fakeService) ExportText(_ context.Context, dr planner.DateRange) (string, error) {
	f.lastRange = dr
	return f.text, f.err
}

func (f *fakeService) StoreCounts(_ context.Context, dr planner.DateRange) (map[string]int, error) {
	f.lastRange = dr
	return map[string]int{"sprouts": 3}, f.err
}

func (f *fakeService) Stores(context.Context) ([]stores.Store, error) {
	return []stores.Store{
		{ID: "sprouts", Name: "Sprouts", Ordering: stores.Enabled{Provider: stores.ProviderInstacart, ProviderStoreID: "sp-1"}},
		{ID: "costco", Name: "Costco", Ordering: stores.Disabled{}},
	}, nil
}

func (f *fakeService) CheckoutStore(_ context.Context, storeID string, dr planner.DateRange) (checkout.Session, error) {
	f.lastStore, f.lastRange = storeID, dr
	return f.session, f.err
}

func command(text string) *tgbotapi.Message {
	name := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 42},
		From:     &tgbotapi.User{ID: 7},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func newTestBot(svc Service) (*Bot, *recordingSender) {
	sender := &recordingSender{}
	b := newBot(sender, svc, &config.Config{DatabasePath: "data/test.db", TelegramAllowUserID: 7}, nil)
	b.now = func() time.Time { return time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC) }
	return b, sender
}

func TestHandleMessage_Groceries(t *testing.T) {
	svc := &fakeService{text: "Sprouts\n- 1 gal Milk"}
	b, sender := newTestBot(svc)

	b.HandleMessage(context.Background(), command("/groceries"))

	if got := svc.lastRange.From.Format(planner.DateLayout); got != "2025-03-10" {
		t.Errorf("Expected default range to start next Monday, got %s", got)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(sender.sent))
	}
	if !strings.HasPrefix(sender.sent[0], "🛒 Groceries 2025-03-10 to 2025-03-16") {
		t.Errorf("Unexpected header: %q", sender.sent[0])
	}
	if !strings.Contains(sender.sent[0], "- 1 gal Milk") {
		t.Errorf("Expected list body in message, got %q", sender.sent[0])
	}

	b.HandleMessage(context.Background(), command("/groceries 2025-03-03 2025-03-04"))
	if got := svc.lastRange.To.Format(planner.DateLayout); got != "2025-03-04" {
		t.Errorf("Expected explicit range end 2025-03-04, got %s", got)
	}

	b.HandleMessage(context.Background(), command("/groceries tomorrow"))
	if last := sender.sent[len(sender.sent)-1]; !strings.HasPrefix(last, "❌") {
		t.Errorf("Expected an error reply for a bad date, got %q", last)
	}
}

func TestHandleMessage_Checkout(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &fakeService{session: checkout.Session{
			CheckoutURL:    "https://provider.example/cart/1",
			UnmatchedItems: []checkout.UnmatchedItem{{Name: "saffron", Reason: "not carried"}},
		}}
		b, sender := newTestBot(svc)
		b.HandleMessage(context.Background(), command("/checkout sprouts"))

		if svc.lastStore != "sprouts" {
			t.Errorf("Expected store sprouts, got %q", svc.lastStore)
		}
		msg := sender.sent[0]
		if !strings.Contains(msg, "https://provider.example/cart/1") {
			t.Errorf("Expected checkout url in reply, got %q", msg)
		}
		if !strings.Contains(msg, "• saffron (not carried)") {
			t.Errorf("Expected unmatched item in reply, got %q", msg)
		}
	})

	t.Run("MissingStore", func(t *testing.T) {
		b, sender := newTestBot(&fakeService{})
		b.HandleMessage(context.Background(), command("/checkout"))
		if !strings.HasPrefix(sender.sent[0], "Usage:") {
			t.Errorf("Expected usage reply, got %q", sender.sent[0])
		}
	})

	t.Run("TypedError", func(t *testing.T) {
		svc := &fakeService{err: &checkout.Error{Kind: checkout.KindUnsupportedStore, Message: "This store does not support online ordering."}}
		b, sender := newTestBot(svc)
		b.HandleMessage(context.Background(), command("/checkout costco"))
		want := "❌ This store does not support online ordering. (UNSUPPORTED_STORE)"
		if sender.sent[0] != want {
			t.Errorf("Expected %q, got %q", want, sender.sent[0])
		}
	})

	t.Run("UntypedError", func(t *testing.T) {
		b, sender := newTestBot(&fakeService{err: errors.New("disk on fire")})
		b.HandleMessage(context.Background(), command("/checkout costco"))
		if sender.sent[0] != "❌ Checkout failed." {
			t.Errorf("Expected generic failure, got %q", sender.sent[0])
		}
	})
}

func TestHandleMessage_Unknown(t *testing.T) {
	b, sender := newTestBot(&fakeService{})
	b.HandleMessage(context.Background(), command("/start"))
	if sender.sent[0] != helpText {
		t.Errorf("Expected help text, got %q", sender.sent[0])
	}
}

func TestFormatStores(t *testing.T) {
	svc := &fakeService{}
	known, _ := svc.Stores(context.Background())
	got := formatStores(known, map[string]int{"sprouts": 3})

	if !strings.Contains(got, "• Sprouts (sprouts): 3 items · online cart") {
		t.Errorf("Expected sprouts line with online marker, got %q", got)
	}
	if !strings.Contains(got, "• Costco (costco): 0 items") || strings.Contains(got, "Costco (costco): 0 items · online") {
		t.Errorf("Expected costco line without online marker, got %q", got)
	}
	if formatStores(nil, nil) != "No stores configured." {
		t.Error("Expected empty store message")
	}
}

func TestFormatGroceries_Empty(t *testing.T) {
	dr, _ := planner.ParseRange("2025-03-03", "2025-03-09")
	if got := formatGroceries(dr, "  "); !strings.HasSuffix(got, "Nothing to buy.") {
		t.Errorf("Expected empty list message, got %q", got)
	}
}

func TestFormatCheckoutError_RateLimited(t *testing.T) {
	got := formatCheckoutError(checkout.ErrRateLimited(3 * time.Second))
	if !strings.HasPrefix(got, "⏳") {
		t.Errorf("Expected rate limit marker, got %q", got)
	}
}

func TestFormatHealth(t *testing.T) {
	got := formatHealth(metrics.SysHealth{Uptime: "1h0m0s", AllocMB: 12, SysMB: 30, Goroutines: 8, DataDiskSize: "1.0 MB"})
	for _, want := range []string{"Uptime: 1h0m0s", "RAM: 12MB (Alloc) / 30MB (Sys)", "Goroutines: 8", "Disk Data: 1.0 MB"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in health report, got %q", want, got)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	if parts := splitMessage("short", 100); len(parts) != 1 || parts[0] != "short" {
		t.Errorf("Expected a single part, got %v", parts)
	}

	text := strings.Repeat("line of text\n", 10)
	parts := splitMessage(text, 30)
	if len(parts) < 2 {
		t.Fatalf("Expected multiple parts, got %d", len(parts))
	}
	for _, p := range parts {
		if len(p) > 30 {
			t.Errorf("Part exceeds limit: %d bytes", len(p))
		}
	}
	if strings.Join(parts, "\n") != strings.TrimRight(text, "\n") {
		t.Error("Expected parts to reassemble into the original text")
	}

	long := strings.Repeat("x", 70)
	parts = splitMessage(long, 30)
	if len(parts) != 3 || parts[2] != strings.Repeat("x", 10) {
		t.Errorf("Expected a long line to be hard-split, got %v", parts)
	}
}

func TestSplitMessage_KeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("é", 20) + "🛒🛒🛒"
	parts := splitMessage(text, 7)
	for _, p := range parts {
		if !utf8.ValidString(p) {
			t.Errorf("Part is not valid UTF-8: %q", p)
		}
		if len(p) > 7 {
			t.Errorf("Part exceeds limit: %d bytes", len(p))
		}
	}
	if strings.Join(parts, "") != text {
		t.Error("Expected parts to reassemble into the original text")
	}
}

func TestLogUnauthorized_NilSender(t *testing.T) {
	b, _ := newTestBot(&fakeService{})
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Expected no panic for a message without a sender, got %v", r)
		}
	}()
	b.logUnauthorized(nil)
	b.logUnauthorized(&tgbotapi.User{ID: 8, UserName: "stranger"})
}

func TestAllowed(t *testing.T) {
	b, _ := newTestBot(&fakeService{})
	if !b.allowed(&tgbotapi.User{ID: 7}) {
		t.Error("Expected configured user to be allowed")
	}
	if b.allowed(&tgbotapi.User{ID: 8}) {
		t.Error("Expected other users to be rejected")
	}
	if b.allowed(nil) {
		t.Error("Expected a missing sender to be rejected")
	}
}
