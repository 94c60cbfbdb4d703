package checkout

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "meal-planner.checkout"

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 1 << 20

// CartRequest is what gets sent to the provider.
type CartRequest struct {
	StoreID string `json:"storeId"`
	Items   []Item `json:"items"`
}

// Provider builds carts with an external retailer.
type Provider interface {
	CreateCart(ctx context.Context, req CartRequest) (ParsedSession, error)
}

// HTTPProvider talks to the provider's HTTP endpoint.
type HTTPProvider struct {
	url        string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	tracer     trace.Tracer
	now        func() time.Time
}

// NewHTTPProvider creates an HTTPProvider. An empty url or apiKey leaves it
// unconfigured; every call then fails with KindProviderNotConfigured.
func NewHTTPProvider(url, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		url:        strings.TrimSpace(url),
		apiKey:     strings.TrimSpace(apiKey),
		timeout:    timeout,
		httpClient: &http.Client{},
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
}

// WithTracerProvider records provider spans on tp instead of the global provider.
func (p *HTTPProvider) WithTracerProvider(tp trace.TracerProvider) *HTTPProvider {
	p.tracer = tp.Tracer(tracerName)
	return p
}

// Configured reports whether an endpoint and key are set.
func (p *HTTPProvider) Configured() bool {
	return p.url != "" && p.apiKey != ""
}

// CreateCart posts the cart and validates the response.
func (p *HTTPProvider) CreateCart(ctx context.Context, cart CartRequest) (ParsedSession, error) {
	if !p.Configured() {
		return ParsedSession{}, newError(KindProviderNotConfigured, "Online checkout is not configured on this server.", nil)
	}

	ctx, span := p.tracer.Start(ctx, "checkout.CreateCart",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("checkout.provider_store_id", cart.StoreID),
			attribute.Int("checkout.item_count", len(cart.Items)),
		),
	)
	defer span.End()

	session, err := p.createCart(ctx, cart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ParsedSession{}, err
	}
	span.SetAttributes(attribute.Int("checkout.unmatched_count", len(session.UnmatchedItems)))
	return session, nil
}

func (p *HTTPProvider) createCart(ctx context.Context, cart CartRequest) (ParsedSession, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	body, err := json.Marshal(cart)
	if err != nil {
		return ParsedSession{}, fmt.Errorf("failed to marshal cart request: %w", err)
	}

	auth, err := p.authorization()
	if err != nil {
		return ParsedSession{}, newError(KindProviderNotConfigured, "Online checkout credentials are invalid.", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return ParsedSession{}, newError(KindProviderNotConfigured, "Online checkout endpoint is invalid.", err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		msg := "Checkout provider is unreachable."
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "Checkout provider timed out."
		}
		return ParsedSession{}, newError(KindProviderUnavailable, msg, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ParsedSession{}, newError(KindProviderUnavailable, "Failed to read checkout provider response.", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := providerMessage(raw)
		if msg == "" {
			msg = fmt.Sprintf("Checkout provider returned status %d.", resp.StatusCode)
		}
		return ParsedSession{}, newError(KindProviderError, msg, fmt.Errorf("provider status %d", resp.StatusCode))
	}

	switch res := ParseSessionResponse(raw).(type) {
	case ParsedSession:
		return res, nil
	case RejectedResponse:
		return ParsedSession{}, newError(KindInvalidProviderResponse, "Checkout provider returned an invalid response.", errors.New(res.Reason))
	default:
		return ParsedSession{}, newError(KindInvalidProviderResponse, "Checkout provider returned an invalid response.", nil)
	}
}

// authorization builds the Authorization header. Keys shaped like
// "id:hexsecret" sign a short-lived HS256 token; others are sent as bearer tokens.
func (p *HTTPProvider) authorization() (string, error) {
	id, secretHex, ok := strings.Cut(p.apiKey, ":")
	if !ok {
		return "Bearer " + p.apiKey, nil
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
		"aud": "checkout",
	})
	token.Header["kid"] = id

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign provider token: %w", err)
	}
	return "Bearer " + signed, nil
}
