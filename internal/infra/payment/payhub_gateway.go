package payment

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.PaymentGateway = (*PayHubGateway)(nil)

// PayHubGateway implements the provider wire protocol over direct HTTP
// calls: URL-encoded, signed order creation and signature verification
// of inbound notifications.
type PayHubGateway struct {
	merchantID string
	secretKey  string
	apiURL     string
	notifyURL  string
	returnURL  string
	client     *http.Client
}

func NewPayHubGateway(merchantID, secretKey, apiURL, notifyURL, returnURL string, timeout time.Duration) *PayHubGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PayHubGateway{
		merchantID: merchantID,
		secretKey:  secretKey,
		apiURL:     apiURL,
		notifyURL:  notifyURL,
		returnURL:  returnURL,
		client:     &http.Client{Timeout: timeout},
	}
}

func (g *PayHubGateway) Name() string { return "payhub" }

// createOrderResponse is the provider's order creation envelope.
type createOrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		ID     string `json:"id"`
		PayURL string `json:"pay_url"`
	} `json:"data"`
}

// CreateOrder posts a signed order creation request. The sign covers
// merchant_id ++ order_no ++ amount ++ notify_url ++ secret_key with no
// delimiters.
func (g *PayHubGateway) CreateOrder(ctx context.Context, orderNo string, amount int64, payType, subject string) (*adapter.PaymentOrder, error) {
	if g.merchantID == "" || g.secretKey == "" {
		return nil, domain.ErrGatewayNotConfigured
	}

	amountStr := strconv.FormatInt(amount, 10)
	form := url.Values{}
	form.Set("merchant_id", g.merchantID)
	form.Set("order_no", orderNo)
	form.Set("amount", amountStr)
	form.Set("notify_url", g.notifyURL)
	form.Set("return_url", g.returnURL)
	form.Set("pay_type", payType)
	form.Set("subject", subject)
	form.Set("sign", signHex(g.merchantID+orderNo+amountStr+g.notifyURL+g.secretKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("payhub error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var response createOrderResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}
	if !response.Success {
		return nil, fmt.Errorf("payhub rejected order: %s", response.Message)
	}
	if response.Data.PayURL == "" {
		return nil, fmt.Errorf("payhub response missing pay_url, body: %s", string(body))
	}

	return &adapter.PaymentOrder{ProviderID: response.Data.ID, PayURL: response.Data.PayURL}, nil
}

// VerifyNotification recomputes the inbound sign over
// state ++ merchant_id ++ order_no ++ amount ++ secret_key and requires
// byte-exact equality plus a merchant identity match. Anything missing
// or malformed is false; absence of proof is proof of invalidity.
func (g *PayHubGateway) VerifyNotification(fields map[string]string) bool {
	if g.merchantID == "" || g.secretKey == "" {
		return false
	}
	merchant := fields["merchant_id"]
	orderNo := fields["order_no"]
	amount := fields["amount"]
	state := fields["state"]
	sign := fields["sign"]
	if merchant == "" || orderNo == "" || amount == "" || state == "" || sign == "" {
		return false
	}
	if merchant != g.merchantID {
		return false
	}
	expected := signHex(state + merchant + orderNo + amount + g.secretKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(sign)) == 1
}

// successRule maps one provider field to the values that indicate a
// successful payment. Rules are evaluated in order until one matches so
// provider quirks can be appended without touching control flow.
type successRule struct {
	field  string
	values []string
}

var successRules = []successRule{
	{field: "success", values: []string{"true"}},
	{field: "code", values: []string{"1"}},
	{field: "trade_status", values: []string{"TRADE_SUCCESS"}},
	{field: "state", values: []string{"1", "2"}},
}

// NotificationSucceeded reports whether any known success indicator
// matches. No match means non-success, not definite failure: the
// provider may later say success differently.
func (g *PayHubGateway) NotificationSucceeded(fields map[string]string) bool {
	for _, rule := range successRules {
		v, ok := fields[rule.field]
		if !ok || v == "" {
			continue
		}
		for _, want := range rule.values {
			if v == want {
				return true
			}
		}
	}
	return false
}

func signHex(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
