package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"photo-market/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*ZarinPalGateway)(nil)

const (
	zarinpalAPI             = "https://api.zarinpal.com/pg/v4"
	zarinpalSandboxAPI      = "https://sandbox.zarinpal.com/pg/v4"
	zarinpalStartPay        = "https://www.zarinpal.com/pg/StartPay/"
	zarinpalSandboxStartPay = "https://sandbox.zarinpal.com/pg/StartPay/"
)

// ZarinPal result codes: 100 is success, 101 means the payment was already verified.
const (
	codeOK              = 100
	codeAlreadyVerified = 101
)

// ZarinPalGateway implements adapter.PaymentGateway using the REST v4 request/verify API.
type ZarinPalGateway struct {
	merchantID string
	callback   string
	apiBase    string
	startPay   string
	client     *http.Client
}

func NewZarinPalGateway(merchantID, callbackURL string, sandbox bool) (*ZarinPalGateway, error) {
	if merchantID == "" {
		return nil, errors.New("merchant id empty")
	}
	if _, err := url.Parse(callbackURL); err != nil {
		return nil, fmt.Errorf("invalid callback url: %w", err)
	}
	gw := &ZarinPalGateway{
		merchantID: merchantID,
		callback:   callbackURL,
		apiBase:    zarinpalAPI,
		startPay:   zarinpalStartPay,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
	if sandbox {
		gw.apiBase = zarinpalSandboxAPI
		gw.startPay = zarinpalSandboxStartPay
	}
	return gw, nil
}

func (z *ZarinPalGateway) Name() string { return "zarinpal" }

type zarinpalError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// errors is an empty array on success and an object on failure.
func decodeErrors(raw json.RawMessage) error {
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var e zarinpalError
	if err := json.Unmarshal(raw, &e); err != nil || e.Code == 0 {
		return nil
	}
	return fmt.Errorf("zarinpal error %d: %s", e.Code, e.Message)
}

func (z *ZarinPalGateway) post(ctx context.Context, path string, payload, out interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.apiBase+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := z.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// RequestPayment calls /payment/request.json and returns (authority, payURL).
func (z *ZarinPalGateway) RequestPayment(ctx context.Context, amountIRR int64, description, callbackURL string, meta map[string]interface{}) (string, string, error) {
	if callbackURL == "" {
		callbackURL = z.callback
	}
	payload := map[string]any{
		"merchant_id":  z.merchantID,
		"amount":       amountIRR,
		"description":  description,
		"callback_url": callbackURL,
	}
	if meta != nil {
		payload["metadata"] = meta
	}
	var out struct {
		Data struct {
			Authority string `json:"authority"`
			Code      int    `json:"code"`
		} `json:"data"`
		Errors json.RawMessage `json:"errors"`
	}
	if err := z.post(ctx, "/payment/request.json", payload, &out); err != nil {
		return "", "", err
	}
	if err := decodeErrors(out.Errors); err != nil {
		return "", "", err
	}
	if out.Data.Code != codeOK || out.Data.Authority == "" {
		return "", "", fmt.Errorf("zarinpal request failed with code %d", out.Data.Code)
	}
	return out.Data.Authority, z.startPay + out.Data.Authority, nil
}

// VerifyPayment calls /payment/verify.json and returns the provider ref id.
func (z *ZarinPalGateway) VerifyPayment(ctx context.Context, authority string, expectedAmount int64) (string, error) {
	payload := map[string]any{
		"merchant_id": z.merchantID,
		"amount":      expectedAmount,
		"authority":   authority,
	}
	var out struct {
		Data struct {
			Code  int   `json:"code"`
			RefID int64 `json:"ref_id"`
		} `json:"data"`
		Errors json.RawMessage `json:"errors"`
	}
	if err := z.post(ctx, "/payment/verify.json", payload, &out); err != nil {
		return "", err
	}
	if err := decodeErrors(out.Errors); err != nil {
		return "", err
	}
	if (out.Data.Code != codeOK && out.Data.Code != codeAlreadyVerified) || out.Data.RefID == 0 {
		return "", fmt.Errorf("zarinpal verify failed with code %d", out.Data.Code)
	}
	return strconv.FormatInt(out.Data.RefID, 10), nil
}
