package api

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/infra/logging"
	"photo-market/internal/usecase"
)

func (s *Server) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	if s.payments == nil || !s.payments.Enabled() {
		s.writeDomainError(w, r, domain.ErrGatewayUnavailable)
		return
	}
	user, err := s.currentUser(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	var req struct {
		Type model.PaymentType `json:"type"`
		AdID string            `json:"ad_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, payURL, err := s.payments.Initiate(r.Context(), user.ID, req.Type, req.AdID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"payment": p, "payment_url": payURL})
}

func (s *Server) handleMyPayments(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	ps, err := s.payments.ListByUser(r.Context(), user.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody[*model.Payment]{Items: nonNil(ps), Total: len(ps)})
}

func (s *Server) handlePaymentStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.payments.Stats(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handlePaymentCallback is where the gateway redirects the buyer's browser.
// Status=OK is verified at the provider; anything else fails the payment.
func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()
	l := logging.With(ctx, s.log)

	q := r.URL.Query()
	authority := q.Get("Authority")
	status := q.Get("Status")
	if authority == "" {
		s.renderResult(w, http.StatusBadRequest, false, "شناسه پرداخت ارسال نشده است.")
		return
	}

	if status != "OK" {
		if _, err := s.payments.Fail(ctx, authority); err != nil {
			l.Warn().Err(err).Str("authority", authority).Msg("failed to mark payment failed")
		}
		s.renderResult(w, http.StatusOK, false, "پرداخت لغو شد یا ناموفق بود.")
		return
	}

	p, err := s.payments.Confirm(ctx, authority)
	switch {
	case err == nil:
		l.Info().Str("payment_id", p.ID).Str("type", string(p.Type)).Msg("payment confirmed from callback")
		s.renderResult(w, http.StatusOK, true, "پرداخت با موفقیت انجام شد: "+p.Type.Label())
	case usecase.IsVerifyFailure(err):
		s.renderResult(w, http.StatusBadRequest, false, "تایید پرداخت ناموفق بود. در صورت کسر وجه، مبلغ طی ۷۲ ساعت بازمی‌گردد.")
	default:
		l.Error().Err(err).Str("authority", authority).Msg("payment confirmation failed")
		s.renderResult(w, http.StatusBadRequest, false, "خطا در تایید پرداخت.")
	}
}

var resultPage = template.Must(template.New("cb").Parse(`<!doctype html>
<html lang="fa" dir="rtl">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>نتیجه پرداخت</title>
<style>
body{font-family:Vazirmatn,Tahoma,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
.btn{display:inline-block;margin-top:16px;padding:10px 16px;border-radius:8px;border:1px solid #888;text-decoration:none}
</style>
</head>
<body>
<div class="card">
  <h2 class="{{if .OK}}ok{{else}}fail{{end}}">{{if .OK}}✅ پرداخت موفق{{else}}⚠️ پرداخت ناموفق{{end}}</h2>
  <p>{{.Msg}}</p>
  {{if .BotUsername}}
    <a class="btn" href="https://t.me/{{.BotUsername}}">بازگشت به ربات</a>
  {{end}}
</div>
</body>
</html>`))

func (s *Server) renderResult(w http.ResponseWriter, code int, ok bool, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = resultPage.Execute(w, struct {
		OK          bool
		Msg         string
		BotUsername string
	}{OK: ok, Msg: msg, BotUsername: s.botUsername})
}
