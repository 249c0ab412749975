package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/infra/metrics"
)

// Webhook responses are the literal bodies the provider expects.
const (
	webhookBodySuccess = "success"
	webhookBodyFail    = "fail"
)

// handleWebhook processes an inbound provider notification. Deliveries
// are at-least-once and may arrive out of order relative to the
// checkout response; the completion path is idempotent.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithDeliveryID(r.Context(), ulid.Make().String())
	l := logging.With(ctx, s.log)

	fields, err := notificationFields(r)
	if err != nil {
		l.Warn().Err(err).Msg("malformed notification")
		metrics.IncWebhook("rejected")
		respondWebhook(w, http.StatusBadRequest, webhookBodyFail)
		return
	}

	if !s.gateway.VerifyNotification(fields) {
		l.Warn().Str("order_no", fields["order_no"]).Msg("notification signature rejected")
		metrics.IncWebhook("rejected")
		respondWebhook(w, http.StatusBadRequest, webhookBodyFail)
		return
	}

	if !s.gateway.NotificationSucceeded(fields) {
		// Verified but not a success signal; acknowledge without side
		// effects so the provider stops retrying.
		l.Info().Str("order_no", fields["order_no"]).Msg("non-success notification acknowledged")
		metrics.IncWebhook("ignored")
		respondWebhook(w, http.StatusOK, webhookBodySuccess)
		return
	}

	id := model.CanonicalTransactionID(fields["order_no"])
	t, err := s.transactions.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.Warn().Str("order_no", fields["order_no"]).Msg("notification for unknown transaction")
			metrics.IncWebhook("unmatched")
			respondWebhook(w, http.StatusNotFound, webhookBodyFail)
			return
		}
		l.Error().Err(err).Msg("transaction lookup failed")
		respondWebhook(w, http.StatusInternalServerError, webhookBodyFail)
		return
	}

	payload, _ := json.Marshal(fields)
	if err := s.transactions.SetProviderPayload(ctx, repository.NoTX, t.ID, string(payload)); err != nil {
		l.Error().Err(err).Str("transaction_id", t.ID).Msg("failed to persist provider payload")
		respondWebhook(w, http.StatusInternalServerError, webhookBodyFail)
		return
	}

	// Best-effort serialization of duplicate deliveries; the DB guards
	// stay authoritative if the lock is unavailable.
	if s.locker != nil {
		if token, err := s.locker.TryLock(ctx, "webhook:"+t.ID, 30*time.Second); err == nil {
			defer func() { _ = s.locker.Unlock(ctx, "webhook:"+t.ID, token) }()
		}
	}

	if err := s.entitlements.Complete(ctx, t.ID); err != nil {
		l.Error().Err(err).Str("transaction_id", t.ID).Msg("completion failed")
		respondWebhook(w, http.StatusInternalServerError, webhookBodyFail)
		return
	}

	l.Info().Str("transaction_id", t.ID).Msg("notification accepted")
	metrics.IncWebhook("accepted")
	respondWebhook(w, http.StatusOK, webhookBodySuccess)
}

// notificationFields flattens the notification into string fields.
// Providers deliver via query parameters (GET), form bodies, or JSON
// bodies; JSON booleans and numbers are normalized to their canonical
// string forms so the rule table sees one representation.
func notificationFields(r *http.Request) (map[string]string, error) {
	fields := make(map[string]string)

	if r.Method == http.MethodPost && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var raw map[string]interface{}
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			fields[k] = canonicalString(v)
		}
		// query parameters may still carry fields alongside a JSON body
		for k, vs := range r.URL.Query() {
			if _, ok := fields[k]; !ok && len(vs) > 0 {
				fields[k] = vs[0]
			}
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k, vs := range r.Form {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	return fields, nil
}

func canonicalString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func respondWebhook(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
