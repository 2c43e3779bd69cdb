package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/RohanKhanal14/lambda-monorepo/internal/dispatch"
	"github.com/RohanKhanal14/lambda-monorepo/internal/github"
	"github.com/RohanKhanal14/lambda-monorepo/internal/storage"
)

// maxBodyBytes caps webhook bodies. GitHub caps payloads at 25 MB; pushes
// of interest are far smaller.
const maxBodyBytes = 25 << 20

// Handler terminates webhook HTTP requests and hands them to the dispatcher.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	store      storage.DeliveryStore
	logger     *slog.Logger
}

// NewHandler builds the handler. store may be nil; /deliveries then reports
// that no journal is configured.
func NewHandler(dispatcher *dispatch.Dispatcher, store storage.DeliveryStore, logger *slog.Logger) *Handler {
	return &Handler{dispatcher: dispatcher, store: store, logger: logger}
}

// HandleWebhook processes one signed webhook delivery.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		AddError(r.Context(), err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unable to read body"})
		return
	}
	if len(body) > maxBodyBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
		return
	}

	del := dispatch.Delivery{
		ID:          r.Header.Get(github.DeliveryHeader),
		Event:       r.Header.Get(github.EventHeader),
		ContentType: r.Header.Get("Content-Type"),
		Signature:   r.Header.Get(github.SignatureHeader),
		Body:        body,
	}
	AddLogField(r.Context(), "delivery", del.ID)
	AddLogField(r.Context(), "github_event", del.Event)

	report, err := h.dispatcher.Dispatch(r.Context(), del)
	if err != nil {
		AddError(r.Context(), err)
		switch {
		case errors.Is(err, dispatch.ErrInvalidSignature):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		case errors.Is(err, dispatch.ErrInvalidPayload):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}

	switch report.Outcome {
	case dispatch.OutcomePong:
		writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
	case dispatch.OutcomeIgnored:
		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("event %s received", report.Event),
		})
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

// HandleHealth is a liveness probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleDeliveries lists recent journal entries, newest first. The limit
// query parameter defaults to 20.
func (h *Handler) HandleDeliveries(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "delivery journal not configured"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	deliveries, err := h.store.ListDeliveries(r.Context(), limit)
	if err != nil {
		AddError(r.Context(), err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list deliveries"})
		return
	}
	if deliveries == nil {
		deliveries = []*storage.Delivery{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"deliveries": deliveries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", slog.String("error", err.Error()))
	}
}
