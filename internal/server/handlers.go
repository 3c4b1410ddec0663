package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"pushhook/internal/deployment"

	"github.com/google/go-github/v57/github"
	"github.com/google/uuid"
)

const (
	MaxPayloadBytes = 1_000_000 // 1 MB

	// EventPush is the only event type that triggers a deployment.
	EventPush = "push"
)

// Fixed response bodies. Rejections never say more than this.
var (
	detailUnsupportedMedia = map[string]string{"detail": "Unsupported media type"}
	detailTooLarge         = map[string]string{"detail": "Payload too large"}
	detailInvalidSignature = map[string]string{"detail": "Invalid signature"}
	detailInvalidJSON      = map[string]string{"detail": "Invalid JSON payload"}
	detailReadFailed       = map[string]string{"detail": "Failed to read payload"}

	statusQueued = map[string]string{"status": "queued"}
	statusOK     = map[string]string{"status": "ok"}
)

// HandleWebhook handles GitHub webhook requests
func (s *Server) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	// Check content type before touching the body
	if r.Header.Get("Content-Type") != "application/json" {
		s.respondJSON(w, http.StatusUnsupportedMediaType, detailUnsupportedMedia)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondJSON(w, http.StatusRequestEntityTooLarge, detailTooLarge)
			return
		}
		s.Logger.Error("Failed to read request body", "error", err)
		s.respondJSON(w, http.StatusBadRequest, detailReadFailed)
		return
	}

	// Verify signature over the raw bytes; the secret is fetched per request
	signature := r.Header.Get(SignatureHeader)
	secret := s.Secret()
	if len(secret) == 0 {
		s.Logger.Error("Webhook secret is not configured, rejecting request")
	}
	if signature == "" || !VerifySignature(secret, body, signature) {
		s.Logger.Warn("Rejected webhook with invalid signature",
			"event", github.WebHookType(r), "remote_addr", r.RemoteAddr)
		s.respondJSON(w, http.StatusBadRequest, detailInvalidSignature)
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		s.respondJSON(w, http.StatusBadRequest, detailInvalidJSON)
		return
	}

	event := github.WebHookType(r)
	deliveryID := github.DeliveryID(r)
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	if event != EventPush {
		s.Logger.Info("Ignoring non-push event", "event", event, "delivery", deliveryID)
		s.respondJSON(w, http.StatusOK, statusOK)
		return
	}

	trigger := newTrigger(deliveryID, body)
	s.Logger.Info("Push received",
		"delivery", deliveryID,
		"ref", trigger.Ref,
		"after", trigger.After,
		"repository", trigger.Repository,
		"pusher", trigger.Pusher)

	s.Dispatcher.Submit(trigger)

	s.respondJSON(w, http.StatusOK, statusQueued)
}

// newTrigger extracts push details for logging and status reporting. A body
// that does not look like a push payload still yields a usable trigger.
func newTrigger(deliveryID string, body []byte) deployment.Trigger {
	t := deployment.Trigger{
		DeliveryID: deliveryID,
		ReceivedAt: time.Now(),
	}

	parsed, err := github.ParseWebHook(EventPush, body)
	if err != nil {
		return t
	}
	push, ok := parsed.(*github.PushEvent)
	if !ok {
		return t
	}

	t.Ref = push.GetRef()
	t.Before = push.GetBefore()
	t.After = push.GetAfter()
	t.Repository = push.GetRepo().GetFullName()
	t.Pusher = push.GetPusher().GetName()
	return t
}

// HandleHealth returns health status
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, statusOK)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Logger.Error("Failed to encode JSON response", "error", err)
	}
}
