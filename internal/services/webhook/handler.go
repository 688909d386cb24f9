package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"bytebowl/internal/logger"
	"bytebowl/internal/models"
	"bytebowl/internal/services/ledger"
)

// Handler handles HTTP requests for the webhook service
type Handler struct {
	service *Service
	timeout time.Duration
	logger  *logger.Logger
}

// NewHandler creates a new webhook handler. The timeout bounds total
// processing per request; the NLU platform itself gives up after a few
// seconds, so a late answer is as bad as no answer.
func NewHandler(service *Service, log *logger.Logger, timeout time.Duration) *Handler {
	return &Handler{
		service: service,
		timeout: timeout,
		logger:  log,
	}
}

// webhookRequest mirrors the slice of the NLU platform payload this
// backend reads; unknown fields are ignored.
type webhookRequest struct {
	QueryResult struct {
		Intent struct {
			DisplayName string `json:"displayName"`
		} `json:"intent"`
		Parameters     models.Parameters `json:"parameters"`
		OutputContexts []outputContext   `json:"outputContexts"`
	} `json:"queryResult"`
}

type outputContext struct {
	Name string `json:"name"`
}

type webhookResponse struct {
	FulfillmentText string `json:"fulfillmentText"`
}

var sessionPattern = regexp.MustCompile(`/sessions/(.*?)/contexts/`)

// extractSessionID pulls the session identifier out of an output
// context resource name; empty when the name has no session segment.
func extractSessionID(contextName string) string {
	matches := sessionPattern.FindStringSubmatch(contextName)
	if len(matches) == 2 {
		return matches[1]
	}
	return ""
}

// HandleWebhook handles POST /webhook requests
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", requestID)
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse webhook payload", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	displayName := req.QueryResult.Intent.DisplayName
	intent := models.ParseIntent(displayName)

	sessionID := "default"
	if len(req.QueryResult.OutputContexts) > 0 {
		if extracted := extractSessionID(req.QueryResult.OutputContexts[0].Name); extracted != "" {
			sessionID = extracted
		}
	}

	h.logger.Debug("intent_received", "Received webhook intent", requestID, map[string]interface{}{
		"intent":     intent.String(),
		"session_id": sessionID,
	})

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	text := h.dispatch(ctx, intent, displayName, sessionID, req.QueryResult.Parameters, requestID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(webhookResponse{FulfillmentText: text}); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", requestID, err, nil)
	}
}

// dispatch routes a parsed intent to its cart operation and renders
// the user-facing reply. All intents answer HTTP 200; failures are
// reported in the fulfillment text, never as transport errors.
func (h *Handler) dispatch(ctx context.Context, intent models.Intent, displayName, sessionID string, params models.Parameters, requestID string) string {
	switch intent {
	case models.IntentNewOrder:
		if err := h.service.NewOrder(ctx, sessionID); err != nil {
			return h.failureText(err, requestID, sessionID)
		}
		return msgNewOrder

	case models.IntentAddItems:
		items, err := models.ZipItems(params.FoodItems, params.Quantities())
		if err != nil {
			return msgClarifyItems
		}
		result, err := h.service.AddItems(ctx, sessionID, items, requestID)
		if err != nil {
			return h.failureText(err, requestID, sessionID)
		}
		return renderAdd(result)

	case models.IntentRemoveItems:
		items, err := models.RemovalItems(params.FoodItems, params.Quantities())
		if err != nil {
			return msgClarifyItems
		}
		result, err := h.service.RemoveItems(ctx, sessionID, items, requestID)
		if err != nil {
			return h.failureText(err, requestID, sessionID)
		}
		return renderRemove(result)

	case models.IntentCompleteOrder:
		result, err := h.service.CompleteOrder(ctx, sessionID, requestID)
		if err != nil {
			switch {
			case errors.Is(err, ledger.ErrEmptyCart):
				return msgNoOrderFound
			case errors.Is(err, ledger.ErrNoValidItems):
				return msgNoValidItems
			default:
				return h.failureText(err, requestID, sessionID)
			}
		}
		return renderComplete(result)

	case models.IntentTrackOrder:
		orderID, ok := params.TrackedOrderID()
		if !ok {
			return msgInvalidOrderID
		}
		result, err := h.service.TrackOrder(ctx, orderID)
		if err != nil {
			return h.failureText(err, requestID, sessionID)
		}
		return renderTrack(result)

	default:
		return fmt.Sprintf("Sorry, I don't know how to handle the intent '%s' yet.", displayName)
	}
}

// failureText maps operational errors to a user-visible reply
func (h *Handler) failureText(err error, requestID, sessionID string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.Error("request_timeout", "Webhook processing timed out", requestID, err, map[string]interface{}{
			"session_id": sessionID,
		})
		return msgTimeout
	}

	h.logger.Error("operation_failed", "Webhook operation failed", requestID, err, map[string]interface{}{
		"session_id": sessionID,
	})
	return msgBackendError
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := h.service.HealthCheck(ctx)

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "webhook-service",
		"healthy":   healthy,
	}

	w.Header().Set("Content-Type", "application/json")

	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		response["status"] = "unhealthy"
	}

	json.NewEncoder(w).Encode(response)
}

// Root handles GET / requests
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "ByteBowl webhook backend is running!",
	})
}

// writeErrorResponse writes an error response in JSON format
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// SetupRoutes sets up the HTTP routes
func (h *Handler) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", h.withLogging(h.Root))
	mux.HandleFunc("/webhook", h.withLogging(h.HandleWebhook))
	mux.HandleFunc("/health", h.withLogging(h.HealthCheck))

	return mux
}

// withLogging adds request logging middleware
func (h *Handler) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}

		next(rw, r)

		duration := time.Since(start)
		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": duration.Milliseconds(),
			})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
