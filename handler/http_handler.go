package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"falproxy/backend"
	"falproxy/config"
	"falproxy/manager"
)

// HTTPHandler validates image-generation requests and relays them to the
// provider with the server-held credential.
type HTTPHandler struct {
	Backend     *backend.Client
	Credential  config.CredentialSource
	Defaults    Defaults
	AllowOrigin string
	// Monitor is optional.
	Monitor *manager.ActivityMonitor
}

// NewHTTPHandler creates a new instance of HTTPHandler from cfg.
func NewHTTPHandler(cfg *config.Config, credential config.CredentialSource, monitor *manager.ActivityMonitor) *HTTPHandler {
	return &HTTPHandler{
		Backend:    backend.NewBackendClient(cfg.Provider.BaseURL, cfg.Provider.Timeout),
		Credential: credential,
		Defaults: Defaults{
			Model:             cfg.Defaults.Model,
			ImageSize:         cfg.Defaults.ImageSize,
			NumInferenceSteps: cfg.Defaults.NumInferenceSteps,
		},
		AllowOrigin: cfg.CORS.AllowOrigin,
		Monitor:     monitor,
	}
}

// ServeHTTP implements the http.Handler interface for HTTPHandler.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	entry := log.WithField("request_id", uuid.NewString())
	h.setCORSHeaders(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		logRequest(entry, r, "", http.StatusNoContent, start)
	case http.MethodPost:
		model, status := h.handlePost(w, r, entry)
		logRequest(entry, r, model, status, start)
	default:
		status := writeJSON(w, http.StatusNotImplemented, ErrorResponse{
			Error: fmt.Sprintf("Unsupported method ('%s')", r.Method),
		})
		logRequest(entry, r, "", status, start)
	}
}

func (h *HTTPHandler) setCORSHeaders(w http.ResponseWriter) {
	setCORSHeaders(w, h.AllowOrigin)
}

func setCORSHeaders(w http.ResponseWriter, origin string) {
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// ConfigErrorHandler stands in for the proxy when it could not be configured.
// It still answers preflights and replies to everything else with a JSON 500.
func ConfigErrorHandler(cause error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := log.WithField("request_id", uuid.NewString())
		setCORSHeaders(w, "")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			logRequest(entry, r, "", http.StatusNoContent, start)
			return
		}
		status := logAndReturnError(w, entry, &Error{
			Kind:    KindUnexpected,
			Status:  http.StatusInternalServerError,
			Message: msgInvalidConfig,
			Err:     cause,
		})
		logRequest(entry, r, "", status, start)
	})
}

// handlePost runs one generation request and returns the model it resolved
// (empty if validation failed first) and the status written.
func (h *HTTPHandler) handlePost(w http.ResponseWriter, r *http.Request, entry *logrus.Entry) (model string, status int) {
	wrote := false
	var done func(status int)
	defer func() {
		if rec := recover(); rec != nil {
			if wrote {
				// Headers may already be on the wire; all that is left is to log it.
				entry.WithField("panic", rec).Errorln("panic after response was started")
				status = http.StatusInternalServerError
			} else {
				status = logAndReturnError(w, entry, errUnexpected(fmt.Errorf("%v", rec)))
			}
		}
		if done != nil {
			done(status)
		}
	}()

	body, err := readBody(r)
	if err != nil {
		wrote = true
		return "", logAndReturnError(w, entry, errInvalidBody(err))
	}

	var req GenerationRequest
	if err := decodeRequest(body, &req); err != nil {
		wrote = true
		return "", logAndReturnError(w, entry, errInvalidBody(err))
	}

	key, err := h.Credential()
	if err != nil || key == "" {
		wrote = true
		return "", logAndReturnError(w, entry, errMissingCredential(err))
	}

	model, payload, err := h.buildProviderRequest(&req)
	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = errUnexpected(err)
		}
		wrote = true
		return model, logAndReturnError(w, entry, e)
	}

	if h.Monitor != nil {
		done = h.Monitor.Begin(model)
	}

	entry.WithField("model", model).Debugln("forwarding to provider")
	resp, err := h.Backend.Generate(r.Context(), model, key, payload)
	if err != nil {
		var encErr *backend.EncodeError
		wrote = true
		if errors.As(err, &encErr) {
			return model, logAndReturnError(w, entry, errUnexpected(encErr.Err))
		}
		return model, logAndReturnError(w, entry, errUnreachable(transportReason(err)))
	}
	defer resp.Body.Close()

	wrote = true
	return model, h.relay(w, entry, resp)
}

// readBody reads exactly the declared Content-Length. A request without one
// has an empty body.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.ContentLength <= 0 {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(r.Body, r.ContentLength))
}

func decodeRequest(body []byte, req *GenerationRequest) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		// Let json report the precise problem for non-objects too.
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return err
		}
		return errors.New("request body is not a JSON object")
	}
	return json.Unmarshal(trimmed, req)
}

// buildProviderRequest applies defaults and validates req.
func (h *HTTPHandler) buildProviderRequest(req *GenerationRequest) (string, *backend.GenerateRequest, error) {
	var prompt string
	if req.Prompt != nil {
		prompt = strings.TrimSpace(*req.Prompt)
	}
	model := h.Defaults.Model
	if req.Model != nil {
		model = strings.TrimSpace(*req.Model)
	}
	if prompt == "" || model == "" {
		return model, nil, errMissingFields()
	}

	imageSize := req.ImageSize
	if isAbsent(imageSize) {
		encoded, err := json.Marshal(h.Defaults.ImageSize)
		if err != nil {
			return model, nil, err
		}
		imageSize = encoded
	}

	steps := h.Defaults.NumInferenceSteps
	if req.NumInferenceSteps != nil {
		steps = *req.NumInferenceSteps
	}

	return model, &backend.GenerateRequest{
		Prompt:              prompt,
		ImageSize:           imageSize,
		NumInferenceSteps:   steps,
		NumImages:           1,
		EnableSafetyChecker: true,
	}, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// relay maps the provider reply onto the client reply.
func (h *HTTPHandler) relay(w http.ResponseWriter, entry *logrus.Entry, resp *http.Response) int {
	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := providerMessage(resp.StatusCode, body, readErr)
		return logAndReturnError(w, entry, errProvider(resp.StatusCode, msg))
	}

	if readErr != nil {
		return logAndReturnError(w, entry, errUnexpected(readErr))
	}
	var probe json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return logAndReturnError(w, entry, errUnexpected(err))
	}
	return writeRaw(w, resp.StatusCode, body)
}

// transportReason strips the method and URL that net/http wraps around a
// delivery failure.
func transportReason(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
