package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

func logRequest(entry *logrus.Entry, req *http.Request, model string, status int, start time.Time) {
	if model != "" {
		entry = entry.WithField("model", model)
	}
	entry.WithFields(logrus.Fields{
		"status":  status,
		"latency": time.Since(start).String(),
	}).Infof("%s -- %s -- %s", req.RemoteAddr, req.Method, req.URL.Path)
}

// logAndReturnError logs e with its cause and writes the client-facing reply.
func logAndReturnError(w http.ResponseWriter, entry *logrus.Entry, e *Error) int {
	entry = entry.WithField("kind", e.Kind.String())
	if e.Err != nil {
		entry = entry.WithError(e.Err)
	}
	if e.Status >= http.StatusInternalServerError {
		entry.Errorln(e.Message)
	} else {
		entry.Warnln(e.Message)
	}
	return writeJSON(w, e.Status, ErrorResponse{Error: e.Message})
}

func writeJSON(w http.ResponseWriter, status int, v any) int {
	body, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Errorln("encoding response")
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Server error: encoding response"}`)
	}
	return writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) int {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.WithError(err).Debugln("writing response body")
	}
	return status
}
