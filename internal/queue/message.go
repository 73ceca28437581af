// Package queue consumes annotation requests from a JetStream stream and
// publishes one response per request.
package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Request asks for the annotation of a project's uploaded files.
type Request struct {
	UserID     string   `json:"user_id"`
	ProjectID  int64    `json:"project_id"`
	ObjectKeys []string `json:"object_keys"`
}

// Response reports the outcome of one request.
type Response struct {
	UserID    string `json:"userId"`
	ProjectID int64  `json:"projectId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

type wireRequest struct {
	Data       *wireRequest    `json:"data"`
	UserID     json.RawMessage `json:"user_id"`
	ProjectID  json.RawMessage `json:"project_id"`
	ObjectKeys []string        `json:"object_keys"`
}

// DecodeRequest parses a request. The payload may be wrapped in a
// {"data": {...}} envelope, and ids may be JSON numbers or strings.
func DecodeRequest(data []byte) (Request, error) {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return Request{}, fmt.Errorf("%w: decode request: %v", internalerr.ErrInvalidInput, err)
	}
	if w.Data != nil {
		w = *w.Data
	}

	userID, err := rawID(w.UserID)
	if err != nil {
		return Request{}, fmt.Errorf("%w: user_id: %v", internalerr.ErrInvalidInput, err)
	}
	project, err := rawID(w.ProjectID)
	if err != nil {
		return Request{}, fmt.Errorf("%w: project_id: %v", internalerr.ErrInvalidInput, err)
	}
	projectID, err := strconv.ParseInt(project, 10, 64)
	if err != nil {
		return Request{}, fmt.Errorf("%w: project_id %q is not an integer", internalerr.ErrInvalidInput, project)
	}

	return Request{
		UserID:     userID,
		ProjectID:  projectID,
		ObjectKeys: w.ObjectKeys,
	}, nil
}

func rawID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("missing")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// EncodeRequest renders a request without the envelope.
func EncodeRequest(r Request) ([]byte, error) {
	return json.Marshal(r)
}

// EncodeResponse renders a response.
func EncodeResponse(r Response) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeResponse parses a response.
func DecodeResponse(data []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return r, nil
}
