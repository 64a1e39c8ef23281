package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"foodorder/pkg/order/domain/model"
)

const RequestIDHeader = "X-Request-ID"

// Client talks JSON to one collaborating service. Every failure comes back
// as one of the model error types so callers never see raw HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  log.FieldLogger
}

func NewClient(baseURL, token string, timeout time.Duration, logger log.FieldLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type request struct {
	op     string
	method string
	path   string
	body   interface{}
	// notFound is returned for 404 instead of a TransportError.
	notFound error
}

func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return errors.Wrapf(err, "%s: encode request", req.op)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return &model.TransportError{Op: req.op, Err: err}
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger := c.logger.WithFields(log.Fields{
		"op":         req.op,
		"method":     req.method,
		"path":       req.path,
		"request_id": requestID,
	})

	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.WithError(err).Error("request failed")
		return &model.TransportError{Op: req.op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &model.TransportError{Op: req.op, StatusCode: resp.StatusCode, Err: err}
	}
	var envelope Envelope
	decodeErr := json.Unmarshal(raw, &envelope)

	logger = logger.WithField("status", resp.StatusCode)
	switch {
	case resp.StatusCode == http.StatusNotFound && req.notFound != nil:
		logger.Debug("resource not found")
		return errors.WithMessage(req.notFound, req.path)
	case resp.StatusCode == http.StatusConflict:
		logger.WithField("message", envelope.Message).Warn("rejected by service")
		return &model.StateConflictError{Server: true, Message: envelope.Message}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		logger.WithField("message", envelope.Message).Warn("service returned an error")
		return &model.TransportError{Op: req.op, StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if out == nil {
		logger.Debug("request done")
		return nil
	}
	if decodeErr != nil {
		return &model.TransportError{Op: req.op, StatusCode: resp.StatusCode, Err: errors.Wrap(decodeErr, "decode response")}
	}
	if len(envelope.Data) == 0 {
		return &model.TransportError{Op: req.op, StatusCode: resp.StatusCode, Err: errors.New("response carries no data")}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &model.TransportError{Op: req.op, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "decode response data")}
	}
	logger.Debug("request done")
	return nil
}
