package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/umputun/livefeed/pkg/domain"
)

// DeliveryParams configures the delivery client
type DeliveryParams struct {
	Client  *http.Client
	BaseURL string
	Path    string
	Timeout time.Duration
}

// Delivery posts envelopes to the ingestion endpoint, one envelope per request
type Delivery struct {
	DeliveryParams
	newID func() string
}

// NewDelivery makes a delivery client
func NewDelivery(params DeliveryParams) *Delivery {
	if params.Client == nil {
		params.Client = &http.Client{}
	}
	return &Delivery{DeliveryParams: params, newID: uuid.NewString}
}

// Deliver sends env and reports whether the backend accepted it. Only 200 counts as success.
// It never returns an error, failures are described by the message.
func (d *Delivery) Deliver(ctx context.Context, env domain.Envelope) (ok bool, message string) {
	if env.Data == nil {
		return false, "empty envelope"
	}
	body, err := json.Marshal(env)
	if err != nil {
		return false, fmt.Sprintf("marshal envelope: %v", err)
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(d.BaseURL, d.Path), bytes.NewReader(body))
	if err != nil {
		return false, fmt.Sprintf("create request: %v", err)
	}
	reqID := d.newID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	resp, err := d.Client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("connection error: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode != http.StatusOK {
		lgr.Printf("[DEBUG] delivery %s of %s item from %s rejected with %d", reqID, env.Data.Kind(), env.Data.Origin(), resp.StatusCode)
		return false, (&HTTPError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}).Error()
	}

	var reply struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &reply); err != nil || reply.Message == "" {
		return true, "Success"
	}
	return true, reply.Message
}
