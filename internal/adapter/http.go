package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/staylio/villa-onboard/internal/config"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/internal/utils"
	"github.com/staylio/villa-onboard/models"
)

type httpServerAdapter struct {
	client *utils.HTTPClient

	token string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of
// [ServerAdapter]. It normalises and validates the base URL from
// adapterCfg.HTTPAddress and configures the underlying HTTP client with the
// resolved base URL and request timeout. The bearer token from the config,
// if any, is stored via SetToken.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as
// a valid URL.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, logger *logger.Logger) (ServerAdapter, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	a := &httpServerAdapter{client: client, logger: logger}
	a.SetToken(adapterCfg.Token)

	return a, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [ServerAdapter]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent requests.
func (h *httpServerAdapter) SetToken(token string) {
	h.token = strings.TrimSpace(token)
}

// Token implements [ServerAdapter]. It returns the bearer token currently
// held by the adapter, or an empty string if none has been set.
func (h *httpServerAdapter) Token() string {
	return h.token
}

// CreateRecord implements [ServerAdapter]. It POSTs to /api/records/ and
// returns the new record's identifier. Returns an error if the request
// fails, the server returns a non-2xx status, or the body cannot be decoded.
func (h *httpServerAdapter) CreateRecord(ctx context.Context) (string, error) {
	var created models.CreateRecordResponse

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetResult(&created).
		Post("/api/records/")
	if err != nil {
		return "", fmt.Errorf("create record request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	if created.RecordID == "" {
		return "", fmt.Errorf("create record: empty record id in response")
	}

	return created.RecordID, nil
}

// SaveStep implements [ServerAdapter]. It PUTs one step-save attempt to
// /api/records/{id}/steps and classifies the response:
//
//   - 200 with a version body        → OutcomeSuccess
//   - 422 with a field-errors body   → OutcomeValidationRejected
//   - 409, or any error body carrying the legacy conflict signature
//     → OutcomeVersionConflict
//   - anything else, including transport errors and undecodable bodies
//     → OutcomeTransientFailure
//
// SaveStep never returns a Go error; the sync core consumes outcomes only.
func (h *httpServerAdapter) SaveStep(ctx context.Context, recordID string, req models.StepSaveRequest) SaveOutcome {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Put(fmt.Sprintf("/api/records/%s/steps", url.PathEscape(recordID)))
	if err != nil {
		return TransientFailure(fmt.Errorf("save step request: %w", err))
	}

	switch {
	case resp.IsSuccess():
		var saved models.StepSaveResponse
		if err = json.Unmarshal(resp.Body(), &saved); err != nil {
			return TransientFailure(fmt.Errorf("decode save step response: %w", err))
		}
		return Success(saved.Version)

	case resp.StatusCode() == http.StatusUnprocessableEntity:
		var rejection models.ValidationErrorResponse
		if err = json.Unmarshal(resp.Body(), &rejection); err != nil {
			// a 422 without a parseable body still blocks the step;
			// surface a generic message instead of dropping the signal
			rejection.Errors = models.FieldErrors{"_": "step payload rejected by server"}
		}
		return ValidationRejected(rejection.Errors)

	case isConflictResponse(resp):
		return VersionConflict()

	default:
		return TransientFailure(mapHTTPError(resp))
	}
}

// FetchRecord implements [ServerAdapter]. It GETs the progress endpoint
// /api/records/{id}/progress and decodes the full authoritative record
// state. Returns an error if the request, response mapping, or JSON decoding
// fails.
func (h *httpServerAdapter) FetchRecord(ctx context.Context, recordID string) (models.RecordState, error) {
	resp, err := h.authedRequest(ctx).
		Get(fmt.Sprintf("/api/records/%s/progress", url.PathEscape(recordID)))
	if err != nil {
		return models.RecordState{}, fmt.Errorf("fetch record request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RecordState{}, err
	}

	var state models.RecordState
	if err = json.Unmarshal(resp.Body(), &state); err != nil {
		return models.RecordState{}, fmt.Errorf("decode record state response: %w", err)
	}

	return state, nil
}

// CompleteStep implements [ServerAdapter]. It POSTs to
// /api/records/{id}/steps/{step}/complete. Returns an error if the request
// fails or the server responds with a non-2xx status.
func (h *httpServerAdapter) CompleteStep(ctx context.Context, recordID string, step int) error {
	resp, err := h.authedRequest(ctx).
		Post(fmt.Sprintf("/api/records/%s/steps/%d/complete", url.PathEscape(recordID), step))
	if err != nil {
		return fmt.Errorf("complete step request: %w", err)
	}

	return mapHTTPError(resp)
}

// Submit implements [ServerAdapter]. It POSTs the terminal submission to
// /api/records/{id}/submit. Returns an error if the request fails or the
// server responds with a non-2xx status.
func (h *httpServerAdapter) Submit(ctx context.Context, recordID string) error {
	resp, err := h.authedRequest(ctx).
		Post(fmt.Sprintf("/api/records/%s/submit", url.PathEscape(recordID)))
	if err != nil {
		return fmt.Errorf("submit request: %w", err)
	}

	return mapHTTPError(resp)
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}
