// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

// Package adapter provides the transport layer between the wizard client and
// the onboarding server.
//
// The primary abstraction is [ServerAdapter], which decouples the sync core
// from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]).
//
// Step saves do not surface transport errors directly: every attempt is
// classified into exactly one [SaveOutcome] (success, validation rejection,
// version conflict, or transient failure) so the sync core can apply the
// autosave protocol without inspecting HTTP details. Errors from the other
// endpoints are mapped to the sentinel values in errors.go so that callers
// can use [errors.Is] for transport-agnostic handling.
package adapter

import (
	"context"

	"github.com/staylio/villa-onboard/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines transport-agnostic communication with the
// onboarding server. Implementations are responsible for serialisation,
// authentication header management, and outcome classification.
type ServerAdapter interface {
	// SetToken stores the bearer token that will be attached to all
	// subsequent authenticated requests.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// CreateRecord creates a new onboarding record owned by the
	// authenticated user and returns its identifier.
	CreateRecord(ctx context.Context) (string, error)

	// SaveStep performs one optimistic-concurrency save attempt for a
	// single step and classifies the response. It never returns an error:
	// transport failures are folded into the returned outcome as
	// [OutcomeTransientFailure].
	SaveStep(ctx context.Context, recordID string, req models.StepSaveRequest) SaveOutcome

	// FetchRecord retrieves the full authoritative record state, including
	// every step's version, status, and data. Used at session start and by
	// conflict reconciliation.
	FetchRecord(ctx context.Context, recordID string) (models.RecordState, error)

	// CompleteStep marks a step complete on the server, updating the legacy
	// flag, the step-status row, and the session counter.
	CompleteStep(ctx context.Context, recordID string, step int) error

	// Submit performs the terminal submission of the record.
	Submit(ctx context.Context, recordID string) error
}
