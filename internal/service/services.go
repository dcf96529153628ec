// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

// Package service contains the server-side application layer of the
// onboarding system: step payload validation, the optimistic-concurrency
// save flow, progress aggregation, and bearer-token verification.
package service

import (
	"github.com/staylio/villa-onboard/internal/config"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/internal/store"
)

// Services groups the server's application services behind one constructor.
type Services struct {
	AuthService       AuthService
	OnboardingService OnboardingService
}

func NewServices(repos *store.Repositories, cfg *config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		AuthService:       NewAuthService(cfg.Auth, logger),
		OnboardingService: NewOnboardingService(repos, logger),
	}
}
