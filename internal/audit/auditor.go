// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

// Package audit implements the read-only consistency pass over the three
// overlapping progress representations of an onboarding record: the actual
// step data, the legacy completion flags, and the per-step status rows. The
// auditor reports divergences with severities and suggestions; it never
// repairs anything.
package audit

import (
	"context"
	"fmt"

	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/models"
)

// Source supplies the auditor with record state. The production
// implementation reads straight from the repositories; tests substitute
// fixtures.
type Source interface {
	// FetchRecord returns the full state of one record.
	FetchRecord(ctx context.Context, recordID string) (models.RecordState, error)

	// ListRecordIDs enumerates every record eligible for an all-records run.
	ListRecordIDs(ctx context.Context) ([]string, error)
}

// Auditor runs consistency checks against records obtained from a Source.
type Auditor struct {
	source Source
	logger *logger.Logger
}

func NewAuditor(source Source, logger *logger.Logger) *Auditor {
	return &Auditor{source: source, logger: logger}
}

// AuditRecord fetches one record and evaluates it.
func (a *Auditor) AuditRecord(ctx context.Context, recordID string) (models.ConsistencyReport, error) {
	state, err := a.source.FetchRecord(ctx, recordID)
	if err != nil {
		return models.ConsistencyReport{}, fmt.Errorf("error fetching record for audit: %w", err)
	}

	report := Evaluate(state)

	a.logger.Info().
		Str("record_id", recordID).
		Int("issues", report.TotalIssues).
		Str("status", string(report.OverallStatus)).
		Msg("record audited")

	return report, nil
}

// AuditAll enumerates every record and evaluates each one. A record that
// fails to load aborts the run; issues found in records do not.
func (a *Auditor) AuditAll(ctx context.Context) (models.AuditSummary, error) {
	recordIDs, err := a.source.ListRecordIDs(ctx)
	if err != nil {
		return models.AuditSummary{}, fmt.Errorf("error enumerating records for audit: %w", err)
	}

	summary := models.AuditSummary{TotalRecords: len(recordIDs)}
	for _, recordID := range recordIDs {
		report, err := a.AuditRecord(ctx, recordID)
		if err != nil {
			return models.AuditSummary{}, err
		}

		switch report.OverallStatus {
		case models.AuditConsistent:
			summary.Consistent++
		case models.AuditMinorIssues:
			summary.MinorIssues++
		case models.AuditMajorIssues:
			summary.MajorIssues++
		}
		summary.Reports = append(summary.Reports, report)
	}

	return summary, nil
}

// Evaluate is the pure audit core. For every step it derives three booleans
// (dataExists, legacyFlag, stepStatus == COMPLETED) and compares them; the
// rules are independent, so one step can produce more than one issue. A
// record-level check compares the steps_completed counter against the count
// of COMPLETED status rows.
func Evaluate(state models.RecordState) models.ConsistencyReport {
	report := models.ConsistencyReport{RecordID: state.RecordID}

	completedStatusRows := 0
	for step := 1; step <= models.StepCount; step++ {
		exists := dataExists[step](state)
		flag := state.LegacyFlag(step)
		completed := state.Step(step).Status == models.StepCompleted
		if completed {
			completedStatusRows++
		}

		if exists && !flag {
			report.Issues = append(report.Issues, newIssue(state.RecordID, step,
				models.IssueDataExistsFlagFalse, models.SeverityHigh,
				"step data is present but the legacy completion flag is false",
				"set the legacy flag for this step or re-run its completion flow"))
		}
		if !exists && flag {
			report.Issues = append(report.Issues, newIssue(state.RecordID, step,
				models.IssueFlagTrueNoData, models.SeverityMedium,
				"the legacy completion flag is set but no qualifying step data exists",
				"clear the legacy flag or restore the missing step data"))
		}
		if exists && !completed {
			report.Issues = append(report.Issues, newIssue(state.RecordID, step,
				models.IssueStepStatusMismatch, models.SeverityMedium,
				fmt.Sprintf("step data is present but the step status is %s", state.Step(step).Status),
				"mark the step status COMPLETED or review the stored step data"))
		}
		if !exists && completed {
			report.Issues = append(report.Issues, newIssue(state.RecordID, step,
				models.IssueStepStatusMismatch, models.SeverityMedium,
				"the step status is COMPLETED but no qualifying step data exists",
				"reset the step status or restore the missing step data"))
		}
	}

	if state.StepsCompleted != completedStatusRows {
		report.Issues = append(report.Issues, models.ConsistencyIssue{
			RecordID: state.RecordID,
			Type:     models.IssueSessionCounterMismatch,
			Severity: models.SeverityLow,
			Description: fmt.Sprintf("steps_completed counter is %d but %d step status rows are COMPLETED",
				state.StepsCompleted, completedStatusRows),
			Suggestion: "recompute steps_completed from the COMPLETED status rows",
		})
	}

	for _, issue := range report.Issues {
		switch issue.Severity {
		case models.SeverityHigh:
			report.HighIssues++
		case models.SeverityMedium:
			report.MediumIssues++
		case models.SeverityLow:
			report.LowIssues++
		}
	}
	report.TotalIssues = len(report.Issues)

	switch {
	case report.HighIssues > 0:
		report.OverallStatus = models.AuditMajorIssues
	case report.TotalIssues > 0:
		report.OverallStatus = models.AuditMinorIssues
	default:
		report.OverallStatus = models.AuditConsistent
	}

	return report
}

func newIssue(recordID string, step int, issueType models.IssueType, severity models.Severity, description, suggestion string) models.ConsistencyIssue {
	return models.ConsistencyIssue{
		RecordID:    recordID,
		Step:        step,
		StepName:    models.StepName(step),
		Type:        issueType,
		Severity:    severity,
		Description: description,
		Suggestion:  suggestion,
	}
}
