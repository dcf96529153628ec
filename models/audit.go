// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package models

// IssueType classifies one divergence between the three progress
// representations of a record.
type IssueType string

const (
	// IssueDataExistsFlagFalse means real step data exists but the legacy
	// completion flag is false. Most dangerous: downstream logic gating on
	// the flag under-reports real progress.
	IssueDataExistsFlagFalse IssueType = "DataExistsFlagFalse"

	// IssueFlagTrueNoData means the legacy flag claims completion but no
	// qualifying step data exists.
	IssueFlagTrueNoData IssueType = "FlagTrueNoData"

	// IssueStepStatusMismatch means the per-step status row disagrees with
	// the presence of step data in either direction.
	IssueStepStatusMismatch IssueType = "StepStatusMismatch"

	// IssueSessionCounterMismatch means the record-level steps_completed
	// counter disagrees with the count of COMPLETED step-status rows.
	IssueSessionCounterMismatch IssueType = "SessionCounterMismatch"
)

// Severity ranks how dangerous a consistency issue is for downstream
// consumers.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// AuditStatus is the overall verdict for one audited record.
type AuditStatus string

const (
	AuditConsistent  AuditStatus = "Consistent"
	AuditMinorIssues AuditStatus = "MinorIssues"
	AuditMajorIssues AuditStatus = "MajorIssues"
)

// ConsistencyIssue is one detected divergence. Issues are produced by the
// auditor and never stored; the auditor reports, it does not repair.
type ConsistencyIssue struct {
	RecordID    string    `json:"record_id"`
	Step        int       `json:"step"`
	StepName    string    `json:"step_name"`
	Type        IssueType `json:"type"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	Suggestion  string    `json:"suggestion"`
}

// ConsistencyReport is the audit result for a single record.
type ConsistencyReport struct {
	RecordID      string             `json:"record_id"`
	TotalIssues   int                `json:"total_issues"`
	HighIssues    int                `json:"high_issues"`
	MediumIssues  int                `json:"medium_issues"`
	LowIssues     int                `json:"low_issues"`
	Issues        []ConsistencyIssue `json:"issues"`
	OverallStatus AuditStatus        `json:"overall_status"`
}

// AuditSummary aggregates per-record verdicts for an all-records audit run.
type AuditSummary struct {
	TotalRecords int                 `json:"total_records"`
	Consistent   int                 `json:"consistent"`
	MinorIssues  int                 `json:"minor_issues"`
	MajorIssues  int                 `json:"major_issues"`
	Reports      []ConsistencyReport `json:"reports"`
}
