package store

import (
	"context"
	"encoding/json"
	"errors"

	"bullet-cli/internal/engine"
	"bullet-cli/internal/model"

	"go.uber.org/multierr"
)

var ErrDoctorIssuesFound = errors.New("doctor found issues")

type DoctorIssueLevel string

const (
	DoctorIssueLevelError DoctorIssueLevel = "error"
	DoctorIssueLevelWarn  DoctorIssueLevel = "warn"
)

type DoctorIssue struct {
	Level      DoctorIssueLevel `json:"level" yaml:"level"`
	Code       string           `json:"code" yaml:"code"`
	Message    string           `json:"message" yaml:"message"`
	DocumentID string           `json:"documentId,omitempty" yaml:"documentId,omitempty"`
}

type DoctorReport struct {
	Documents int           `json:"documents" yaml:"documents"`
	Issues    []DoctorIssue `json:"issues" yaml:"issues"`
}

func (r DoctorReport) HasErrors() bool {
	for _, it := range r.Issues {
		if it.Level == DoctorIssueLevelError {
			return true
		}
	}
	return false
}

// Doctor decodes every stored document and reports each structural problem separately.
// Unlike LoadDocument it keeps going past broken documents.
func (s Store) Doctor(ctx context.Context) (DoctorReport, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return DoctorReport{}, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT id, title, state_json FROM documents ORDER BY id ASC`)
	if err != nil {
		return DoctorReport{}, err
	}
	defer rows.Close()

	report := DoctorReport{Issues: []DoctorIssue{}}
	for rows.Next() {
		var id, title, raw string
		if err := rows.Scan(&id, &title, &raw); err != nil {
			return DoctorReport{}, err
		}
		report.Documents++

		if title == "" {
			report.Issues = append(report.Issues, DoctorIssue{
				Level:      DoctorIssueLevelWarn,
				Code:       "empty_title",
				Message:    "document has an empty title",
				DocumentID: id,
			})
		}

		var st model.State
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			report.Issues = append(report.Issues, DoctorIssue{
				Level:      DoctorIssueLevelError,
				Code:       "state_invalid_json",
				Message:    err.Error(),
				DocumentID: id,
			})
			continue
		}
		for _, e := range multierr.Errors(engine.CheckInvariants(st)) {
			report.Issues = append(report.Issues, DoctorIssue{
				Level:      DoctorIssueLevelError,
				Code:       "invariant",
				Message:    e.Error(),
				DocumentID: id,
			})
		}
	}
	return report, rows.Err()
}
