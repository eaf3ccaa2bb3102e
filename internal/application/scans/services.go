package scans

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/simtrack/internal/application"
	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
	"github.com/bryanwahyu/simtrack/internal/logger"
)

// Service implements the history use-cases behind the HTTP API.
// Safe for concurrent use; serialization is the Repository's job.
type Service struct {
	Repo      domain.Repository
	Validator domain.Validator
	Artifacts domain.ArtifactStore // nil disables ArchiveCSV
	Clock     application.Clock

	// EnforceValidation rejects POSTed codes failing the validator.
	EnforceValidation bool
	TimeFormat        string
	Location          *time.Location
}

//
// ==== USE CASES ====
//

// RecordCommand body POST /scans
type RecordCommand struct {
	Code string
}

// DeleteCommand body DELETE /scans. Codes nil = hapus semua.
type DeleteCommand struct {
	Codes []string
}

type DeleteResult struct {
	All     bool
	Removed int
	Message string
}

// Record formats the code and stores it at the head of the history.
func (s *Service) Record(ctx context.Context, cmd RecordCommand) (domain.Record, error) {
	code := strings.TrimSpace(cmd.Code)
	if code == "" {
		return domain.Record{}, domain.ErrEmptyCode
	}

	display := s.Validator.FormatCode(code)
	if s.EnforceValidation {
		accepted, err := s.Validator.Validate(code)
		if err != nil {
			logger.C(ctx).Info().Str("code", code).Err(err).Msg("scan rejected")
			return domain.Record{}, err
		}
		display = accepted.Display
	}

	rec := domain.Record{
		ID:          domain.RecordID(uuid.New().String()),
		Code:        code,
		DisplayCode: display,
		CapturedAt:  s.now(),
	}
	if err := s.Repo.Append(ctx, rec); err != nil {
		return domain.Record{}, fmt.Errorf("append scan: %w", err)
	}
	logger.C(ctx).Debug().Str("id", string(rec.ID)).Str("code", rec.DisplayCode).Msg("scan recorded")
	return rec, nil
}

// Submit lets the scan controller write straight into a local store.
func (s *Service) Submit(ctx context.Context, code string) error {
	if _, err := s.Record(ctx, RecordCommand{Code: code}); err != nil {
		return &domain.SubmissionError{Code: code, Err: err}
	}
	return nil
}

// Entries returns the history in wire form, newest first.
func (s *Service) Entries(ctx context.Context) ([]domain.Entry, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Entry, len(list))
	for i, r := range list {
		out[i] = r.ToEntry(s.TimeFormat, s.Location)
	}
	return out, nil
}

// Delete removes the selected codes, or everything when Codes is nil.
func (s *Service) Delete(ctx context.Context, cmd DeleteCommand) (DeleteResult, error) {
	if cmd.Codes == nil {
		if err := s.Repo.ClearAll(ctx); err != nil {
			return DeleteResult{}, fmt.Errorf("clear history: %w", err)
		}
		logger.C(ctx).Info().Msg("history cleared")
		return DeleteResult{All: true, Message: "all scans deleted"}, nil
	}

	n, err := s.Repo.DeleteWhere(ctx, cmd.Codes)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete selected: %w", err)
	}
	logger.C(ctx).Info().Int("requested", len(cmd.Codes)).Int("removed", n).Msg("scans deleted")
	return DeleteResult{Removed: n, Message: fmt.Sprintf("%d selected scans deleted", n)}, nil
}

// Count jumlah entry sekarang
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.Repo.Count(ctx)
}

// ExportCSV writes the current history as CSV and returns the download name.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) (string, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return "", &domain.ExportError{Err: err}
	}
	if err := domain.WriteCSV(w, entries); err != nil {
		return "", err
	}
	return domain.CSVFileName(s.now()), nil
}

// ArchiveCSV uploads the CSV export to object storage and returns its URL.
func (s *Service) ArchiveCSV(ctx context.Context) (string, error) {
	if s.Artifacts == nil {
		return "", domain.ErrStorageDisabled
	}
	var buf bytes.Buffer
	name, err := s.ExportCSV(ctx, &buf)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("exports/%s/%s", s.now().Format("20060102-150405"), name)
	url, err := s.Artifacts.Upload(ctx, key, &buf, int64(buf.Len()), "text/csv; charset=utf-8")
	if err != nil {
		return "", &domain.ExportError{Target: key, Err: err}
	}
	logger.C(ctx).Info().Str("key", key).Msg("csv export archived")
	return url, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}
