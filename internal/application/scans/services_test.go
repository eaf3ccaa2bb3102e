package scans

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bryanwahyu/simtrack/internal/application"
	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
	"github.com/bryanwahyu/simtrack/internal/infra/memory"
)

var fixed = time.Date(2026, 10, 16, 14, 3, 7, 0, time.UTC)

func newService(capacity int) *Service {
	return &Service{
		Repo:       memory.NewHistoryStore(capacity),
		Validator:  domain.Validator{StrictLength: true},
		Clock:      application.FixedClock{T: fixed},
		TimeFormat: "15:04:05",
		Location:   time.UTC,
	}
}

type fakeArtifacts struct {
	key  string
	body string
	err  error
}

func (f *fakeArtifacts) Upload(_ context.Context, key string, body io.Reader, size int64, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(body)
	if int64(len(b)) != size {
		return "", errors.New("size mismatch")
	}
	f.key, f.body = key, string(b)
	return "http://minio/bucket/" + key, nil
}

func TestRecord_FormatsSerial(t *testing.T) {
	ctx := context.Background()
	svc := newService(10)
	rec, err := svc.Record(ctx, RecordCommand{Code: "ABCDEFGHIJKLMNOPQRST"})
	if err != nil {
		t.Fatal(err)
	}
	if rec.DisplayCode != "ABCDEF GHIJK LMNOPQRST" || rec.ID == "" {
		t.Fatalf("record %+v", rec)
	}
	entries, _ := svc.Entries(ctx)
	if len(entries) != 1 || entries[0].Code != "ABCDEF GHIJK LMNOPQRST" || entries[0].Time != "14:03:07" {
		t.Fatalf("entries %+v", entries)
	}
}

func TestRecord_PassThroughAndEnforce(t *testing.T) {
	ctx := context.Background()
	svc := newService(10)
	rec, err := svc.Record(ctx, RecordCommand{Code: "short"})
	if err != nil || rec.DisplayCode != "short" {
		t.Fatalf("pass-through: %+v %v", rec, err)
	}

	svc.EnforceValidation = true
	_, err = svc.Record(ctx, RecordCommand{Code: "short"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n, _ := svc.Count(ctx); n != 1 {
		t.Fatalf("rejected code mutated store: count %d", n)
	}

	if _, err := svc.Record(ctx, RecordCommand{Code: "   "}); !errors.Is(err, domain.ErrEmptyCode) {
		t.Fatalf("expected ErrEmptyCode, got %v", err)
	}
}

func TestSubmit_WrapsError(t *testing.T) {
	svc := newService(10)
	err := svc.Submit(context.Background(), "")
	var se *domain.SubmissionError
	if !errors.As(err, &se) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
}

func TestDelete_SelectedAndAll(t *testing.T) {
	ctx := context.Background()
	svc := newService(10)
	for _, c := range []string{"ABCDEFGHIJKLMNOPQRST", "12345678901234567890", "ABCDEFGHIJKLMNOPQRST"} {
		_, _ = svc.Record(ctx, RecordCommand{Code: c})
	}

	res, err := svc.Delete(ctx, DeleteCommand{Codes: []string{"ABCDEF GHIJK LMNOPQRST"}})
	if err != nil || res.All || res.Removed != 2 {
		t.Fatalf("selected: %+v %v", res, err)
	}
	if n, _ := svc.Count(ctx); n != 1 {
		t.Fatalf("count %d", n)
	}

	res, err = svc.Delete(ctx, DeleteCommand{Codes: []string{}})
	if err != nil || res.All || res.Removed != 0 {
		t.Fatalf("empty selection must not clear: %+v", res)
	}

	res, err = svc.Delete(ctx, DeleteCommand{})
	if err != nil || !res.All {
		t.Fatalf("all: %+v %v", res, err)
	}
	if n, _ := svc.Count(ctx); n != 0 {
		t.Fatalf("count after clear %d", n)
	}
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	svc := newService(10)
	_, _ = svc.Record(ctx, RecordCommand{Code: "ABCDEFGHIJKLMNOPQRST"})

	var buf bytes.Buffer
	name, err := svc.ExportCSV(ctx, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if name != "scans_2026-10-16.csv" {
		t.Fatalf("name %q", name)
	}
	if !strings.Contains(buf.String(), "14:03:07,ABCDEF GHIJK LMNOPQRST") {
		t.Fatalf("csv %q", buf.String())
	}
}

func TestArchiveCSV(t *testing.T) {
	ctx := context.Background()
	svc := newService(10)
	if _, err := svc.ArchiveCSV(ctx); !errors.Is(err, domain.ErrStorageDisabled) {
		t.Fatalf("expected ErrStorageDisabled, got %v", err)
	}

	fa := &fakeArtifacts{}
	svc.Artifacts = fa
	url, err := svc.ArchiveCSV(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if fa.key != "exports/20261016-140307/scans_2026-10-16.csv" || !strings.HasSuffix(url, fa.key) {
		t.Fatalf("key %q url %q", fa.key, url)
	}
	if !strings.HasPrefix(fa.body, "\ufeffscan time,code") {
		t.Fatalf("body %q", fa.body)
	}

	svc.Artifacts = &fakeArtifacts{err: errors.New("bucket gone")}
	_, err = svc.ArchiveCSV(ctx)
	var ee *domain.ExportError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExportError, got %v", err)
	}
}
