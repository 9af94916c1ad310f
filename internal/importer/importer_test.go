package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/rota/internal/db"
	"github.com/javiermolinar/rota/internal/interval"
)

const sampleDocument = `{
  "jobs": [
    {"title": "Install boiler", "date": "2024-03-13", "start": "09:30", "duration_minutes": 90},
    {"title": "Survey", "duration_minutes": 30}
  ],
  "unavailability": [
    {"resource_id": "emp-1", "start": "2024-03-10T00:00:00Z", "end": "2024-03-12T23:59:00Z", "reason": "holiday"}
  ],
  "allocations": [
    {"job_id": 1, "resource_id": "emp-1", "start": "2024-03-11T09:00:00Z", "end": "2024-03-11T17:00:00Z"},
    {"job_id": 1, "resource_id": "emp-2", "start": "2024-03-11T22:00:00Z", "end": "2024-03-12T02:00:00Z"}
  ],
  "exceptions": [
    {"resource_id": "emp-1", "start": "2024-03-11T08:00:00Z", "end": "2024-03-11T09:00:00Z", "note": "approved"}
  ]
}`

func newTestRepo(t *testing.T) *db.SQLite {
	t.Helper()

	repo, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func TestDecode(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleDocument))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(doc.Jobs) != 2 || len(doc.Unavailability) != 1 || len(doc.Allocations) != 2 || len(doc.Exceptions) != 1 {
		t.Fatalf("unexpected record counts: %+v", doc)
	}
	want := time.Date(2024, 3, 12, 23, 59, 0, 0, time.UTC)
	if !doc.Unavailability[0].End.Equal(want) {
		t.Errorf("got end %v, want %v", doc.Unavailability[0].End, want)
	}
}

func TestDecode_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "end before start",
			doc:  `{"unavailability": [{"resource_id": "emp-1", "start": "2024-03-12T00:00:00Z", "end": "2024-03-10T00:00:00Z"}]}`,
			want: "unavailability[0].end must not be before start",
		},
		{
			name: "missing resource",
			doc:  `{"allocations": [{"start": "2024-03-10T00:00:00Z", "end": "2024-03-11T00:00:00Z"}]}`,
			want: "allocations[0].resource_id is required",
		},
		{
			name: "missing title",
			doc:  `{"jobs": [{"date": "2024-03-13"}]}`,
			want: "jobs[0].title is required",
		},
		{
			name: "bad date",
			doc:  `{"jobs": [{"title": "x", "date": "13/03/2024"}]}`,
			want: "jobs[0].date must be a date",
		},
		{
			name: "bad time",
			doc:  `{"jobs": [{"title": "x", "date": "2024-03-13", "start": "25:00"}]}`,
			want: "jobs[0].start must be a time in HH:MM format",
		},
		{
			name: "negative duration",
			doc:  `{"jobs": [{"title": "x", "duration_minutes": -5}]}`,
			want: "jobs[0].duration_minutes must be at least 0",
		},
		{
			name: "start without date",
			doc:  `{"jobs": [{"title": "x", "start": "09:00"}]}`,
			want: "jobs[0].date is required when start is set",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.doc))
			if !errors.Is(err, ErrInvalidDocument) {
				t.Fatalf("expected ErrInvalidDocument, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, doc := range []string{
		`{"jobs": [`,
		`{"unknown": []}`,
		`{"unavailability": [{"resource_id": "emp-1", "start": "yesterday"}]}`,
	} {
		if _, err := Decode(strings.NewReader(doc)); !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("Decode(%s): expected ErrInvalidDocument, got %v", doc, err)
		}
	}
}

func TestImportFile(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}

	res, err := New(repo).ImportFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if res.Jobs != 2 || res.Unavailability != 1 || res.Allocations != 2 || res.Exceptions != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Total() != 6 {
		t.Errorf("expected 6 records, got %d", res.Total())
	}

	job, err := repo.GetJob(ctx, 1)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Title != "Install boiler" || job.Time() != 930 {
		t.Errorf("unexpected job %+v", job)
	}

	unscheduled, err := repo.GetJob(ctx, 2)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if unscheduled.IsScheduled() {
		t.Error("expected job without date to be unscheduled")
	}

	window := interval.Interval{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	allocs, err := repo.ListAllocations(ctx, "", window)
	if err != nil {
		t.Fatalf("ListAllocations failed: %v", err)
	}
	if len(allocs) != 2 {
		t.Errorf("expected 2 allocations, got %d", len(allocs))
	}
}

func TestImportFile_Missing(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := New(repo).ImportFile(context.Background(), "/nonexistent/records.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestImport_JobDateInLocation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	zone := time.FixedZone("UTC+9", 9*60*60)

	doc := &Document{Jobs: []JobRecord{{Title: "Night shift", Date: "2024-03-13", DurationMinutes: 60}}}
	if _, err := New(repo, WithLocation(zone)).Import(ctx, doc); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	job, err := repo.GetJob(ctx, 1)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Time() != 0 {
		t.Errorf("expected midnight start, got %v", job.Time())
	}
	if got := job.StartDate.Format("2006-01-02"); got != "2024-03-13" {
		t.Errorf("expected date 2024-03-13, got %s", got)
	}
}
