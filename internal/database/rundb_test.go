package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/certsnap/certsnap/internal/model"
)

// newTestDB creates a RunDB in a temporary directory.
func newTestDB(t *testing.T) *RunDB {
	t.Helper()

	rdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := rdb.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return rdb
}

// newTestSummary builds a two-record summary with one stored file.
func newTestSummary(started time.Time) *model.RunSummary {
	r1 := model.NewResultRecord("1111111111")
	r1.AddReference("https://example.com/m/1/front.jpg")
	r1.AddStored(model.StoredMedia{
		Identifier:  "1111111111",
		Index:       1,
		Path:        "images/1111111111/image_1.jpg",
		URL:         "https://example.com/m/1/front.jpg",
		ContentType: "image/jpeg",
		Size:        2048,
		EXIF: &model.ImageMetadata{
			CameraMake:  "Canon",
			CameraModel: "EOS R5",
			CapturedAt:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		},
	})
	r1.Emit()

	r2 := model.NewResultRecord("2222222222")
	r2.SetError(errors.New("lookup returned status 404"))
	r2.Emit()

	s := model.NewRunSummary([]*model.ResultRecord{r1, r2})
	s.StartedAt = started
	s.Elapsed = 12 * time.Second
	s.LandingURL = "https://www.cgccards.com/"
	s.ProxyMode = "direct"
	return s
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database with default options", func(t *testing.T) {
		t.Parallel()

		rdb, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := rdb.Close(); err != nil {
			t.Errorf("expected no error on close, got %v", err)
		}
	})

	t.Run("fails when database does not exist and creation is disabled", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		rdb, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := rdb.SaveRun(context.Background(), newTestSummary(time.Now())); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := rdb.Close(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		reopened, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("expected no error reopening, got %v", err)
		}
		defer reopened.Close() //nolint:errcheck // Test cleanup

		runs, err := reopened.ListRuns(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("expected 1 run after reopen, got %d", len(runs))
		}
	})
}

func TestRunDB_SaveRun(t *testing.T) {
	t.Parallel()

	t.Run("save and retrieve by ID", func(t *testing.T) {
		t.Parallel()

		rdb := newTestDB(t)
		ctx := context.Background()

		id, err := rdb.SaveRun(ctx, newTestSummary(time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if id == 0 {
			t.Error("expected non-zero run ID")
		}

		got, err := rdb.GetRunByID(ctx, id)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got == nil {
			t.Fatal("expected summary, got nil")
		}
		if got.LandingURL != "https://www.cgccards.com/" {
			t.Errorf("landing URL = %q, want %q", got.LandingURL, "https://www.cgccards.com/")
		}
		if len(got.Records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(got.Records))
		}
		if got.Records[1].ErrorMessage != "lookup returned status 404" {
			t.Errorf("error message = %q, want lookup failure", got.Records[1].ErrorMessage)
		}
		if got.Records[0].Stored[0].EXIF == nil || got.Records[0].Stored[0].EXIF.CameraMake != "Canon" {
			t.Error("expected EXIF metadata preserved through storage")
		}
	})

	t.Run("nil record entries are skipped", func(t *testing.T) {
		t.Parallel()

		rdb := newTestDB(t)
		s := model.NewRunSummary([]*model.ResultRecord{nil})

		if _, err := rdb.SaveRun(context.Background(), s); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestRunDB_ListRuns(t *testing.T) {
	t.Parallel()

	rdb := newTestDB(t)
	ctx := context.Background()

	first := newTestSummary(time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC))
	second := newTestSummary(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))

	if _, err := rdb.SaveRun(ctx, first); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := rdb.SaveRun(ctx, second); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	runs, err := rdb.ListRuns(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	// Newest first.
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Errorf("expected newest run first, got %v then %v", runs[0].StartedAt, runs[1].StartedAt)
	}
	if runs[0].IdentifierCount != 2 {
		t.Errorf("identifier count = %d, want 2", runs[0].IdentifierCount)
	}
	if runs[0].FailedCount != 1 {
		t.Errorf("failed count = %d, want 1", runs[0].FailedCount)
	}
	if runs[0].StoredBytes != 2048 {
		t.Errorf("stored bytes = %d, want 2048", runs[0].StoredBytes)
	}
	if runs[0].Elapsed != 12*time.Second {
		t.Errorf("elapsed = %v, want 12s", runs[0].Elapsed)
	}
}

func TestRunDB_GetLatestRun(t *testing.T) {
	t.Parallel()

	t.Run("returns most recent run", func(t *testing.T) {
		t.Parallel()

		rdb := newTestDB(t)
		ctx := context.Background()

		if _, err := rdb.SaveRun(ctx, newTestSummary(time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC))); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		latest := newTestSummary(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))
		latest.ProxyMode = "proxy.zenrows.com:8001"
		if _, err := rdb.SaveRun(ctx, latest); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := rdb.GetLatestRun(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got == nil {
			t.Fatal("expected summary, got nil")
		}
		if got.ProxyMode != "proxy.zenrows.com:8001" {
			t.Errorf("proxy mode = %q, want the latest run's value", got.ProxyMode)
		}
	})

	t.Run("returns nil for empty database", func(t *testing.T) {
		t.Parallel()

		rdb := newTestDB(t)

		got, err := rdb.GetLatestRun(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != nil {
			t.Errorf("expected nil summary, got %+v", got)
		}
	})
}

func TestRunDB_GetRunByID_NotFound(t *testing.T) {
	t.Parallel()

	rdb := newTestDB(t)

	got, err := rdb.GetRunByID(context.Background(), 12345)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown ID, got %+v", got)
	}
}

func TestRunDB_MediaForIdentifier(t *testing.T) {
	t.Parallel()

	rdb := newTestDB(t)
	ctx := context.Background()

	if _, err := rdb.SaveRun(ctx, newTestSummary(time.Now())); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	media, err := rdb.MediaForIdentifier(ctx, "1111111111")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(media) != 1 {
		t.Fatalf("expected 1 media row, got %d", len(media))
	}
	if media[0].Path != "images/1111111111/image_1.jpg" {
		t.Errorf("path = %q, want stored path", media[0].Path)
	}
	if media[0].ContentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", media[0].ContentType)
	}

	none, err := rdb.MediaForIdentifier(ctx, "9999999999")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no media for unknown identifier, got %d", len(none))
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "sqlite default format",
			input: "2026-08-25 12:00:00",
			want:  time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "iso8601 with Z",
			input: "2026-08-25T12:00:00Z",
			want:  time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339",
			input: "2026-08-25T12:00:00+00:00",
			want:  time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "unparseable returns zero time",
			input: "not a timestamp",
			want:  time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
