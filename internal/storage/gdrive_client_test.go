package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/drive/v3"
)

type fakeFolder struct {
	name, parent string
}

type fakeDrive struct {
	folders      map[fakeFolder]string
	uploads      map[string]string
	uploadParent map[string]string
	failUploads  int
	created      int
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		folders:      make(map[fakeFolder]string),
		uploads:      make(map[string]string),
		uploadParent: make(map[string]string),
	}
}

func (f *fakeDrive) FindFolder(_ context.Context, name, parentID string) (string, error) {
	return f.folders[fakeFolder{name, parentID}], nil
}

func (f *fakeDrive) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	f.created++
	id := fmt.Sprintf("folder-%d", f.created)
	f.folders[fakeFolder{name, parentID}] = id
	return id, nil
}

func (f *fakeDrive) Upload(_ context.Context, name, _, parentID string, body io.Reader) (*drive.File, error) {
	if f.failUploads > 0 {
		f.failUploads--
		return nil, errors.New("503 backend error")
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.uploads[name] = string(b)
	f.uploadParent[name] = parentID
	return &drive.File{Id: "file-" + name}, nil
}

func testDriveClient(t *testing.T, svc DriveService) *DriveClient {
	t.Helper()
	dc, err := NewDriveClient(context.Background(), "", "", "Transcripts",
		WithDriveService(svc),
		WithDriveBackOff(func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 3)
		}),
	)
	if err != nil {
		t.Fatalf("NewDriveClient failed: %v", err)
	}
	return dc
}

func TestDriveExport(t *testing.T) {
	svc := newFakeDrive()
	dc := testDriveClient(t, svc)
	finished := time.Date(2025, 1, 23, 14, 30, 22, 0, time.UTC)

	url, err := dc.Export(context.Background(), TranscriptExport{
		JobID:     "job1",
		SourceURL: "https://youtu.be/abc",
		Platform:  "youtube",
		Text:      "the camera is great",
		Finished:  finished,
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if url != "https://drive.google.com/file/d/file-20250123_143022_job1.txt/view" {
		t.Errorf("unexpected url %q", url)
	}

	if svc.created != 4 {
		t.Errorf("created %d folders, want root/year/month/day", svc.created)
	}
	day := svc.folders[fakeFolder{"23", svc.folders[fakeFolder{"01", svc.folders[fakeFolder{"2025", svc.folders[fakeFolder{"Transcripts", ""}]}]}]}]
	if day == "" || svc.uploadParent["20250123_143022_job1.txt"] != day {
		t.Errorf("transcript not placed in the day folder: %v", svc.uploadParent)
	}
	if svc.uploads["20250123_143022_job1.txt"] != "the camera is great" {
		t.Errorf("unexpected transcript body %q", svc.uploads["20250123_143022_job1.txt"])
	}

	var meta map[string]any
	if err := json.Unmarshal([]byte(svc.uploads["20250123_143022_job1_meta.json"]), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["job_id"] != "job1" || meta["word_count"] != float64(4) || meta["platform"] != "youtube" {
		t.Errorf("unexpected metadata %v", meta)
	}

	// a second export on the same day reuses the folders
	if _, err := dc.Export(context.Background(), TranscriptExport{JobID: "job2", Text: "x", Finished: finished.Add(time.Minute)}); err != nil {
		t.Fatalf("second Export failed: %v", err)
	}
	if svc.created != 4 {
		t.Errorf("folders recreated: %d", svc.created)
	}
}

func TestDriveExportRetries(t *testing.T) {
	svc := newFakeDrive()
	svc.failUploads = 2
	dc := testDriveClient(t, svc)

	if _, err := dc.Export(context.Background(), TranscriptExport{JobID: "j", Text: "hello"}); err != nil {
		t.Fatalf("Export should succeed after retries: %v", err)
	}

	svc.failUploads = 10
	_, err := dc.Export(context.Background(), TranscriptExport{JobID: "k", Text: "hello"})
	if err == nil || !strings.Contains(err.Error(), "failed to upload transcript") {
		t.Fatalf("expected upload failure, got %v", err)
	}
}

func TestNewDriveClientRequiresToken(t *testing.T) {
	_, err := NewDriveClient(context.Background(), "/nonexistent/credentials.json", "/nonexistent/token.json", "Transcripts")
	if err == nil {
		t.Fatal("expected an error without credentials")
	}
}
