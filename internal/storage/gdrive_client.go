package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveService is the subset of the Drive API the exporter needs. Tests
// provide an in-memory implementation.
type DriveService interface {
	FindFolder(ctx context.Context, name, parentID string) (string, error)
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	Upload(ctx context.Context, name, mimeType, parentID string, body io.Reader) (*drive.File, error)
}

// GoogleDriveService is the production DriveService
type GoogleDriveService struct {
	service *drive.Service
}

// FindFolder returns the id of a folder named name under parentID, or "" if
// there is none. An empty parentID searches the whole drive.
func (s *GoogleDriveService) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", escapeQuery(name), folderMimeType)
	if parentID != "" {
		query += fmt.Sprintf(" and '%s' in parents", parentID)
	}
	r, err := s.service.Files.List().Q(query).Spaces("drive").
		Fields(googleapi.Field("files(id, name)")).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(r.Files) == 0 {
		return "", nil
	}
	return r.Files[0].Id, nil
}

// CreateFolder creates a folder and returns its id
func (s *GoogleDriveService) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	folder := &drive.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}
	file, err := s.service.Files.Create(folder).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return file.Id, nil
}

// Upload creates a file with the given content
func (s *GoogleDriveService) Upload(ctx context.Context, name, mimeType, parentID string, body io.Reader) (*drive.File, error) {
	file := &drive.File{Name: name, MimeType: mimeType, Parents: []string{parentID}}
	return s.service.Files.Create(file).Media(body).Fields("id, webViewLink").Context(ctx).Do()
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

// TranscriptExport is what gets written to Drive for one finished job
type TranscriptExport struct {
	JobID     string
	SourceURL string
	Platform  string
	Text      string
	Finished  time.Time
}

// DriveClient uploads finished transcripts into dated folders under a root
// folder: <root>/2025/01/23/<time>_<job>.txt plus a _meta.json sidecar.
type DriveClient struct {
	service    DriveService
	folderName string
	newBackOff func() backoff.BackOff
}

// DriveOption configures a DriveClient
type DriveOption func(*DriveClient)

// WithDriveService sets a custom drive service (for testing)
func WithDriveService(svc DriveService) DriveOption {
	return func(dc *DriveClient) {
		dc.service = svc
	}
}

// WithDriveBackOff sets the retry policy factory
func WithDriveBackOff(f func() backoff.BackOff) DriveOption {
	return func(dc *DriveClient) {
		dc.newBackOff = f
	}
}

// NewDriveClient creates a Drive exporter. Without WithDriveService it
// authenticates with the OAuth client in credentialsFile and the token cached
// in tokenFile (see AuthorizeDrive).
func NewDriveClient(ctx context.Context, credentialsFile, tokenFile, folderName string, opts ...DriveOption) (*DriveClient, error) {
	dc := &DriveClient{
		folderName: folderName,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = time.Minute
			return backoff.WithMaxRetries(bo, 3)
		},
	}
	for _, opt := range opts {
		opt(dc)
	}

	if dc.service == nil {
		config, err := oauthConfig(credentialsFile)
		if err != nil {
			return nil, err
		}
		tok, err := tokenFromFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("no cached Drive token at %s, run the drive-auth command first: %w", tokenFile, err)
		}
		srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
		if err != nil {
			return nil, fmt.Errorf("unable to create Drive service: %w", err)
		}
		dc.service = &GoogleDriveService{service: srv}
	}
	return dc, nil
}

// Export uploads a transcript and its metadata. Each Drive call is retried
// with backoff. The returned URL points at the transcript file.
func (dc *DriveClient) Export(ctx context.Context, t TranscriptExport) (string, error) {
	if t.Finished.IsZero() {
		t.Finished = time.Now()
	}

	folderID, err := dc.ensureDateFolder(ctx, t.Finished)
	if err != nil {
		return "", err
	}

	base := fmt.Sprintf("%s_%s", t.Finished.Format("20060102_150405"), t.JobID)

	var txt *drive.File
	err = dc.retry(ctx, func() error {
		var err error
		txt, err = dc.service.Upload(ctx, base+".txt", "text/plain", folderID, strings.NewReader(t.Text))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload transcript: %w", err)
	}

	meta, _ := json.MarshalIndent(map[string]interface{}{
		"job_id":      t.JobID,
		"source_url":  t.SourceURL,
		"platform":    t.Platform,
		"characters":  len([]rune(t.Text)),
		"word_count":  len(strings.Fields(t.Text)),
		"finished_at": t.Finished.UTC(),
	}, "", "  ")
	err = dc.retry(ctx, func() error {
		_, err := dc.service.Upload(ctx, base+"_meta.json", "application/json", folderID, strings.NewReader(string(meta)))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload metadata: %w", err)
	}

	if txt.WebViewLink != "" {
		return txt.WebViewLink, nil
	}
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", txt.Id), nil
}

func (dc *DriveClient) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(op, backoff.WithContext(dc.newBackOff(), ctx))
}

// ensureDateFolder resolves <root>/YYYY/MM/DD, creating what is missing
func (dc *DriveClient) ensureDateFolder(ctx context.Context, t time.Time) (string, error) {
	parent := ""
	for _, name := range []string{
		dc.folderName,
		fmt.Sprintf("%d", t.Year()),
		fmt.Sprintf("%02d", t.Month()),
		fmt.Sprintf("%02d", t.Day()),
	} {
		id, err := dc.findOrCreateFolder(ctx, name, parent)
		if err != nil {
			return "", fmt.Errorf("failed to prepare folder %s: %w", name, err)
		}
		parent = id
	}
	return parent, nil
}

func (dc *DriveClient) findOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	var id string
	err := dc.retry(ctx, func() error {
		var err error
		id, err = dc.service.FindFolder(ctx, name, parentID)
		if err != nil || id != "" {
			return err
		}
		id, err = dc.service.CreateFolder(ctx, name, parentID)
		return err
	})
	return id, err
}

func oauthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	return config, nil
}

// AuthorizeDrive runs the interactive OAuth flow: it prints the consent URL to
// out, reads the authorization code from in and caches the token in tokenFile.
func AuthorizeDrive(ctx context.Context, credentialsFile, tokenFile string, in io.Reader, out io.Writer) error {
	config, err := oauthConfig(credentialsFile)
	if err != nil {
		return err
	}

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser:\n%v\n", authURL)
	fmt.Fprint(out, "Enter authorization code: ")

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && code == "" {
		return fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return saveToken(tokenFile, tok)
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
