// Package fsstorage keeps staged uploads and imported photos on an afero
// filesystem.
//
// Layout below Root:
//
//	inbox/            staged uploads, named <entry id>.<ext>
//	inbox/toprocess/  copies of staged uploads for external image processing
//	inbox/processed/  moderator-edited versions of staged uploads
//	inbox/done/       originals of imported uploads
//	inbox/rejected/   rejected or withdrawn uploads
//	photos/<country>/ imported photos, served below the photo base url
package fsstorage

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/goliatone/go-station-inbox/core"
)

const (
	inboxDir     = "inbox"
	toProcessDir = "toprocess"
	processedDir = "processed"
	doneDir      = "done"
	rejectedDir  = "rejected"
	photosDir    = "photos"

	filePerm = 0o644
	dirPerm  = 0o755
)

type Config struct {
	Root          string `koanf:"root" mapstructure:"root"`
	MaxUploadSize int64  `koanf:"max_upload_size" mapstructure:"max_upload_size"`
}

type PhotoStorage struct {
	fs      afero.Fs
	root    string
	maxSize int64
}

// New prepares the directory layout. A nil fs means the OS filesystem.
func New(fs afero.Fs, config Config) (*PhotoStorage, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if config.MaxUploadSize < 0 {
		return nil, fmt.Errorf("fsstorage: max upload size must not be negative")
	}
	s := &PhotoStorage{
		fs:      fs,
		root:    filepath.Clean(strings.TrimSpace(config.Root)),
		maxSize: config.MaxUploadSize,
	}
	for _, dir := range []string{
		s.inboxPath(""),
		s.inboxPath(toProcessDir),
		s.inboxPath(processedDir),
		s.inboxPath(doneDir),
		s.inboxPath(rejectedDir),
		filepath.Join(s.root, photosDir),
	} {
		if err := fs.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("fsstorage: create %s: %w", dir, err)
		}
	}
	return s, nil
}

// StoreUpload streams body into the inbox while computing its CRC32. Uploads
// above the size limit are removed again and reported as PhotoTooLargeError.
func (s *PhotoStorage) StoreUpload(ctx context.Context, body io.Reader, filename string) (uint32, error) {
	if body == nil {
		return 0, fmt.Errorf("fsstorage: upload body is required")
	}
	if err := validateFilename(filename); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	target := s.inboxPath("", filename)
	file, err := s.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return 0, fmt.Errorf("fsstorage: create upload: %w", err)
	}

	reader := body
	if s.maxSize > 0 {
		reader = io.LimitReader(body, s.maxSize+1)
	}
	hash := crc32.NewIEEE()
	written, copyErr := io.Copy(io.MultiWriter(file, hash), reader)
	closeErr := file.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = s.fs.Remove(target)
		return 0, fmt.Errorf("fsstorage: write upload: %w", copyErr)
	}
	if s.maxSize > 0 && written > s.maxSize {
		_ = s.fs.Remove(target)
		return 0, &core.PhotoTooLargeError{MaxSize: s.maxSize}
	}
	if err := s.copyFile(target, s.inboxPath(toProcessDir, filename)); err != nil {
		_ = s.fs.Remove(target)
		return 0, fmt.Errorf("fsstorage: queue upload for processing: %w", err)
	}
	return hash.Sum32(), nil
}

// ImportPhoto publishes the processed version when a moderator provided one,
// the original otherwise, and archives the original in inbox/done. Calling it
// again for the same entry returns the already published path.
func (s *PhotoStorage) ImportPhoto(ctx context.Context, entry core.InboxEntry, station core.Station) (string, error) {
	filename := entry.Filename()
	if err := validateFilename(filename); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	country := strings.TrimSpace(station.Key.Country)
	if country == "" || strings.TrimSpace(station.Key.ID) == "" {
		return "", fmt.Errorf("fsstorage: station key is required")
	}
	photoName := fmt.Sprintf("%s_%s.%s", station.Key.ID, entry.ID, entry.Extension)
	if err := validateFilename(photoName); err != nil {
		return "", err
	}

	countryDir := filepath.Join(s.root, photosDir, country)
	target := filepath.Join(countryDir, photoName)
	urlPath := path.Join("/", country, photoName)
	published, err := afero.Exists(s.fs, target)
	if err != nil {
		return "", fmt.Errorf("fsstorage: stat %s: %w", target, err)
	}

	original := s.inboxPath("", filename)
	if ok, _ := afero.Exists(s.fs, original); !ok {
		// A previous attempt published and archived the upload.
		if archived, _ := afero.Exists(s.fs, s.inboxPath(doneDir, filename)); archived && published {
			return urlPath, nil
		}
		return "", fmt.Errorf("fsstorage: upload %s not found", filename)
	}
	if err := s.fs.MkdirAll(countryDir, dirPerm); err != nil {
		return "", fmt.Errorf("fsstorage: create %s: %w", countryDir, err)
	}

	processed := s.inboxPath(processedDir, filename)
	if ok, _ := afero.Exists(s.fs, processed); ok {
		if err := s.fs.Rename(processed, target); err != nil {
			return "", fmt.Errorf("fsstorage: publish processed photo: %w", err)
		}
	} else if !published {
		if err := s.copyFile(original, target); err != nil {
			return "", fmt.Errorf("fsstorage: publish photo: %w", err)
		}
	}
	if err := s.fs.Rename(original, s.inboxPath(doneDir, filename)); err != nil {
		return "", fmt.Errorf("fsstorage: archive upload: %w", err)
	}
	s.dropToProcess(filename)
	return urlPath, nil
}

// Reject moves the staged upload to inbox/rejected and drops any processed
// version. Missing files are not an error.
func (s *PhotoStorage) Reject(ctx context.Context, entry core.InboxEntry) error {
	filename := entry.Filename()
	if err := validateFilename(filename); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	original := s.inboxPath("", filename)
	if ok, _ := afero.Exists(s.fs, original); ok {
		if err := s.fs.Rename(original, s.inboxPath(rejectedDir, filename)); err != nil {
			return fmt.Errorf("fsstorage: reject upload: %w", err)
		}
	}
	processed := s.inboxPath(processedDir, filename)
	if ok, _ := afero.Exists(s.fs, processed); ok {
		if err := s.fs.Remove(processed); err != nil {
			return fmt.Errorf("fsstorage: remove processed upload: %w", err)
		}
	}
	s.dropToProcess(filename)
	return nil
}

// dropToProcess removes a queued processing copy that is no longer needed.
func (s *PhotoStorage) dropToProcess(filename string) {
	queued := s.inboxPath(toProcessDir, filename)
	if ok, _ := afero.Exists(s.fs, queued); ok {
		_ = s.fs.Remove(queued)
	}
}

func (s *PhotoStorage) IsProcessed(filename string) bool {
	if validateFilename(filename) != nil {
		return false
	}
	ok, err := afero.Exists(s.fs, s.inboxPath(processedDir, filename))
	return err == nil && ok
}

func (s *PhotoStorage) UploadFile(filename string) string {
	return s.inboxPath("", filename)
}

func (s *PhotoStorage) inboxPath(area string, filename ...string) string {
	parts := append([]string{s.root, inboxDir, area}, filename...)
	return filepath.Join(parts...)
}

func (s *PhotoStorage) copyFile(source string, target string) error {
	in, err := s.fs.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := s.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func validateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("fsstorage: filename is required")
	}
	if filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) || strings.HasPrefix(filename, ".") {
		return fmt.Errorf("fsstorage: invalid filename %q", filename)
	}
	return nil
}

var _ core.PhotoStorage = (*PhotoStorage)(nil)
