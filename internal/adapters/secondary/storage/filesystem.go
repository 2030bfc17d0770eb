package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
	"github.com/fredcamaral/texdeck/internal/domain/ports"
)

// TimestampLayout is the artifact timestamp, second resolution
const TimestampLayout = "20060102_150405"

// mediaDirName is the media subdirectory of the output directory
const mediaDirName = "media"

// FilesystemStore keeps artifacts and copied media in one output directory.
// Artifacts are named <deck>_<Locale>_<timestamp>.<ext>; two conversions
// within the same second and locale write the same name.
type FilesystemStore struct {
	dir          string
	deckName     string
	timeProvider ports.TimeProvider
}

// NewFilesystemStore creates the output and media directories if needed
func NewFilesystemStore(dir, deckName string, timeProvider ports.TimeProvider) (*FilesystemStore, error) {
	if dir == "" {
		return nil, errors.New("output directory cannot be empty")
	}
	if timeProvider == nil {
		timeProvider = ports.NewRealTimeProvider()
	}

	if err := os.MkdirAll(filepath.Join(dir, mediaDirName), 0750); err != nil {
		return nil, &entities.ConversionError{
			Type:    entities.ErrorTypeFilesystem,
			Message: "failed to create output directory",
			Path:    dir,
			Cause:   err,
		}
	}

	return &FilesystemStore{
		dir:          dir,
		deckName:     deckName,
		timeProvider: timeProvider,
	}, nil
}

// Dir returns the output directory
func (s *FilesystemStore) Dir() string {
	return s.dir
}

// MediaDir returns the directory holding copied media
func (s *FilesystemStore) MediaDir() string {
	return filepath.Join(s.dir, mediaDirName)
}

// ArtifactPath builds the destination for a new artifact
func (s *FilesystemStore) ArtifactPath(locale entities.Locale, format entities.Format) (string, string) {
	filename := ArtifactName(s.deckName, locale, format, s.timeProvider.Now())
	return filename, filepath.Join(s.dir, filename)
}

// ArtifactName formats an artifact filename
func ArtifactName(deckName string, locale entities.Locale, format entities.Format, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.%s", deckName, locale.Suffix(), at.Format(TimestampLayout), format.Extension())
}

// Open returns an artifact by name. Directory components are discarded, so
// only files directly inside the output directory are reachable.
func (s *FilesystemStore) Open(filename string) (*os.File, os.FileInfo, error) {
	name := SecureFilename(filename)
	if name == "" {
		return nil, nil, os.ErrNotExist
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Open(path) // #nosec G304 - name reduced to a bare file name above
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, os.ErrNotExist
	}

	return f, info, nil
}

// SaveMedia copies an uploaded stream into the media directory
func (s *FilesystemStore) SaveMedia(name string, r io.Reader) (string, error) {
	clean := SecureFilename(name)
	if clean == "" {
		return "", fmt.Errorf("invalid media file name: %q", name)
	}

	dst := filepath.Join(s.MediaDir(), clean)
	f, err := os.Create(dst) // #nosec G304 - name sanitized above
	if err != nil {
		return "", fmt.Errorf("creating media file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("writing media file: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing media file: %w", err)
	}
	return dst, nil
}

// ImportMedia copies a local file into the media directory
func (s *FilesystemStore) ImportMedia(src string) (string, error) {
	in, err := os.Open(filepath.Clean(src)) // #nosec G304 - local CLI input
	if err != nil {
		return "", fmt.Errorf("opening media file: %w", err)
	}
	defer func() { _ = in.Close() }()

	return s.SaveMedia(filepath.Base(src), in)
}

// Remove deletes a file, ignoring missing ones
func (s *FilesystemStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Purge deletes regular files older than maxAge from the output directory
// and its media directory. Subdirectories are never descended into.
func (s *FilesystemStore) Purge(maxAge time.Duration) (int, error) {
	count := 0
	var errs []error

	for _, dir := range []string{s.dir, s.MediaDir()} {
		n, err := s.purgeDir(dir, maxAge)
		count += n
		if err != nil {
			errs = append(errs, err)
		}
	}

	return count, errors.Join(errs...)
}

func (s *FilesystemStore) purgeDir(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	count := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if s.timeProvider.Since(info.ModTime()) <= maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		count++
	}

	return count, errors.Join(errs...)
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces a user supplied name to a safe bare file name:
// directory components are dropped, whitespace becomes '_', characters
// outside [A-Za-z0-9_.-] are removed and leading dots are stripped.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._")
	if name == "" || name == "." {
		return ""
	}
	return name
}

// Ensure FilesystemStore implements ports.ArtifactStore
var _ ports.ArtifactStore = (*FilesystemStore)(nil)
