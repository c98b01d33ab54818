package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"raidsched/internal/model"
)

// ErrInvalidCommunityID is returned for ids that cannot be used as file names.
var ErrInvalidCommunityID = errors.New("store: invalid community id")

var communityIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]{0,127}$`)

// FileStore keeps one JSON document per community under
// <dir>/scheduling/<communityID>.json.
type FileStore struct {
	dir       string
	defaultTZ string
}

func NewFileStore(dir, defaultTZ string) *FileStore {
	return &FileStore{
		dir:       filepath.Join(dir, "scheduling"),
		defaultTZ: defaultZone(defaultTZ),
	}
}

func (f *FileStore) path(communityID string) (string, error) {
	if !communityIDPattern.MatchString(communityID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCommunityID, communityID)
	}
	return filepath.Join(f.dir, communityID+".json"), nil
}

func (f *FileStore) GetSchedule(ctx context.Context, communityID string) (model.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return model.Schedule{}, err
	}
	path, err := f.path(communityID)
	if err != nil {
		return model.Schedule{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.NewSchedule(f.defaultTZ), nil
		}
		return model.Schedule{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decode(data, f.defaultTZ)
}

// UpdateSchedule writes the document atomically: temp file in the same
// directory, fsync, chmod 0600, then rename over the target.
func (f *FileStore) UpdateSchedule(ctx context.Context, communityID string, s model.Schedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := f.path(communityID)
	if err != nil {
		return err
	}
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".schedule-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
