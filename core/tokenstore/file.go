package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// fileState is the on-disk layout. Field names match the fixed store keys so the
// file stays greppable and debuggable by hand.
type fileState struct {
	AccessToken  string          `json:"auth.accessToken,omitempty"`
	RefreshToken string          `json:"auth.refreshToken,omitempty"`
	Snapshot     json.RawMessage `json:"auth.session,omitempty"`
}

// File persists credentials to a single JSON file, suitable for CLI and desktop
// clients. Writes go through a temp file and rename so a crash mid-write never
// leaves a truncated credentials file. Safe for concurrent use within one process.
type File struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// FileOption configures a File store.
type FileOption func(*File)

// WithFileLogger sets the logger used to report swallowed persistence failures.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(f *File) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFile creates a file-backed store at the given path. The parent directory is
// created on first write. The file itself is created lazily.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{
		path:   path,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *File) SetAccessToken(ctx context.Context, token string) {
	f.update(ctx, func(s *fileState) { s.AccessToken = token })
}

func (f *File) SetRefreshToken(ctx context.Context, token string) {
	f.update(ctx, func(s *fileState) { s.RefreshToken = token })
}

func (f *File) AccessToken(ctx context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(ctx).AccessToken
}

func (f *File) RefreshToken(ctx context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(ctx).RefreshToken
}

func (f *File) Clear(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		f.logger.WarnContext(ctx, "failed to remove credentials file",
			slog.String("path", f.path), slog.Any("error", err))
	}
}

func (f *File) SaveSnapshot(ctx context.Context, blob []byte) {
	f.update(ctx, func(s *fileState) { s.Snapshot = append(json.RawMessage(nil), blob...) })
}

func (f *File) LoadSnapshot(ctx context.Context) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := f.load(ctx).Snapshot
	if len(snap) == 0 {
		return nil
	}
	return append([]byte(nil), snap...)
}

// update applies a mutation to the on-disk state under the lock.
func (f *File) update(ctx context.Context, mutate func(*fileState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.load(ctx)
	mutate(&state)
	f.save(ctx, state)
}

// load reads the current state, returning a zero state when the file is missing
// or unreadable. A corrupt file is treated as empty: the session manager will
// simply require a fresh login.
func (f *File) load(ctx context.Context) fileState {
	var state fileState
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.WarnContext(ctx, "failed to read credentials file",
				slog.String("path", f.path), slog.Any("error", err))
		}
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		f.logger.WarnContext(ctx, "corrupt credentials file, treating as empty",
			slog.String("path", f.path), slog.Any("error", err))
		return fileState{}
	}
	return state
}

// save writes the state atomically. Failures are swallowed per the Store
// contract; the worst case is a re-login on next start.
func (f *File) save(ctx context.Context, state fileState) {
	data, err := json.Marshal(state)
	if err != nil {
		f.logger.WarnContext(ctx, "failed to encode credentials",
			slog.Any("error", err))
		return
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		f.logger.WarnContext(ctx, "failed to create credentials directory",
			slog.String("dir", dir), slog.Any("error", err))
		return
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		f.logger.WarnContext(ctx, "failed to create temp credentials file",
			slog.Any("error", err))
		return
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmpName)
		f.logger.WarnContext(ctx, "failed to write credentials file",
			slog.Any("error", errors.Join(werr, cerr)))
		return
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		f.logger.WarnContext(ctx, "failed to set credentials file mode",
			slog.Any("error", err))
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		f.logger.WarnContext(ctx, "failed to replace credentials file",
			slog.String("path", f.path), slog.Any("error", err))
	}
}
