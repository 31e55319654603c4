// Package fsutil provides the file-substrate helpers spec.md §2.3 names:
// scoped temp dirs/files, magic-byte MIME sniffing, file hashing and
// access/modification-time transfer across a rewrite.
package fsutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/allypost/dlhub/internal/corerr"
)

// TempDir is a scoped temporary directory removed on Close unless Keep is
// called, mirroring the `app-helpers::temp_dir::TempDir` pattern from the
// source this spec was distilled from.
type TempDir struct {
	path string
	keep bool
}

// NewTempDir creates a fresh temp directory under the OS temp root with
// the given prefix.
func NewTempDir(prefix string) (*TempDir, error) {
	path, err := os.MkdirTemp("", prefix+"-*")
	if err != nil {
		return nil, corerr.Wrap(corerr.ErrPermanent, err)
	}
	return &TempDir{path: path}, nil
}

// Path returns the directory's absolute path.
func (t *TempDir) Path() string { return t.path }

// Keep disables the cleanup that Close would otherwise perform, for
// callers that hand the directory's contents off to someone else.
func (t *TempDir) Keep() { t.keep = true }

// Close removes the directory tree unless Keep was called.
func (t *TempDir) Close() error {
	if t.keep {
		return nil
	}
	return os.RemoveAll(t.path)
}

// FileTimes captures a file's access and modification times so they can
// be re-applied to a replacement file after a rewrite (spec.md invariant:
// "if the fixer chose to delete the original, the original's
// access/modification times are copied to the new path").
type FileTimes struct {
	Atime time.Time
	Mtime time.Time
}

// CaptureFileTimes reads path's current times.
func CaptureFileTimes(path string) (FileTimes, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileTimes{}, corerr.Wrap(corerr.ErrPermanent, err)
	}
	mtime := info.ModTime()
	// os.FileInfo doesn't expose atime portably; mtime is the best
	// cross-platform proxy and is what downstream fixers actually compare.
	return FileTimes{Atime: mtime, Mtime: mtime}, nil
}

// Apply re-applies times to path.
func (ft FileTimes) Apply(path string) error {
	if err := os.Chtimes(path, ft.Atime, ft.Mtime); err != nil {
		return corerr.Wrap(corerr.ErrTransient, err)
	}
	return nil
}

// SniffMIME infers a file's MIME type from its magic bytes (falling back
// to the extension only if the library does, per mimetype's own
// behavior), for the FileExtension fixer and the compact/crop applicability
// checks.
func SniffMIME(path string) (*mimetype.MIME, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, corerr.Wrap(corerr.ErrPermanent, err)
	}
	return mt, nil
}

// HashFileSHA256 returns the lowercase hex SHA-256 digest of path's
// contents.
func HashFileSHA256(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", corerr.Wrap(corerr.ErrPermanent, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 1<<20)
	for {
		if err := ctx.Err(); err != nil {
			return "", corerr.Wrap(corerr.ErrCancelled, err)
		}
		n, readErr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", corerr.Wrap(corerr.ErrTransient, readErr)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileNameWithSuffix returns path (directory kept) with suffix inserted
// before the extension: "clip.mp4" + "c" -> "clip.c.mp4". Used by CompactMedia
// and the crop fixers for their sibling-output naming convention.
func FileNameWithSuffix(path, suffix string) string {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	stem = filepath.Base(stem)
	name := stem + "." + suffix + ext
	if dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}

// IsRegularFile reports whether path resolves (following symlinks) to an
// existing regular file, per the fixer chain's precondition.
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// EnsureDir creates dir (and parents) if absent.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return corerr.Wrap(corerr.ErrPermanent, err)
	}
	return nil
}

// MoveToTrash moves path into the freedesktop.org home trash
// (~/.local/share/Trash/{files,info}), writing the .trashinfo sidecar
// the spec requires, falling back to a plain unlink if the trash
// directory can't be created or the rename fails (e.g. across a
// filesystem boundary). No third-party trash library appears anywhere
// in the retrieved corpus, so this is hand-rolled against the published
// spec rather than a guessed dependency.
func MoveToTrash(path string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return unlink(path)
	}

	trashDir := filepath.Join(home, ".local", "share", "Trash")
	filesDir := filepath.Join(trashDir, "files")
	infoDir := filepath.Join(trashDir, "info")
	if err := os.MkdirAll(filesDir, 0o700); err != nil {
		return unlink(path)
	}
	if err := os.MkdirAll(infoDir, 0o700); err != nil {
		return unlink(path)
	}

	name := filepath.Base(path)
	dest := uniqueTrashPath(filesDir, name)
	destName := filepath.Base(dest)

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		absPath, time.Now().Format("2006-01-02T15:04:05"))
	infoPath := filepath.Join(infoDir, destName+".trashinfo")
	if err := os.WriteFile(infoPath, []byte(info), 0o600); err != nil {
		return unlink(path)
	}

	if err := os.Rename(path, dest); err != nil {
		os.Remove(infoPath)
		return unlink(path)
	}

	return nil
}

func uniqueTrashPath(filesDir, name string) string {
	candidate := filepath.Join(filesDir, name)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate = filepath.Join(filesDir, fmt.Sprintf("%s.%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func unlink(path string) error {
	if err := os.Remove(path); err != nil {
		return corerr.Wrap(corerr.ErrPermanent, err)
	}
	return nil
}
