// Package handlers holds the concrete downloader implementations.
package handlers

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/download"
	"github.com/allypost/dlhub/internal/download/headers"
	"github.com/allypost/dlhub/internal/httpclient"
	"github.com/allypost/dlhub/internal/idutil"
)

const maxFilenameLength = 120

// mimeExtensions covers the common media types this hub actually
// encounters; anything else falls back to the stdlib mime package's
// system table, and failing that has no extension appended.
var mimeExtensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/quicktime": "mov",
	"audio/mpeg":      "mp3",
	"audio/ogg":       "ogg",
	"audio/wav":       "wav",
	"application/zip": "zip",
	"application/pdf": "pdf",
	"text/plain":      "txt",
}

// Generic is the fallback HTTP downloader: a plain GET streamed to disk,
// with filename resolution via Content-Disposition, Content-Type, or the
// URL's last path segment. Grounded on downloaders/handlers/generic.rs.
type Generic struct {
	HTTP *httpclient.Client
}

func (Generic) Name() string        { return "generic" }
func (Generic) Description() string { return "Downloads a URL directly over HTTP." }
func (Generic) CanRun() bool        { return true }

func (Generic) CanDownload(_ context.Context, req download.Request) bool {
	return strings.HasPrefix(req.URL, "http://") || strings.HasPrefix(req.URL, "https://")
}

func (g Generic) Download(ctx context.Context, req download.Request) (download.Result, error) {
	httpReq := httpclient.Request{Method: http.MethodGet, URL: req.URL, Headers: req.Headers}
	if req.TimeoutSeconds > 0 {
		httpReq.Timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	resp, err := g.HTTP.Do(ctx, httpReq)
	if err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("generic: requesting %s: %w", req.URL, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return download.Result{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("generic: %s returned status %d", req.URL, resp.StatusCode))
	}

	name := filenameFor(req.URL, resp.Header.Get("Content-Disposition"), resp.Header.Get("Content-Type"))

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("generic: creating output dir: %w", err))
	}

	outPath := filepath.Join(req.OutputDir, name)
	f, err := os.Create(outPath)
	if err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("generic: creating %s: %w", outPath, err))
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("generic: streaming %s to disk: %w", req.URL, err))
	}

	return download.Result{FilePath: outPath}, nil
}

// filenameFor produces "<time-id>.<truncated-name>.<ext>": the stem comes
// from Content-Disposition, falling back to the URL's last path segment,
// but the extension is always the one Content-Type maps to (mime2ext),
// regardless of whatever extension the stem itself carried — a stale or
// wrong extension in a filename shouldn't outrank the declared media type.
func filenameFor(rawURL, contentDisposition, contentType string) string {
	stem := "file"

	if name, ok := headers.Filename(contentDisposition); ok && name != "" {
		stem, _ = splitExt(name)
	} else if last := lastPathSegment(rawURL); last != "" {
		stem, _ = splitExt(last)
	}

	ext := extFromContentType(contentType)

	stem = headers.TruncateFilename(stem, maxFilenameLength)
	if stem == "" {
		stem = "file"
	}

	id := idutil.TimeID()
	if ext == "" {
		return fmt.Sprintf("%s.%s", id, stem)
	}
	return fmt.Sprintf("%s.%s.%s", id, stem, ext)
}

func splitExt(name string) (stem, ext string) {
	e := path.Ext(name)
	if e == "" {
		return name, ""
	}
	return strings.TrimSuffix(name, e), strings.TrimPrefix(e, ".")
}

func extFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	if ext, ok := mimeExtensions[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return ""
}

func lastPathSegment(rawURL string) string {
	cleaned := strings.SplitN(rawURL, "?", 2)[0]
	cleaned = strings.SplitN(cleaned, "#", 2)[0]
	return path.Base(cleaned)
}
