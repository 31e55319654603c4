package music

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/download"
	"github.com/allypost/dlhub/internal/fsutil"
	"github.com/allypost/dlhub/internal/httpclient"
)

var yamsHosts = map[string]string{
	"spotify": "FLAC",
	"qobuz":   "FLAC",
	"tidal":   "HIFI_PLUS",
	"apple":   "ALAC",
	"deezer":  "FLAC",
}

// Yams handles any streaming host via yams.tf, a generic conversion
// service: it submits the URL, polls for completion, then downloads and
// unzips the result. Grounded on downloaders/handlers/music/yams.rs.
type Yams struct {
	HTTP    *httpclient.Client
	Generic download.Downloader
}

func (Yams) Supports(rawURL string) bool {
	_, ok := yamsQuality(rawURL)
	return ok
}

func yamsQuality(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	for key, quality := range yamsHosts {
		if strings.Contains(host, key) {
			return quality, true
		}
	}
	return "", false
}

type yamsSubmitResponse struct {
	ID int `json:"id"`
}

type yamsPollResponse struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

func (y Yams) Download(ctx context.Context, req download.Request) (download.Result, error) {
	quality, ok := yamsQuality(req.URL)
	if !ok {
		return download.Result{}, corerr.Wrap(corerr.ErrNotApplicable, fmt.Errorf("yams: %q is not a supported streaming host", req.URL))
	}

	resp, err := y.HTTP.PostJSON(ctx, "https://yams.tf/api", nil, map[string]any{
		"url":     req.URL,
		"quality": quality,
		"host":    "filehaus",
	})
	if err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("yams: submitting job: %w", err))
	}
	var submit yamsSubmitResponse
	decErr := json.NewDecoder(resp.Body).Decode(&submit)
	resp.Body.Close()
	if decErr != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yams: decoding submit response: %w", decErr))
	}

	pollURL := fmt.Sprintf("https://yams.tf/api?id=%s", strconv.Itoa(submit.ID))

	var resultURL string
	for attempt := 0; attempt < 300; attempt++ {
		select {
		case <-ctx.Done():
			return download.Result{}, corerr.Wrap(corerr.ErrCancelled, ctx.Err())
		case <-time.After(time.Second):
		}

		body, _, err := y.HTTP.ReadAll(ctx, httpclient.Request{URL: pollURL})
		if err != nil {
			continue
		}
		var poll yamsPollResponse
		if err := json.Unmarshal(body, &poll); err != nil {
			continue
		}
		if poll.Error != "" {
			return download.Result{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("yams: job failed: %s", poll.Error))
		}
		if poll.URL != "" {
			resultURL = poll.URL
			break
		}
	}

	if resultURL == "" {
		return download.Result{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("yams: job did not complete within the poll budget"))
	}

	scratch, err := fsutil.NewTempDir("dlhub-yams")
	if err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yams: creating scratch dir: %w", err))
	}
	defer scratch.Close()

	zipReq := req
	zipReq.URL = resultURL
	zipReq.OutputDir = scratch.Path()

	zipResult, err := y.Generic.Download(ctx, zipReq)
	if err != nil {
		return download.Result{}, fmt.Errorf("yams: downloading result zip: %w", err)
	}

	return extractFirstFile(zipResult.FilePath, req.OutputDir)
}

// extractFirstFile unzips archivePath and copies the first non-dotfile
// member into outputDir, matching the single-track nature of a yams job.
func extractFirstFile(archivePath, outputDir string) (download.Result, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yams: opening zip: %w", err))
	}
	defer r.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yams: creating output dir: %w", err))
	}

	for _, f := range r.File {
		base := filepath.Base(f.Name)
		if f.FileInfo().IsDir() || strings.HasPrefix(base, ".") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yams: opening zip member %s: %w", f.Name, err))
		}

		outPath := filepath.Join(outputDir, base)
		out, err := os.Create(outPath)
		if err != nil {
			rc.Close()
			return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yams: creating %s: %w", outPath, err))
		}

		_, copyErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if copyErr != nil {
			return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yams: extracting %s: %w", f.Name, copyErr))
		}

		return download.Result{FilePath: outPath}, nil
	}

	return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yams: zip contained no usable file"))
}
