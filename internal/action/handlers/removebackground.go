package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allypost/dlhub/internal/action"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/fix"
	fixhandlers "github.com/allypost/dlhub/internal/fix/handlers"
	"github.com/allypost/dlhub/internal/fsutil"
	"github.com/allypost/dlhub/internal/httpclient"
)

const removeBackgroundMaxRetries = 5

// RemoveBackground uploads the file to a temporary public host, asks
// birefnet.top to segment out the background, downloads the result, and
// finishes with a CropImage pass to trim the now-transparent margins.
// Grounded on actions/handlers/remove_background.rs.
type RemoveBackground struct {
	HTTP *httpclient.Client
}

func (RemoveBackground) Name() string        { return "remove-background" }
func (RemoveBackground) Description() string { return "Removes an image's background." }
func (RemoveBackground) CanRun() bool        { return true }

func (RemoveBackground) CanRunFor(_ context.Context, req action.Request) bool {
	mt, err := fsutil.SniffMIME(req.FilePath)
	return err == nil && mt != nil && strings.HasPrefix(mt.String(), "image/")
}

func (r RemoveBackground) Run(ctx context.Context, req action.Request) (action.Result, error) {
	uploadURL, token, err := r.uploadTemp(ctx, req.FilePath)
	if err != nil {
		return action.Result{}, err
	}
	defer r.deleteTemp(ctx, uploadURL, token)

	resultURL, err := r.generate(ctx, uploadURL)
	if err != nil {
		return action.Result{}, err
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(req.FilePath)
	}
	if err := fsutil.EnsureDir(outputDir); err != nil {
		return action.Result{}, err
	}

	outPath := filepath.Join(outputDir, fsutil.FileNameWithSuffix(filepath.Base(req.FilePath), "nobg"))
	if err := r.download(ctx, resultURL, outPath); err != nil {
		return action.Result{}, err
	}

	cropped, err := fixhandlers.CropImage{}.Run(ctx, fix.Request{Path: outPath})
	if err == nil && cropped.Path != "" {
		outPath = cropped.Path
	}

	return action.Result{FilePaths: []string{outPath}}, nil
}

func (r RemoveBackground) uploadTemp(ctx context.Context, filePath string) (url, token string, err error) {
	f, openErr := os.Open(filePath)
	if openErr != nil {
		return "", "", corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("remove-background: opening %q: %w", filePath, openErr))
	}
	defer f.Close()

	resp, postErr := r.HTTP.PostMultipart(ctx, "https://0x0.st", "file", filepath.Base(filePath), f, nil)
	if postErr != nil {
		return "", "", corerr.Wrap(corerr.ErrTransient, fmt.Errorf("remove-background: uploading to 0x0.st: %w", postErr))
	}
	defer resp.Body.Close()

	body, readErr := readBody(resp)
	if readErr != nil {
		return "", "", corerr.Wrap(corerr.ErrTransient, fmt.Errorf("remove-background: reading 0x0.st response: %w", readErr))
	}

	return strings.TrimSpace(string(body)), resp.Header.Get("X-Token"), nil
}

func (r RemoveBackground) deleteTemp(ctx context.Context, uploadURL, token string) {
	if uploadURL == "" {
		return
	}
	form := map[string]string{"token": token, "delete": "1"}
	_, _ = r.HTTP.PostForm(ctx, uploadURL, nil, toValues(form))
}

type birefnetResponse struct {
	ImageURL string `json:"imageUrl"`
}

func (r RemoveBackground) generate(ctx context.Context, imageURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < removeBackgroundMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", corerr.Wrap(corerr.ErrCancelled, ctx.Err())
			case <-time.After(time.Second):
			}
		}

		resp, err := r.HTTP.PostJSON(ctx, "https://birefnet.top/api/generate", nil, map[string]any{"imageUrl": imageURL})
		if err != nil {
			lastErr = err
			continue
		}

		var out birefnetResponse
		decErr := json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if decErr != nil {
			lastErr = decErr
			continue
		}
		if out.ImageURL == "" {
			lastErr = fmt.Errorf("remove-background: empty imageUrl in response")
			continue
		}
		return out.ImageURL, nil
	}
	return "", corerr.Wrap(corerr.ErrTransient, fmt.Errorf("remove-background: generate failed after %d attempts: %w", removeBackgroundMaxRetries, lastErr))
}

func (r RemoveBackground) download(ctx context.Context, url, outPath string) error {
	resp, err := r.HTTP.Do(ctx, httpclient.Request{Method: http.MethodGet, URL: url})
	if err != nil {
		return corerr.Wrap(corerr.ErrTransient, fmt.Errorf("remove-background: downloading result: %w", err))
	}
	defer resp.Body.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("remove-background: creating %q: %w", outPath, err))
	}
	defer f.Close()

	if _, err := copyResponseBody(f, resp); err != nil {
		return corerr.Wrap(corerr.ErrTransient, fmt.Errorf("remove-background: writing result: %w", err))
	}
	return nil
}
