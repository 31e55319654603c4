package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/allypost/dlhub/internal/action"
	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/httpclient"
)

// OcrImage sends an image to a configured OCR endpoint and returns the
// recognized text, or lists the endpoint's available engines.
// Grounded on spec.md §4.6 (no active Rust registry entry; supplemented
// from the registry's dormant ocr_image.rs).
type OcrImage struct {
	HTTP *httpclient.Client
}

func (OcrImage) Name() string        { return "ocr-image" }
func (OcrImage) Description() string { return "Extracts text from an image via an OCR endpoint." }

func (OcrImage) CanRun() bool { return config.ValueOf.OCRAPIBaseURL != "" }

func (OcrImage) CanRunFor(_ context.Context, _ action.Request) bool { return true }

type ocrResponse struct {
	Data []struct {
		Text string `json:"text"`
	} `json:"data"`
}

func (o OcrImage) Run(ctx context.Context, req action.Request) (action.Result, error) {
	base := strings.TrimSuffix(config.ValueOf.OCRAPIBaseURL, "/")
	if base == "" {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("ocr-image: no OCR endpoint configured"))
	}

	if listEngines, _ := action.Option[bool](req, "list-engines"); listEngines {
		body, _, err := o.HTTP.ReadAll(ctx, httpclient.Request{URL: base + "/endpoints"})
		if err != nil {
			return action.Result{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("ocr-image: listing engines: %w", err))
		}
		return action.Result{Text: strings.TrimSpace(string(body))}, nil
	}

	engine, ok := action.Option[string](req, "engine")
	if !ok || engine == "" {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("ocr-image: missing required option \"engine\""))
	}

	f, err := os.Open(req.FilePath)
	if err != nil {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("ocr-image: opening %q: %w", req.FilePath, err))
	}
	defer f.Close()

	resp, err := o.HTTP.PostMultipart(ctx, fmt.Sprintf("%s/ocr/%s", base, engine), "file", filepath.Base(req.FilePath), f, nil)
	if err != nil {
		return action.Result{}, corerr.Wrap(corerr.ErrTransient, fmt.Errorf("ocr-image: posting to %s: %w", engine, err))
	}
	defer resp.Body.Close()

	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("ocr-image: decoding response: %w", err))
	}

	lines := make([]string, 0, len(out.Data))
	for _, d := range out.Data {
		lines = append(lines, d.Text)
	}

	return action.Result{Text: strings.Join(lines, "\n")}, nil
}
