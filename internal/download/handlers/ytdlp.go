package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/download"
	"github.com/allypost/dlhub/internal/fsutil"
	"github.com/allypost/dlhub/internal/idutil"
	"github.com/allypost/dlhub/internal/procexec"
)

// YtDlp shells out to the yt-dlp binary with a fixed argument set.
// Headers other than Cookie become repeated --add-header flags; cookies
// are rewritten into a Netscape cookie file. Grounded on
// downloaders/handlers/yt_dlp.rs.
type YtDlp struct {
	Generic Generic
}

func (YtDlp) Name() string        { return "yt-dlp" }
func (YtDlp) Description() string { return "Downloads a URL via the yt-dlp binary." }

func (YtDlp) CanRun() bool {
	_, ok := procexec.Resolve(config.ValueOf.YtDlpPath)
	return ok
}

func (YtDlp) CanDownload(_ context.Context, req download.Request) bool {
	return strings.HasPrefix(req.URL, "http://") || strings.HasPrefix(req.URL, "https://")
}

func (y YtDlp) Download(ctx context.Context, req download.Request) (download.Result, error) {
	bin, ok := procexec.Resolve(config.ValueOf.YtDlpPath)
	if !ok {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yt-dlp: binary not found"))
	}

	scratch, err := fsutil.NewTempDir("dlhub-ytdlp")
	if err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yt-dlp: creating scratch dir: %w", err))
	}
	defer scratch.Close()

	args := []string{
		"--no-check-certificate",
		"--socket-timeout", "120",
		"--no-part",
		"--no-mtime",
		"--no-embed-metadata",
		"--no-config",
		"--no-playlist",
		"--trim-filenames", "115",
		"--no-simulate",
		"--print", "after_move:filepath",
	}

	var cookies []*http.Cookie
	for k, v := range req.Headers {
		if strings.EqualFold(k, "cookie") {
			cookies = parseCookieHeader(v)
			continue
		}
		args = append(args, "--add-header", fmt.Sprintf("%s:%s", k, v))
	}

	if len(cookies) > 0 {
		cookieFile := filepath.Join(scratch.Path(), "cookies.txt")
		if err := writeNetscapeCookieFile(cookieFile, req.URL, cookies); err != nil {
			return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yt-dlp: writing cookie file: %w", err))
		}
		args = append(args, "--cookies", cookieFile)
	}

	outputTemplate := filepath.Join(scratch.Path(), idutil.TimeID()+".%(id).64s.%(ext)s")
	args = append(args, "-o", outputTemplate, req.URL)

	result, err := procexec.Run(ctx, bin, args...)
	if err != nil {
		if strings.HasSuffix(strings.TrimSpace(string(result.Stderr)), "Maybe an image?") {
			return y.Generic.Download(ctx, req)
		}
		return download.Result{}, err
	}

	filePath := strings.TrimSpace(lastNonEmptyLine(string(result.Stdout)))
	if filePath == "" {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yt-dlp: did not print a final filepath"))
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yt-dlp: creating output dir: %w", err))
	}

	dest := filepath.Join(req.OutputDir, filepath.Base(filePath))
	if err := copyFile(filePath, dest); err != nil {
		return download.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("yt-dlp: copying result into output dir: %w", err))
	}

	return download.Result{FilePath: dest}, nil
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func parseCookieHeader(value string) []*http.Cookie {
	req := &http.Request{Header: http.Header{"Cookie": {value}}}
	return req.Cookies()
}

// writeNetscapeCookieFile emits the classic "# Netscape HTTP Cookie
// File" format yt-dlp's --cookies expects, giving every cookie an
// expiry one year out since the source header carries no expiry.
func writeNetscapeCookieFile(path, rawURL string, cookies []*http.Cookie) error {
	host := hostOf(rawURL)
	if host == "" {
		return fmt.Errorf("yt-dlp: cannot determine host for %q", rawURL)
	}

	expiry := time.Now().Add(365 * 24 * time.Hour).Unix()

	var b strings.Builder
	b.WriteString("# Netscape HTTP Cookie File\n")
	for _, c := range cookies {
		value := c.Value
		if c.Quoted {
			value = `"` + value + `"`
		}
		fmt.Fprintf(&b, "%s\tFALSE\t/\tTRUE\t%s\t%s\t%s\n", host, strconv.FormatInt(expiry, 10), c.Name, value)
	}

	return os.WriteFile(path, []byte(b.String()), 0o600)
}
