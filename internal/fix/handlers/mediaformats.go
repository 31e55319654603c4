package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/webp"

	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/fix"
	"github.com/allypost/dlhub/internal/fsutil"
	"github.com/allypost/dlhub/internal/procexec"
)

// MediaFormats runs ffprobe to find the file's primary stream codec and
// dispatches to a per-codec transcode plan. Grounded on
// fixers/handlers/media_formats.rs.
type MediaFormats struct{}

func (MediaFormats) Name() string        { return "media-formats" }
func (MediaFormats) Description() string { return "Normalizes a media file's codec and container." }

func (MediaFormats) CanRun() bool {
	_, okProbe := procexec.Resolve(config.ValueOf.FfprobePath)
	_, okFfmpeg := procexec.Resolve(config.ValueOf.FfmpegPath)
	return okProbe && okFfmpeg
}

func (MediaFormats) CanRunFor(ctx context.Context, req fix.Request) bool {
	_, err := probePrimaryStream(ctx, req.Path)
	return err == nil
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

func probePrimaryStream(ctx context.Context, path string) (ffprobeStream, error) {
	bin, ok := procexec.Resolve(config.ValueOf.FfprobePath)
	if !ok {
		return ffprobeStream{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("media-formats: ffprobe not found"))
	}

	res, err := procexec.Run(ctx, bin, "-v", "quiet", "-print_format", "json", "-show_streams", path)
	if err != nil {
		return ffprobeStream{}, err
	}

	var out ffprobeOutput
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		return ffprobeStream{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("media-formats: decoding ffprobe output: %w", err))
	}

	for _, s := range out.Streams {
		if s.CodecType == "video" || s.CodecType == "image" || s.CodecType == "audio" {
			return s, nil
		}
	}
	return ffprobeStream{}, corerr.Wrap(corerr.ErrNotApplicable, fmt.Errorf("media-formats: no video/image/audio stream in %q", path))
}

func hasAudioStream(ctx context.Context, path string) (codec string, ok bool) {
	bin, resolveOK := procexec.Resolve(config.ValueOf.FfprobePath)
	if !resolveOK {
		return "", false
	}
	res, err := procexec.Run(ctx, bin, "-v", "quiet", "-print_format", "json", "-show_streams", path)
	if err != nil {
		return "", false
	}
	var out ffprobeOutput
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		return "", false
	}
	for _, s := range out.Streams {
		if s.CodecType == "audio" {
			return s.CodecName, true
		}
	}
	return "", false
}

type codecAction int

const (
	codecActionSkip codecAction = iota
	codecActionTranscode
	codecActionTranscodeWebp
)

type codecPlan struct {
	action    codecAction
	newExt    string
	codecArgs []string
}

// classifyCodec is the pure half of the per-codec dispatch table: given
// the primary stream and the file's current extension, it decides what
// Run should do without touching the filesystem or a subprocess, so the
// dispatch logic (including the unknown-codec/audio-only fallback) is
// unit-testable without ffprobe or ffmpeg installed.
func classifyCodec(stream ffprobeStream, ext string, hasAudio bool, audioCodec string) (codecPlan, error) {
	switch stream.CodecName {
	case "mp3":
		return codecPlan{action: codecActionSkip}, nil
	case "png", "mjpeg", "gif":
		return codecPlan{action: codecActionSkip}, nil
	case "h264":
		needsRewrite := (hasAudio && audioCodec != "aac") || ext != "mp4"
		if !needsRewrite {
			return codecPlan{action: codecActionSkip}, nil
		}
		return codecPlan{action: codecActionTranscode, newExt: "mp4", codecArgs: []string{"-c:v", "libx264", "-c:a", "aac"}}, nil
	case "mpeg4", "vp8", "vp9", "av1", "hevc":
		return codecPlan{action: codecActionTranscode, newExt: "mp4", codecArgs: []string{"-c:v", "libx264", "-c:a", "aac"}}, nil
	case "webp":
		return codecPlan{action: codecActionTranscodeWebp}, nil
	default:
		// The original's CODEC_HANDLERS only strips an unhandled stream
		// to audio when it actually is audio; anything else (e.g. an
		// unrecognized video codec) is a permanent error, not a silent
		// downgrade to audio-only.
		if stream.CodecType != "audio" {
			return codecPlan{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("media-formats: unknown codec %q for stream type %q", stream.CodecName, stream.CodecType))
		}
		return codecPlan{action: codecActionTranscode, newExt: "mp3", codecArgs: []string{"-c:a", "libmp3lame"}}, nil
	}
}

func (f MediaFormats) Run(ctx context.Context, req fix.Request) (fix.Result, error) {
	stream, err := probePrimaryStream(ctx, req.Path)
	if err != nil {
		return fix.Result{}, err
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(req.Path)), ".")

	var hasAudio bool
	var audioCodec string
	if stream.CodecName == "h264" {
		audioCodec, hasAudio = hasAudioStream(ctx, req.Path)
	}

	plan, err := classifyCodec(stream, ext, hasAudio, audioCodec)
	if err != nil {
		return fix.Result{}, err
	}

	switch plan.action {
	case codecActionSkip:
		return fix.Result{}, nil
	case codecActionTranscodeWebp:
		return f.transcodeWebp(ctx, req.Path)
	default:
		return f.transcode(ctx, req.Path, plan.newExt, plan.codecArgs)
	}
}

func (MediaFormats) transcodeWebp(ctx context.Context, path string) (fix.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("media-formats: opening %q: %w", path, err))
	}
	defer f.Close()

	cfg, err := webp.DecodeConfig(f)
	if err != nil {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("media-formats: decoding webp config: %w", err))
	}

	switch cfg.ColorModel {
	case color.YCbCrModel, color.GrayModel, color.Gray16Model:
		return MediaFormats{}.transcode(ctx, path, "jpg", []string{"-c:v", "mjpeg"})
	case color.NRGBAModel, color.RGBAModel, color.NRGBA64Model, color.RGBA64Model:
		return MediaFormats{}.transcode(ctx, path, "png", []string{"-c:v", "png"})
	default:
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("media-formats: unknown webp color model for %q", path))
	}
}

// transcode runs ffmpeg into an isolated scratch directory, then copies
// the result alongside the input with the new extension and moves the
// original to the OS trash.
func (MediaFormats) transcode(ctx context.Context, path, newExt string, codecArgs []string) (fix.Result, error) {
	bin, ok := procexec.Resolve(config.ValueOf.FfmpegPath)
	if !ok {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("media-formats: ffmpeg not found"))
	}

	scratch, err := fsutil.NewTempDir("dlhub-transcode")
	if err != nil {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("media-formats: creating scratch dir: %w", err))
	}
	defer scratch.Close()

	scratchOut := filepath.Join(scratch.Path(), "out."+newExt)

	args := []string{"-y", "-i", path, "-max_muxing_queue_size", "1024"}
	args = append(args, codecArgs...)
	if newExt == "mp4" {
		args = append(args, "-vf", "scale=ceil(iw/2)*2:ceil(ih/2)*2", "-b:a", "256k")
	}
	args = append(args, "-preset", "slow", "-map_metadata", "-1", scratchOut)

	if _, err := procexec.Run(ctx, bin, args...); err != nil {
		return fix.Result{}, err
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	finalPath := stem + "." + newExt

	// When the result keeps the input's name, trash the original first so
	// the copy does not overwrite it and is not itself trashed afterwards.
	if finalPath == path {
		if err := fsutil.MoveToTrash(path); err != nil {
			os.Remove(path)
		}
	}

	if err := copyFile(scratchOut, finalPath); err != nil {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("media-formats: copying transcode result: %w", err))
	}

	if finalPath != path {
		if err := fsutil.MoveToTrash(path); err != nil {
			os.Remove(path)
		}
	}

	return fix.Result{Path: finalPath}, nil
}
