package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/fix"
	"github.com/allypost/dlhub/internal/fix/cropfilter"
	"github.com/allypost/dlhub/internal/fsutil"
	"github.com/allypost/dlhub/internal/procexec"
)

// CropVideoBars detects and removes letterbox/pillarbox bars by sampling
// 1 fps frames, running ImageMagick's shave+fuzz+trim over each, and
// unioning the resulting crop rectangles. Grounded on
// fixers/handlers/crop_video_bars.rs.
type CropVideoBars struct{}

func (CropVideoBars) Name() string        { return "crop-video-bars" }
func (CropVideoBars) Description() string { return "Crops letterbox/pillarbox bars from a video." }

func (CropVideoBars) CanRun() bool {
	_, okFfmpeg := procexec.Resolve(config.ValueOf.FfmpegPath)
	_, okFfprobe := procexec.Resolve(config.ValueOf.FfprobePath)
	_, okMagick := procexec.Resolve(config.ValueOf.ImagemagickPath)
	return okFfmpeg && okFfprobe && okMagick
}

func (CropVideoBars) CanRunFor(ctx context.Context, req fix.Request) bool {
	dims, err := videoDimensions(ctx, req.Path)
	return err == nil && dims.Width > 0 && dims.Height > 0
}

type videoDims struct{ Width, Height int }

func videoDimensions(ctx context.Context, path string) (videoDims, error) {
	bin, ok := procexec.Resolve(config.ValueOf.FfprobePath)
	if !ok {
		return videoDims{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("crop-video-bars: ffprobe not found"))
	}
	res, err := procexec.Run(ctx, bin, "-v", "quiet", "-print_format", "json", "-show_streams", "-select_streams", "v:0", path)
	if err != nil {
		return videoDims{}, err
	}
	var out struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		return videoDims{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("crop-video-bars: decoding ffprobe output: %w", err))
	}
	if len(out.Streams) == 0 {
		return videoDims{}, corerr.Wrap(corerr.ErrNotApplicable, fmt.Errorf("crop-video-bars: no video stream in %q", path))
	}
	return videoDims{Width: out.Streams[0].Width, Height: out.Streams[0].Height}, nil
}

func (c CropVideoBars) Run(ctx context.Context, req fix.Request) (fix.Result, error) {
	dims, err := videoDimensions(ctx, req.Path)
	if err != nil {
		return fix.Result{}, err
	}

	scratch, err := fsutil.NewTempDir("dlhub-crop-frames")
	if err != nil {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("crop-video-bars: creating scratch dir: %w", err))
	}
	defer scratch.Close()

	ffmpegBin, _ := procexec.Resolve(config.ValueOf.FfmpegPath)
	framePattern := filepath.Join(scratch.Path(), "frame-%04d.jpg")
	if _, err := procexec.Run(ctx, ffmpegBin, "-y", "-i", req.Path, "-vf", "fps=1", framePattern); err != nil {
		return fix.Result{}, err
	}

	frames, err := filepath.Glob(filepath.Join(scratch.Path(), "frame-*.jpg"))
	if err != nil || len(frames) == 0 {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("crop-video-bars: no sampled frames for %q", req.Path))
	}

	union, ok, err := detectCropUnion(ctx, frames)
	if err != nil {
		return fix.Result{}, err
	}
	if !ok {
		return fix.Result{}, nil
	}

	clipped := union.Intersect(cropfilter.Filter{Width: dims.Width, Height: dims.Height})
	if clipped.Covers(dims.Width, dims.Height) {
		return fix.Result{}, nil
	}

	outPath := fsutil.FileNameWithSuffix(req.Path, "ac")
	if _, err := procexec.Run(ctx, ffmpegBin, "-y", "-i", req.Path,
		"-vf", clipped.String(),
		"-map_metadata", "0",
		"-movflags", "use_metadata_tags",
		"-preset", "slow",
		outPath,
	); err != nil {
		return fix.Result{}, err
	}

	if err := fsutil.MoveToTrash(req.Path); err != nil {
		os.Remove(req.Path)
	}

	return fix.Result{Path: outPath}, nil
}

// detectCropUnion runs ImageMagick once over every frame, shaving a 2px
// outer border and applying two fuzz+trim passes, then unions the
// resulting per-frame rectangles.
func detectCropUnion(ctx context.Context, frames []string) (cropfilter.Filter, bool, error) {
	bin, ok := procexec.Resolve(config.ValueOf.ImagemagickPath)
	if !ok {
		return cropfilter.Filter{}, false, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("crop-video-bars: imagemagick not found"))
	}

	args := []string{}
	args = append(args, frames...)
	args = append(args,
		"-shave", "2x2",
		"-fuzz", "15%", "-trim",
		"-fuzz", "15%", "-trim",
		"-format", "%w:%h:%X:%Y\n",
		"info:",
	)

	res, err := procexec.Run(ctx, bin, args...)
	if err != nil {
		return cropfilter.Filter{}, false, err
	}

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(string(res.Stdout)))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	return cropfilter.UnionAll(lines)
}
