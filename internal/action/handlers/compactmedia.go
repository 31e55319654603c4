// Package handlers holds the concrete action implementations.
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/allypost/dlhub/internal/action"
	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/fsutil"
	"github.com/allypost/dlhub/internal/procexec"
)

// CompactMedia re-encodes audio/video to a smaller sibling file.
// Grounded on actions/handlers/compact_media.rs.
type CompactMedia struct{}

func (CompactMedia) Name() string        { return "compact-media" }
func (CompactMedia) Description() string { return "Re-encodes a media file to a smaller sibling." }

func (CompactMedia) CanRun() bool {
	_, ok := procexec.Resolve(config.ValueOf.FfmpegPath)
	return ok
}

func (CompactMedia) CanRunFor(_ context.Context, req action.Request) bool {
	mt, err := fsutil.SniffMIME(req.FilePath)
	if err != nil || mt == nil {
		return false
	}
	s := mt.String()
	return strings.HasPrefix(s, "video/") || strings.HasPrefix(s, "audio/")
}

func (CompactMedia) Run(ctx context.Context, req action.Request) (action.Result, error) {
	bin, ok := procexec.Resolve(config.ValueOf.FfmpegPath)
	if !ok {
		return action.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("compact-media: ffmpeg not found"))
	}

	outPath := fsutil.FileNameWithSuffix(req.FilePath, "c")

	args := []string{
		"-y", "-i", req.FilePath,
		"-max_muxing_queue_size", "1024",
		"-c:v", "libx264", "-crf", "29",
		"-af", "channelmap=0",
		"-c:a", "aac", "-b:a", "192k",
		"-vf", "scale=-2:480",
		"-preset", "slow",
		"-movflags", "+faststart",
		"-map_metadata", "-1",
		outPath,
	}

	if _, err := procexec.Run(ctx, bin, args...); err != nil {
		return action.Result{}, err
	}

	return action.Result{FilePaths: []string{outPath}}, nil
}
