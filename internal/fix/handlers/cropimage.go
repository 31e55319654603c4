package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/corerr"
	"github.com/allypost/dlhub/internal/fix"
	"github.com/allypost/dlhub/internal/fsutil"
	"github.com/allypost/dlhub/internal/procexec"
)

// CropImage runs the same ImageMagick shave+fuzz+trim pipeline as
// CropVideoBars but over a single still image, then performs one crop.
// Grounded on fixers/handlers/crop_image.rs.
type CropImage struct{}

func (CropImage) Name() string        { return "crop-image" }
func (CropImage) Description() string { return "Crops uniform borders from a still image." }

func (CropImage) CanRun() bool {
	_, ok := procexec.Resolve(config.ValueOf.ImagemagickPath)
	return ok
}

func (CropImage) CanRunFor(_ context.Context, req fix.Request) bool {
	mt, err := fsutil.SniffMIME(req.Path)
	return err == nil && mt != nil && len(mt.Extension()) > 0 && isImageMIME(mt.String())
}

func isImageMIME(mime string) bool {
	return len(mime) >= 6 && mime[:6] == "image/"
}

func (CropImage) Run(ctx context.Context, req fix.Request) (fix.Result, error) {
	union, ok, err := detectCropUnion(ctx, []string{req.Path})
	if err != nil {
		return fix.Result{}, err
	}
	if !ok {
		return fix.Result{}, nil
	}

	bin, _ := procexec.Resolve(config.ValueOf.ImagemagickPath)
	outPath := fsutil.FileNameWithSuffix(req.Path, "ac")

	if _, err := procexec.Run(ctx, bin, req.Path, "-crop", union.ToImageMagickDimensions(), "+repage", outPath); err != nil {
		return fix.Result{}, corerr.Wrap(corerr.ErrPermanent, fmt.Errorf("crop-image: running imagemagick: %w", err))
	}

	if err := fsutil.MoveToTrash(req.Path); err != nil {
		os.Remove(req.Path)
	}

	return fix.Result{Path: outPath}, nil
}
