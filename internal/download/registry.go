package download

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/allypost/dlhub/internal/corerr"
)

// Registry holds the ordered set of downloaders. Selection honors
// req.PreferredDownloader when that handler's CanDownload agrees;
// otherwise it walks the list in order.
type Registry struct {
	downloaders []Downloader
	log         *zap.Logger
}

func New(log *zap.Logger, downloaders ...Downloader) *Registry {
	return &Registry{downloaders: downloaders, log: log}
}

func (r *Registry) Download(ctx context.Context, req Request) (Result, error) {
	if req.PreferredDownloader != "" {
		for _, d := range r.downloaders {
			if d.Name() != req.PreferredDownloader {
				continue
			}
			if !d.CanRun() || !d.CanDownload(ctx, req) {
				break
			}
			return r.run(ctx, d, req)
		}
	}

	for _, d := range r.downloaders {
		if !d.CanRun() || !d.CanDownload(ctx, req) {
			continue
		}
		return r.run(ctx, d, req)
	}

	return Result{}, corerr.Wrap(corerr.ErrNotApplicable, fmt.Errorf("download: no downloader can handle %q", req.URL))
}

func (r *Registry) run(ctx context.Context, d Downloader, req Request) (Result, error) {
	res, err := d.Download(ctx, req)
	if err != nil {
		r.log.Debug("downloader failed", zap.String("downloader", d.Name()), zap.String("url", req.URL), zap.Error(err))
		return Result{}, err
	}
	res.Downloader = d.Name()
	return res, nil
}
