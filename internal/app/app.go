// Package app wires every registry, substrate, and the task queue into
// one dependency-injected struct, grounded on the teacher's
// cmd/fsb/run.go startup sequence (load config, build logger, build
// cache, then hand everything to the delivery surface).
package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/allypost/dlhub/internal/action"
	actionhandlers "github.com/allypost/dlhub/internal/action/handlers"
	"github.com/allypost/dlhub/internal/config"
	"github.com/allypost/dlhub/internal/download"
	downloadhandlers "github.com/allypost/dlhub/internal/download/handlers"
	"github.com/allypost/dlhub/internal/download/handlers/music"
	"github.com/allypost/dlhub/internal/extract"
	"github.com/allypost/dlhub/internal/extract/handlers"
	"github.com/allypost/dlhub/internal/extract/handlers/activitypub"
	"github.com/allypost/dlhub/internal/extractcache"
	"github.com/allypost/dlhub/internal/fix"
	fixhandlers "github.com/allypost/dlhub/internal/fix/handlers"
	"github.com/allypost/dlhub/internal/httpclient"
	"github.com/allypost/dlhub/internal/queue"
)

// App holds the process's wired dependency graph.
type App struct {
	Log        *zap.Logger
	HTTP       *httpclient.Client
	Cache      *extractcache.Cache
	Extractors *extract.Registry
	Downloads  *download.Registry
	Fixers     *fix.Registry
	Actions    *action.Registry
	Queue      *queue.Queue
}

// Bootstrap constructs every component in dependency order. Registries
// are read-only after this call returns (spec.md §5 "Shared resources").
func Bootstrap(log *zap.Logger) (*App, error) {
	httpClient := httpclient.New(httpclient.Options{
		UserAgent:      config.ValueOf.HTTPUserAgent,
		DefaultTimeout: time.Duration(config.ValueOf.HTTPTimeoutSeconds) * time.Second,
	}, log)

	cache := extractcache.New(log)

	twitter := handlers.Twitter{HTTP: httpClient}

	extractors := extract.New(log,
		handlers.Imgur{HTTP: httpClient},
		handlers.Reddit{},
		handlers.TikTok{HTTP: httpClient},
		twitter,
		handlers.Tumblr{Twitter: twitter},
		handlers.BlueSky{Twitter: twitter},
		handlers.Instagram{HTTP: httpClient},
		handlers.Music{},
		activitypub.New(httpClient,
			activitypub.Mastodon{HTTP: httpClient},
			activitypub.NewMisskey(httpClient),
			activitypub.NewSharkey(httpClient),
			activitypub.NewFirefish(httpClient),
		),
		handlers.Fallthrough{},
	)

	generic := downloadhandlers.Generic{HTTP: httpClient}
	downloads := download.New(log,
		generic,
		downloadhandlers.YtDlp{Generic: generic},
		music.Downloader{Providers: []music.Provider{
			music.Spotifydown{HTTP: httpClient, Generic: generic},
			music.Yams{HTTP: httpClient, Generic: generic},
		}},
	)

	fixers := fix.New(log,
		fixhandlers.FileExtension{},
		fixhandlers.FileName{},
		fixhandlers.MediaFormats{},
		fixhandlers.CropVideoBars{},
		fixhandlers.CropImage{},
	)

	actions := action.New(
		actionhandlers.RenameToId{},
		actionhandlers.CompactMedia{},
		actionhandlers.SplitScenes{},
		actionhandlers.OcrImage{HTTP: httpClient},
		actionhandlers.RemoveBackground{HTTP: httpClient},
	)

	return &App{
		Log:        log,
		HTTP:       httpClient,
		Cache:      cache,
		Extractors: extractors,
		Downloads:  downloads,
		Fixers:     fixers,
		Actions:    actions,
		Queue:      queue.New(),
	}, nil
}
