// Package config loads dlhub's runtime configuration, following the
// teacher's envconfig + godotenv + cobra-flag-mirroring pattern
// (package-level ValueOf singleton, two-phase Load(log, cmd)).
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	defaultLogLevel               string = "info"
	defaultLogJSON                bool   = false
	defaultMaxConcurrentDownloads int    = 4
	defaultExtractCacheTTLSeconds int    = 300
	defaultHTTPUserAgent          string = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	defaultHTTPTimeoutSeconds     int    = 30
	defaultMaxRetries             int    = 5
	defaultActivityPubMaxHops     int    = 10
	defaultTwitterScreenshotBase  string = "https://twitter.igr.ec"
)

// ValueOf is the process-wide configuration singleton, populated by Load.
var ValueOf = &Config{
	LogLevel:               defaultLogLevel,
	LogJSON:                defaultLogJSON,
	MaxConcurrentDownloads:  defaultMaxConcurrentDownloads,
	ExtractCacheTTLSeconds:  defaultExtractCacheTTLSeconds,
	HTTPUserAgent:           defaultHTTPUserAgent,
	HTTPTimeoutSeconds:      defaultHTTPTimeoutSeconds,
	MaxRetries:              defaultMaxRetries,
	ActivityPubMaxHops:      defaultActivityPubMaxHops,
	TwitterScreenshotBaseURL: defaultTwitterScreenshotBase,
}

// Config holds every tunable the core recognizes (spec.md §6 plus the
// ambient keys SPEC_FULL.md adds).
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`
	LogFile  string `envconfig:"LOG_FILE"`

	MaxConcurrentDownloads int `envconfig:"MAX_CONCURRENT_DOWNLOADS" default:"4"`
	ExtractCacheTTLSeconds int `envconfig:"EXTRACT_CACHE_TTL_SECONDS" default:"300"`

	HTTPUserAgent      string `envconfig:"HTTP_USER_AGENT"`
	HTTPTimeoutSeconds int    `envconfig:"HTTP_TIMEOUT_SECONDS" default:"30"`

	MaxRetries         int `envconfig:"MAX_RETRIES" default:"5"`
	ActivityPubMaxHops int `envconfig:"ACTIVITYPUB_MAX_HOPS" default:"10"`

	// Program paths, passed to procexec.Resolve. Empty means the binary is
	// not configured and the owning component reports !can_run(); PATH is
	// not searched.
	YtDlpPath      string `envconfig:"YT_DLP_PATH"`
	FfmpegPath     string `envconfig:"FFMPEG_PATH"`
	FfprobePath    string `envconfig:"FFPROBE_PATH"`
	ScenedetectPath string `envconfig:"SCENEDETECT_PATH"`
	ImagemagickPath string `envconfig:"IMAGEMAGICK_PATH"`

	TwitterScreenshotBaseURL string `envconfig:"TWITTER_SCREENSHOT_BASE_URL"`
	OCRAPIBaseURL            string `envconfig:"OCR_API_BASE_URL"`

	CacheDir string `envconfig:"CACHE_DIR"`
}

func (c *Config) loadFromEnvFile(log *zap.Logger) {
	envPath := filepath.Clean("dlhub.env")
	if err := godotenv.Load(envPath); err != nil {
		if os.IsNotExist(err) {
			log.Sugar().Debugf("no env file at %s, relying on process environment", envPath)
		} else {
			log.Sugar().Warnf("failed to parse %s: %v", envPath, err)
		}
	}
}

// SetFlagsFromConfig registers cobra flags for the log, concurrency,
// retry and cache-dir keys (the other keys are read from the environment
// only), so `dlhub <cmd> --max-retries 3` overrides the environment
// before Load runs.
func SetFlagsFromConfig(cmd *cobra.Command) {
	cmd.PersistentFlags().String("log-level", ValueOf.LogLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("log-json", ValueOf.LogJSON, "Emit logs as JSON")
	cmd.PersistentFlags().String("log-file", "", "Optional rotating log file path")
	cmd.PersistentFlags().Int("max-concurrent-downloads", ValueOf.MaxConcurrentDownloads, "Bounded fan-out for multi-URL extractions")
	cmd.PersistentFlags().Int("max-retries", ValueOf.MaxRetries, "Task queue retry cap")
	cmd.PersistentFlags().String("cache-dir", "", "Scratch directory for transcodes")
}

func (c *Config) loadConfigFromArgs(cmd *cobra.Command) {
	setIfChanged(cmd, "log-level", func(v string) { os.Setenv("LOG_LEVEL", v) })
	setBoolIfChanged(cmd, "log-json", func(v bool) { os.Setenv("LOG_JSON", strconv.FormatBool(v)) })
	setIfChanged(cmd, "log-file", func(v string) { os.Setenv("LOG_FILE", v) })
	setIntIfChanged(cmd, "max-concurrent-downloads", func(v int) { os.Setenv("MAX_CONCURRENT_DOWNLOADS", strconv.Itoa(v)) })
	setIntIfChanged(cmd, "max-retries", func(v int) { os.Setenv("MAX_RETRIES", strconv.Itoa(v)) })
	setIfChanged(cmd, "cache-dir", func(v string) { os.Setenv("CACHE_DIR", v) })
}

func setIfChanged(cmd *cobra.Command, name string, apply func(string)) {
	if !cmd.Flags().Changed(name) {
		return
	}
	v, _ := cmd.Flags().GetString(name)
	apply(v)
}

func setBoolIfChanged(cmd *cobra.Command, name string, apply func(bool)) {
	if !cmd.Flags().Changed(name) {
		return
	}
	v, _ := cmd.Flags().GetBool(name)
	apply(v)
}

func setIntIfChanged(cmd *cobra.Command, name string, apply func(int)) {
	if !cmd.Flags().Changed(name) {
		return
	}
	v, _ := cmd.Flags().GetInt(name)
	apply(v)
}

// Load runs the teacher's two-phase setup: .env file, then cobra flags
// mirrored into the environment, then envconfig.Process over ValueOf.
func Load(log *zap.Logger, cmd *cobra.Command) error {
	log = log.Named("config")
	defer log.Info("loaded config")

	ValueOf.loadFromEnvFile(log)
	if cmd != nil {
		ValueOf.loadConfigFromArgs(cmd)
	}

	if err := envconfig.Process("", ValueOf); err != nil {
		return err
	}

	if ValueOf.HTTPUserAgent == "" {
		ValueOf.HTTPUserAgent = defaultHTTPUserAgent
	}
	if ValueOf.TwitterScreenshotBaseURL == "" {
		ValueOf.TwitterScreenshotBaseURL = defaultTwitterScreenshotBase
	}
	if ValueOf.CacheDir == "" {
		ValueOf.CacheDir = filepath.Join(os.TempDir(), "dlhub-cache")
	}
	if ValueOf.MaxConcurrentDownloads <= 0 {
		ValueOf.MaxConcurrentDownloads = defaultMaxConcurrentDownloads
	}

	return nil
}
