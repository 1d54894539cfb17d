// main package for the announcer service.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/session-audio/announcer/internal/artifact"
	"github.com/session-audio/announcer/internal/config"
	"github.com/session-audio/announcer/internal/core"
	"github.com/session-audio/announcer/internal/engine"
	"github.com/session-audio/announcer/internal/notify"
	"github.com/session-audio/announcer/internal/publicurl"
	"github.com/session-audio/announcer/internal/server"
	"github.com/session-audio/announcer/internal/service"
	"github.com/session-audio/announcer/internal/transcode"
)

// Flag names.
const (
	flagConfig     = "config"
	flagHost       = "host"
	flagPort       = "port"
	flagBaseURL    = "external-base-url"
	flagVoice      = "voice"
	flagVoiceIndex = "voice-index"
	flagNaming     = "naming"
	flagForce      = "force"
)

// Flag descriptions.
const (
	flagConfigDesc     = "Path to announcer.toml (optional)"
	flagHostDesc       = "Host interface to bind"
	flagPortDesc       = "Port to listen on"
	flagBaseURLDesc    = "Default base URL for returned file links"
	flagVoiceDesc      = "Voice substring for the offline engine"
	flagVoiceIndexDesc = "Voice index for the offline engine (beats --voice)"
	flagNamingDesc     = "Artifact naming policy: unique or reuse"
	flagForceDesc      = "Regenerate reuse-policy artifacts on every request"
)

// unsetIndex marks the --voice-index flag as not provided.
const unsetIndex = -1

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	config     string
	host       string
	port       int
	baseURL    string
	voice      string
	voiceIndex int
	naming     string
	force      bool
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()

	flags := parseFlags()

	cfg, err := config.Load(flags.config)
	if err != nil {
		return err
	}

	applyFlags(cfg, flags)

	log := setupLogger(cfg.Log.Level)

	srv, publisher, err := buildServer(cfg, log)
	if err != nil {
		return err
	}

	if publisher != nil {
		defer closePublisher(publisher, log)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	return srv.Run(addr)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.config, flagConfig, "", flagConfigDesc)
	flag.StringVar(&flags.host, flagHost, "", flagHostDesc)
	flag.IntVar(&flags.port, flagPort, 0, flagPortDesc)
	flag.StringVar(&flags.baseURL, flagBaseURL, "", flagBaseURLDesc)
	flag.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flag.IntVar(&flags.voiceIndex, flagVoiceIndex, unsetIndex, flagVoiceIndexDesc)
	flag.StringVar(&flags.naming, flagNaming, "", flagNamingDesc)
	flag.BoolVar(&flags.force, flagForce, false, flagForceDesc)
	flag.Parse()

	return flags
}

// applyFlags layers explicit command-line values over the loaded configuration.
func applyFlags(cfg *config.Config, flags appFlags) {
	if flags.host != "" {
		cfg.Server.Host = flags.host
	}

	if flags.port != 0 {
		cfg.Server.Port = flags.port
	}

	if flags.baseURL != "" {
		cfg.Server.ExternalBaseURL = flags.baseURL
	}

	if flags.voice != "" {
		cfg.Engine.Voice = flags.voice
	}

	if flags.voiceIndex != unsetIndex {
		index := flags.voiceIndex
		cfg.Engine.VoiceIndex = &index
	}

	if flags.naming != "" {
		cfg.Artifacts.Naming = flags.naming
	}

	if flags.force {
		cfg.Artifacts.ForceDefault = true
	}
}

// setupLogger builds a console zerolog logger at the configured level.
func setupLogger(level string) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	return zerolog.New(writer).Level(logLevel).With().Timestamp().Logger()
}

// buildServer assembles the engine, store, transcoder, optional publisher, and
// HTTP server from the configuration.
func buildServer(cfg *config.Config, log zerolog.Logger) (*server.Server, *notify.NatsPublisher, error) {
	speechEngine, err := engine.New(engineOptions(cfg), log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create speech engine: %w", err)
	}

	policy, err := artifact.ParsePolicy(cfg.Artifacts.Naming)
	if err != nil {
		return nil, nil, err
	}

	audioDir := filepath.Join(cfg.Server.StaticRoot, "audio")

	store, err := artifact.NewStore(afero.NewOsFs(), audioDir, log)
	if err != nil {
		return nil, nil, err
	}

	svc := service.New(
		speechEngine,
		transcode.NewFFmpeg(log),
		store,
		policy,
		cfg.Artifacts.ForceDefault,
		log,
	)

	publisher, err := connectPublisher(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	factory := func(variant, language, tld string) (core.SpeechEngine, error) {
		opts := engineOptions(cfg)
		opts.Variant = variant

		if language != "" {
			opts.Language = language
		}

		if tld != "" {
			opts.TLD = tld
		}

		return engine.New(opts, log)
	}

	var corePublisher core.Publisher
	if publisher != nil {
		corePublisher = publisher
	}

	srv := server.New(
		svc,
		publicurl.NewResolver(cfg.Server.ExternalBaseURL),
		corePublisher,
		factory,
		cfg.Server.StaticRoot,
		log,
	)

	return srv, publisher, nil
}

// engineOptions maps the engine configuration onto engine.Options.
func engineOptions(cfg *config.Config) engine.Options {
	return engine.Options{
		Variant:        cfg.Engine.Variant,
		VoiceSubstring: cfg.Engine.Voice,
		VoiceIndex:     cfg.Engine.VoiceIndex,
		RateDelta:      cfg.Engine.RateDelta,
		Language:       cfg.Engine.Language,
		TLD:            cfg.Engine.TLD,
		Timeout:        time.Duration(cfg.Engine.TimeoutSeconds) * time.Second,
	}
}

// connectPublisher connects to NATS when a URL is configured. An empty URL
// disables event publishing entirely.
func connectPublisher(cfg *config.Config, log zerolog.Logger) (*notify.NatsPublisher, error) {
	if cfg.NATS.URL == "" {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.NATS.URL, err)
	}

	log.Info().Str("url", cfg.NATS.URL).Msg("event publishing enabled")

	return notify.NewNatsPublisher(conn, cfg.NATS.Subject, log), nil
}

func closePublisher(publisher *notify.NatsPublisher, log zerolog.Logger) {
	err := publisher.Close()
	if err != nil {
		log.Warn().Err(err).Msg("failed to close event publisher")
	}
}
