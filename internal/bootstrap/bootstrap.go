// Package bootstrap builds the translation components shared by the API
// server and the command line tool.
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/transdoc/api/internal/client"
	"github.com/transdoc/api/internal/config"
	"github.com/transdoc/api/internal/formats"
	"github.com/transdoc/api/internal/service"
	"github.com/transdoc/api/internal/storage"
	"github.com/transdoc/api/internal/translate"
)

// Components are the config-driven pieces of the translation stack.
type Components struct {
	Client     *client.TranslationClient
	Translator *translate.Translator
	Pipeline   *formats.Pipeline
	Images     *service.ImageService
	Audio      *service.AudioService
	Vision     *client.VisionClient
	Speech     *client.SpeechClient
}

// SetupLogging applies the configured level and switches to JSON in production.
func SetupLogging(sc config.ServerConfig) {
	level, err := logrus.ParseLevel(sc.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if strings.EqualFold(sc.Env, "production") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

func New(cfg *config.Config) *Components {
	tc := client.NewTranslationClient(&cfg.Translation)
	tr := translate.NewTranslator(tc, translate.Options{
		ChunkSize:   cfg.Translation.ChunkSize,
		Overlap:     cfg.Translation.ChunkOverlap,
		Concurrency: cfg.Translation.ChunkConcurrency,
	})
	fonts := formats.NewFontSet(cfg.Fonts.Dir)
	if missing := fonts.Unrenderable(); len(missing) > 0 {
		logrus.WithFields(logrus.Fields{"dir": cfg.Fonts.Dir, "fonts": missing}).
			Warn("font files missing, pdf output for these scripts will lack glyphs")
	}
	pipeline := formats.NewPipeline(tr, fonts, formats.PipelineOptions{
		CellConcurrency:  cfg.Translation.CellConcurrency,
		SlideConcurrency: cfg.Translation.SlideConcurrency,
	})
	vision := client.NewVisionClient(&cfg.Vision)
	speech := client.NewSpeechClient(&cfg.Speech)

	return &Components{
		Client:     tc,
		Translator: tr,
		Pipeline:   pipeline,
		Images:     service.NewImageService(vision, tc, tr),
		Audio:      service.NewAudioService(speech, tr),
		Vision:     vision,
		Speech:     speech,
	}
}

// NewStore opens the configured output store.
func NewStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "", "local":
		return storage.NewLocalStore(cfg.Storage.OutputDir)
	case "r2":
		r2, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			return nil, fmt.Errorf("failed to create R2 client: %w", err)
		}
		return storage.NewR2Store(r2), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
