package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/transdoc/api/internal/auth"
	"github.com/transdoc/api/internal/bootstrap"
	"github.com/transdoc/api/internal/config"
	"github.com/transdoc/api/internal/formats"
	"github.com/transdoc/api/internal/storage"
)

var targetLang string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "transdoc",
		Short: "Translate documents, images and audio from the command line",
		Long: `transdoc runs the same translation pipeline as the API server, locally.

Commands:
  document    Translate a PDF, DOCX, XLSX, PPTX, CSV or TXT file
  image       Detect and translate text in an image
  audio       Transcribe and translate an audio file
  token       Issue an access token for the API

Configuration is read from the environment and config.yaml, as for the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&targetLang, "to", "", "Target language (default: translation.default_language)")

	root.AddCommand(
		newDocumentCmd(),
		newImageCmd(),
		newAudioCmd(),
		newTokenCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	bootstrap.SetupLogging(cfg.Server)
	if targetLang == "" {
		targetLang = cfg.Translation.DefaultLanguage
	}
	return cfg, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newDocumentCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "document <file>",
		Short: "Translate a document and write the result to --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := formats.DetectKind(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			jobID := uuid.New().String()
			out, err := bootstrap.New(cfg).Pipeline.Translate(cmd.Context(), kind, data, targetLang, jobID)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", outDir, err)
			}
			path := filepath.Join(outDir, storage.OutputName(jobID, kind.Ext(), time.Now()))
			if err := os.WriteFile(path, out, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", ".", "Directory to write the translated file to")
	return cmd
}

func newImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <file>",
		Short: "Print translated text segments found in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			result, err := bootstrap.New(cfg).Images.Translate(cmd.Context(), data, http.DetectContentType(data), targetLang)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func newAudioCmd() *cobra.Command {
	var mimeType, source string

	cmd := &cobra.Command{
		Use:   "audio <file>",
		Short: "Transcribe an audio file and print the translation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			if mimeType == "" {
				mimeType = mime.TypeByExtension(filepath.Ext(args[0]))
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			result, err := bootstrap.New(cfg).Audio.Translate(cmd.Context(), data, mimeType, source, targetLang)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&mimeType, "mimetype", "", "Audio MIME type (default: from the file extension)")
	cmd.Flags().StringVar(&source, "source", "auto", "Spoken language, or auto")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var userID string
	var premium bool
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return fmt.Errorf("auth.secret is not set")
			}
			token, err := auth.IssueToken(userID, premium, cfg.Auth.Secret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "cli", "User id to embed")
	cmd.Flags().BoolVar(&premium, "premium", false, "Grant the premium upload limit")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
