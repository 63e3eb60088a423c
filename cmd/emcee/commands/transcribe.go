package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vargava/xr-emcee-demo/pkg/cli"
)

var transcribeContext string

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe an audio file to text",
	Long: `Run an audio file through the configured speech-to-text service and
print the transcript.

Needs an ElevenLabs API key, from ELEVENLABS_API_KEY or the context
config.

Example:
  emcee transcribe visitor.webm`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringVarP(&transcribeContext, "context", "c", "", "context name to use")

	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	logLevel := slog.LevelInfo
	if IsVerbose() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	logger := slog.Default()

	s, err := resolveSettings(transcribeContext)
	if err != nil {
		return err
	}
	if s.ElevenLabsKey == "" {
		return fmt.Errorf("no ElevenLabs API key; set ELEVENLABS_API_KEY or run 'emcee config set <context> elevenlabs_api_key <key>'")
	}

	stt, _ := buildSpeech(s, logger)
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}
	cli.PrintInfo("Sending %s of audio...", cli.FormatBytesInt(len(data)))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	text, err := stt.Transcribe(ctx, data, mimeForFile(args[0]))
	if err != nil {
		return err
	}
	if text == "" {
		cli.PrintWarning("No speech recognized")
		return nil
	}
	fmt.Println(text)
	return nil
}

// mimeForFile picks the transcription MIME type from the file extension.
func mimeForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".webm":
		return "audio/webm"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "audio/wav"
	}
}
