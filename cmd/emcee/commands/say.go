package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vargava/xr-emcee-demo/pkg/cli"
	"github.com/vargava/xr-emcee-demo/pkg/speech"
)

var (
	sayContext string
	sayVoice   string
	sayOutput  string
)

var sayCmd = &cobra.Command{
	Use:   "say <text>...",
	Short: "Synthesize a spoken line to an audio file",
	Long: `Render text as speech with the configured voice service and write
the MP3 to a file.

Needs an ElevenLabs API key, from ELEVENLABS_API_KEY or the context
config.

Examples:
  emcee say "Welcome to the hackathon!"
  emcee say -o greeting.mp3 --voice JBFqnCBsd6RMkjVDRZzb "Right this way"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSay,
}

func init() {
	sayCmd.Flags().StringVarP(&sayContext, "context", "c", "", "context name to use")
	sayCmd.Flags().StringVar(&sayVoice, "voice", "", "voice ID (overrides context config)")
	sayCmd.Flags().StringVarP(&sayOutput, "output", "o", "say.mp3", "output audio file")

	rootCmd.AddCommand(sayCmd)
}

func runSay(cmd *cobra.Command, args []string) error {
	logLevel := slog.LevelInfo
	if IsVerbose() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	logger := slog.Default()

	s, err := resolveSettings(sayContext)
	if err != nil {
		return err
	}
	if sayVoice != "" {
		s.Voice = sayVoice
	}
	if s.ElevenLabsKey == "" {
		return fmt.Errorf("no ElevenLabs API key; set ELEVENLABS_API_KEY or run 'emcee config set <context> elevenlabs_api_key <key>'")
	}

	_, tts := buildSpeech(s, logger)
	voice := s.Voice
	if voice == "" {
		voice = speech.DefaultVoiceID
	}
	text := strings.Join(args, " ")
	cli.PrintVerbose(IsVerbose(), "Voice: %s", voice)
	cli.PrintInfo("Synthesizing %d characters...", len(text))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	audio, err := tts.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if len(audio) == 0 {
		return fmt.Errorf("synthesis produced no audio")
	}

	if err := cli.OutputBytes(audio, sayOutput); err != nil {
		return err
	}
	cli.PrintSuccess("Wrote %s (%s)", sayOutput, cli.FormatBytesInt(len(audio)))
	return nil
}
