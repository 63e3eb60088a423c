package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vargava/xr-emcee-demo/pkg/convo"
	"github.com/vargava/xr-emcee-demo/pkg/gesture"
	"github.com/vargava/xr-emcee-demo/pkg/mood"
	"github.com/vargava/xr-emcee-demo/pkg/persona"
)

var (
	chatContext     string
	chatBackend     string
	chatModel       string
	chatPersonality string
	chatTone        string
	chatScene       string
	chatPersonas    string
	chatActuator    string
	chatDaemonAddr  string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the host character from the terminal",
	Long: `Run a local conversation loop against the configured LLM backend,
with gestures played on the simulator or forwarded to the daemon.

Personality, tone, and scene are picked interactively unless supplied
by flags or the context config. Inside the loop:

  tone:<name>          change tone mid-conversation
  scene:<description>  replace the scene context
  funnier              raise the humor level
  reset                move on to the next visitor
  quit                 exit

Examples:
  emcee chat
  emcee chat --personality pirate --tone energetic --scene conference
  emcee chat -c booth --actuator daemon`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatContext, "context", "c", "", "context name to use")
	chatCmd.Flags().StringVar(&chatBackend, "backend", "", "LLM backend: openai or gemini (overrides context config)")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "model name (overrides context config)")
	chatCmd.Flags().StringVar(&chatPersonality, "personality", "", "personality (skips the interactive picker)")
	chatCmd.Flags().StringVar(&chatTone, "tone", "", "tone (skips the interactive picker)")
	chatCmd.Flags().StringVar(&chatScene, "scene", "", "scene (skips the interactive picker)")
	chatCmd.Flags().StringVar(&chatPersonas, "personas", "", "persona catalog YAML file")
	chatCmd.Flags().StringVar(&chatActuator, "actuator", "", "gesture actuator: sim or daemon")
	chatCmd.Flags().StringVar(&chatDaemonAddr, "daemon-addr", "", "gesture daemon address")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	logLevel := slog.LevelInfo
	if IsVerbose() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	logger := slog.Default()

	s, err := resolveSettings(chatContext)
	if err != nil {
		return err
	}
	if chatBackend != "" {
		s.Backend = chatBackend
	}
	if chatModel != "" {
		s.Model = chatModel
	}
	if chatPersonality != "" {
		s.Personality = chatPersonality
	}
	if chatTone != "" {
		s.Tone = chatTone
	}
	if chatScene != "" {
		s.Scene = chatScene
	}
	if chatPersonas != "" {
		s.Personas = chatPersonas
	}
	if chatActuator != "" {
		s.Actuator = chatActuator
	}
	if chatDaemonAddr != "" {
		s.DaemonAddr = chatDaemonAddr
	}

	ctx := context.Background()

	client, err := buildClient(ctx, s)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(s)
	if err != nil {
		return err
	}
	moves := buildActuator(s, logger)
	defer moves.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\n👋 Interrupted. Goodbye!")
		os.Exit(0)
	}()

	sc := bufio.NewScanner(os.Stdin)

	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Println("🤖 EMCEE - Conversational Host Robot")
	fmt.Println(line)

	personality := s.Personality
	if personality == "" {
		fmt.Println("\nAvailable personalities:")
		var keys []string
		for i, p := range catalog.Profiles() {
			fmt.Printf("%d. %s: %s\n", i+1, p.Key, p.Name)
			keys = append(keys, p.Key)
		}
		fmt.Printf("\nSelect personality (enter number or name, default=%s):\n", persona.DefaultProfileKey)
		personality = pickFrom(sc, keys, persona.DefaultProfileKey)
	}

	tone := s.Tone
	if tone == "" {
		fmt.Println("\nAvailable tones:")
		keys := catalog.ToneKeys()
		for i, k := range keys {
			fmt.Printf("%d. %s\n", i+1, k)
		}
		fmt.Printf("\nSelect tone (enter number or name, default=%s):\n", persona.DefaultToneKey)
		tone = pickFrom(sc, keys, persona.DefaultToneKey)
	}

	scene := s.Scene
	if scene == "" {
		fmt.Println("\nAvailable scenes:")
		var keys []string
		for i, sn := range catalog.Scenes() {
			if sn.Description == "" {
				fmt.Printf("%d. %s: [Define your own]\n", i+1, sn.Key)
			} else {
				desc := sn.Description
				if len(desc) > 60 {
					desc = desc[:60]
				}
				fmt.Printf("%d. %s: %s...\n", i+1, sn.Key, desc)
			}
			keys = append(keys, sn.Key)
		}
		fmt.Printf("\nSelect scene (enter number or name, default=%s):\n", persona.DefaultSceneKey)
		scene = pickFrom(sc, keys, persona.DefaultSceneKey)
	}

	customScene := ""
	if scene == persona.CustomSceneKey {
		fmt.Println("\nDescribe the scene context:")
		fmt.Println("(e.g., 'Hotel lobby hosting art exhibit of Pune artists. 50 guests.')")
		customScene, _ = promptLine(sc)
	}

	fmt.Printf("\n✨ Initializing %s personality with %s tone...\n\n", personality, tone)

	engine := persona.NewEngineFrom(catalog, personality, tone, scene)
	agent := convo.NewAgent(client, convo.WithEngine(engine), convo.WithLogger(logger))
	if customScene != "" {
		agent.SetScene(customScene)
	}

	fmt.Println("Optional: Provide context clues for the bot to start the conversation")
	fmt.Println("(e.g., 'guy in pink shirt with NASA logo', or press Enter to skip):")
	clues, _ := promptLine(sc)

	if clues != "" {
		fmt.Printf("\n🤖 Bot introducing itself...\n\n")
		intro, err := agent.IntroduceSelf(ctx, clues)
		if err != nil {
			fmt.Printf("\n❌ Error: %v\n", err)
		} else {
			sayReply(intro)
			moves.Dispatch(gesture.ForEmotion(mood.Happy))
		}
	}

	fmt.Println("\nBot is ready! Commands:")
	fmt.Println("  - Type your message to chat")
	fmt.Println("  - Type 'tone:<name>' to change tone (e.g., 'tone:funnier')")
	fmt.Println("  - Type 'scene:<description>' to update scene context")
	fmt.Println("  - Type 'funnier' to increase humor")
	fmt.Println("  - Type 'reset' to clear conversation")
	fmt.Println("  - Type 'quit' to exit")
	fmt.Println("\nStart chatting!")

	humor := 0
	for {
		fmt.Println("\n🎤 Listening... (Type your message and press Enter)")
		input, ok := promptLine(sc)
		if !ok {
			fmt.Println("\n👋 Goodbye! Thanks for chatting!")
			return nil
		}
		if input == "" {
			continue
		}
		lower := strings.ToLower(input)

		switch {
		case lower == "quit":
			fmt.Println("\n👋 Goodbye! Thanks for chatting!")
			return nil

		case lower == "reset":
			humor = 0
			fmt.Printf("\n🔄 Moving to next visitor (Total so far: %d)\n", agent.Memory().TotalVisitors())
			fmt.Println("\nOptional: Provide context clues for next person (or press Enter to skip):")
			next, _ := promptLine(sc)
			intro, err := agent.ResetForNewVisitor(ctx, next)
			if err != nil {
				fmt.Printf("\n❌ Error: %v\n", err)
				continue
			}
			if intro != "" {
				fmt.Printf("\n🤖 Bot introducing itself to new person...\n\n")
				sayReply(intro)
				moves.Dispatch(gesture.ForEmotion(mood.Happy))
			} else {
				fmt.Printf("\n✅ Ready for next conversation!\n\n")
			}
			continue

		case lower == "funnier":
			humor++
			fmt.Printf("\n😄 Humor level increased! (+%d)\n\n", humor)
			continue

		case strings.HasPrefix(lower, "tone:"):
			name := strings.TrimSpace(input[len("tone:"):])
			if err := agent.ChangeTone(name); err != nil {
				var unknown *persona.UnknownToneError
				if errors.As(err, &unknown) {
					fmt.Printf("\nUnknown tone. Available: %s\n\n", strings.Join(unknown.Available, ", "))
				} else {
					fmt.Printf("\n❌ Error: %v\n\n", err)
				}
			} else {
				fmt.Printf("\n✨ Tone changed to: %s\n\n", name)
			}
			continue

		case strings.HasPrefix(lower, "scene:"):
			agent.SetScene(strings.TrimSpace(input[len("scene:"):]))
			fmt.Printf("\n✨ Scene context updated!\n\n")
			continue
		}

		if strings.Contains(lower, "funnier") || strings.Contains(lower, "make me laugh") {
			humor++
		}

		reply, err := agent.ProcessInput(ctx, input, convo.WithHumorAdjustment(humor))
		if err != nil {
			fmt.Printf("\n❌ Error: %v\n", err)
			continue
		}
		sayReply(reply)
		moves.Dispatch(gesture.ForEmotion(mood.Classify(reply)))
	}
}

// promptLine reads one trimmed line. ok is false once stdin is closed.
func promptLine(sc *bufio.Scanner) (text string, ok bool) {
	fmt.Print("> ")
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

// pickFrom resolves a menu choice entered as a 1-based number or as a
// key name. Anything else falls back to def.
func pickFrom(sc *bufio.Scanner, keys []string, def string) string {
	choice, ok := promptLine(sc)
	if !ok {
		return def
	}
	choice = strings.ToLower(choice)
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(keys) {
		return keys[n-1]
	}
	for _, k := range keys {
		if choice == k {
			return k
		}
	}
	return def
}

// sayReply prints a reply the way the robot would speak it.
func sayReply(text string) {
	fmt.Printf("\n🔊 Bot says: %s\n\n", text)
}
