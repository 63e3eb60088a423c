package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vargava/xr-emcee-demo/pkg/cli"
	"github.com/vargava/xr-emcee-demo/pkg/gesture"
)

var (
	gestureContext    string
	gestureActuatorF  string
	gestureDaemonAddr string
	gestureFile       string
	gestureOutput     string
	gestureJQ         string
)

var gestureCmd = &cobra.Command{
	Use:   "gesture",
	Short: "Inspect and play robot gestures",
	Long: `Inspect the gesture catalog and play gestures on an actuator.

By default gestures play on the console simulator. Use --actuator
daemon to drive the motion daemon instead.

Examples:
  emcee gesture list
  emcee gesture play wave
  emcee gesture play -f my-gesture.yaml --actuator daemon
  emcee gesture test`,
}

var gestureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the gesture catalog",
	RunE:  runGestureList,
}

var gesturePlayCmd = &cobra.Command{
	Use:   "play [name]",
	Short: "Play one gesture",
	Long: `Play a catalog gesture by name, or a custom gesture loaded from a
YAML or JSON file.

Example gesture file (my-gesture.yaml):
  name: double_nod
  description: Nod twice in agreement
  glyph: "🤖"
  joints:
    neck_pitch: 10
  frames:
    - joints: {neck_pitch: -10}
      duration: 400ms
    - joints: {neck_pitch: 10}
      duration: 400ms`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGesturePlay,
}

var gestureTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Play every catalog gesture in sequence",
	RunE:  runGestureTest,
}

var gestureStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the actuator's mode and link state",
	RunE:  runGestureStatus,
}

func init() {
	gestureCmd.PersistentFlags().StringVarP(&gestureContext, "context", "c", "", "context name to use")
	gestureCmd.PersistentFlags().StringVar(&gestureActuatorF, "actuator", "", "gesture actuator: sim or daemon")
	gestureCmd.PersistentFlags().StringVar(&gestureDaemonAddr, "daemon-addr", "", "gesture daemon address")

	gesturePlayCmd.Flags().StringVarP(&gestureFile, "file", "f", "", "gesture file (YAML or JSON), '-' for stdin")

	gestureStatusCmd.Flags().StringVarP(&gestureOutput, "output", "o", "", "output format: yaml, json, raw")
	gestureStatusCmd.Flags().StringVar(&gestureJQ, "jq", "", "jq expression applied to the output")

	gestureCmd.AddCommand(gestureListCmd)
	gestureCmd.AddCommand(gesturePlayCmd)
	gestureCmd.AddCommand(gestureTestCmd)
	gestureCmd.AddCommand(gestureStatusCmd)
	rootCmd.AddCommand(gestureCmd)
}

func resolveGestureSettings() (*settings, error) {
	s, err := resolveSettings(gestureContext)
	if err != nil {
		return nil, err
	}
	if gestureActuatorF != "" {
		s.Actuator = gestureActuatorF
	}
	if gestureDaemonAddr != "" {
		s.DaemonAddr = gestureDaemonAddr
	}
	return s, nil
}

// gestureActor builds the raw actuator for one-shot playback. Unlike
// the conversation commands, an unreachable daemon is an error here:
// this is the tool for checking the daemon link.
func gestureActor(s *settings) (gesture.Actuator, func(), error) {
	if s.Actuator == "daemon" {
		remote, err := gesture.NewRemote(s.DaemonAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("gesture daemon unreachable at %s: %w", s.DaemonAddr, err)
		}
		return remote, func() { _ = remote.Close() }, nil
	}
	return gesture.NewSimulator(gesture.WithVerbose(IsVerbose())), func() {}, nil
}

func runGestureList(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGLYPH\tFRAMES\tDURATION\tDESCRIPTION")
	for _, g := range gesture.Gestures() {
		var total time.Duration
		for _, f := range g.Frames {
			total += f.Duration.Duration()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			g.Name, g.Glyph, len(g.Frames), cli.FormatDuration(total), g.Description)
	}
	return w.Flush()
}

func runGesturePlay(cmd *cobra.Command, args []string) error {
	var g gesture.Gesture
	switch {
	case gestureFile == "-":
		if err := cli.LoadRequestFromStdin(&g); err != nil {
			return fmt.Errorf("failed to load gesture from stdin: %w", err)
		}
		if g.Name == "" {
			return fmt.Errorf("gesture on stdin has no name")
		}
	case gestureFile != "":
		if err := cli.LoadRequest(gestureFile, &g); err != nil {
			return fmt.Errorf("failed to load gesture file: %w", err)
		}
		if g.Name == "" {
			return fmt.Errorf("gesture file %s has no name", gestureFile)
		}
	case len(args) == 1:
		if !slices.Contains(gesture.Names(), args[0]) {
			return fmt.Errorf("unknown gesture %q (available: %s)",
				args[0], strings.Join(gesture.Names(), ", "))
		}
		g = gesture.Lookup(args[0])
	default:
		return fmt.Errorf("gesture name or --file required")
	}

	s, err := resolveGestureSettings()
	if err != nil {
		return err
	}
	act, done, err := gestureActor(s)
	if err != nil {
		return err
	}
	defer done()

	if err := act.Perform(context.Background(), g); err != nil {
		return fmt.Errorf("failed to perform %s: %w", g.Name, err)
	}
	cli.PrintSuccess("Performed %s", g.Name)
	return nil
}

func runGestureTest(cmd *cobra.Command, args []string) error {
	s, err := resolveGestureSettings()
	if err != nil {
		return err
	}
	act, done, err := gestureActor(s)
	if err != nil {
		return err
	}
	defer done()

	fmt.Println("🤖 Gesture Actuator Test")
	fmt.Println(strings.Repeat("=", 60))
	st := act.Status()
	fmt.Printf("\nStatus: mode=%s connected=%v\n", st.Mode, st.Connected)
	fmt.Println("\n🎬 Testing all gestures...")

	ctx := context.Background()
	for _, g := range gesture.Gestures() {
		fmt.Printf("\nTesting: %s\n", g.Name)
		if err := act.Perform(ctx, g); err != nil {
			return fmt.Errorf("failed to perform %s: %w", g.Name, err)
		}
		time.Sleep(time.Second)
	}
	if err := act.Perform(ctx, gesture.Rest()); err != nil {
		return fmt.Errorf("failed to return to rest: %w", err)
	}

	fmt.Println("\n✅ Test complete!")
	return nil
}

func runGestureStatus(cmd *cobra.Command, args []string) error {
	s, err := resolveGestureSettings()
	if err != nil {
		return err
	}
	act, done, err := gestureActor(s)
	if err != nil {
		return err
	}
	defer done()

	return cli.Output(act.Status(), cli.OutputOptions{
		Format: cli.OutputFormat(gestureOutput),
		Filter: gestureJQ,
	})
}
