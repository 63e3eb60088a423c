package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vargava/xr-emcee-demo/cmd/emcee/internal/config"
	"github.com/vargava/xr-emcee-demo/pkg/gesture"
	"github.com/vargava/xr-emcee-demo/pkg/llm"
	"github.com/vargava/xr-emcee-demo/pkg/persona"
	"github.com/vargava/xr-emcee-demo/pkg/speech"
)

// settings is the merged launch configuration for the serve and chat
// commands: context file first, then environment, then flags.
type settings struct {
	Backend string
	Model   string

	OpenAIKey     string
	GeminiKey     string
	ElevenLabsKey string
	Voice         string

	Personality string
	Tone        string
	Scene       string
	Personas    string

	Addr       string
	Actuator   string
	DaemonAddr string

	ResponseTimeout time.Duration
}

// resolveSettings merges the context's emcee.yaml with environment
// variables. Flag overrides are applied by the caller afterwards.
// contextName selects a specific context; empty means the current one.
// A missing service config is fine here: commands fail later only if a
// credential they need never materializes.
func resolveSettings(contextName string) (*settings, error) {
	s := &settings{
		Backend:  "openai",
		Addr:     ":5000",
		Actuator: "sim",
	}

	cfg, err := GetConfig()
	switch {
	case err == nil:
		dir, derr := cfg.ResolveContext(contextName)
		switch {
		case derr == nil:
			svc, lerr := config.LoadService[config.Service](dir, config.ServiceName)
			if lerr == nil {
				if aerr := applyService(s, svc); aerr != nil {
					return nil, aerr
				}
			}
		case contextName != "":
			// An explicitly named context must exist.
			return nil, derr
		}
	case contextName != "":
		return nil, err
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		s.OpenAIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		s.GeminiKey = v
	}
	if v := os.Getenv("ELEVENLABS_API_KEY"); v != "" {
		s.ElevenLabsKey = v
	}
	if v := os.Getenv("EMCEE_ADDR"); v != "" {
		s.Addr = v
	}
	if v := os.Getenv("EMCEE_ACTUATOR"); v != "" {
		s.Actuator = v
	}
	if v := os.Getenv("EMCEE_DAEMON_ADDR"); v != "" {
		s.DaemonAddr = v
	}

	return s, nil
}

func applyService(s *settings, svc *config.Service) error {
	if svc.Backend != "" {
		s.Backend = svc.Backend
	}
	if svc.Model != "" {
		s.Model = svc.Model
	}
	if svc.OpenAIAPIKey != "" {
		s.OpenAIKey = svc.OpenAIAPIKey
	}
	if svc.GeminiAPIKey != "" {
		s.GeminiKey = svc.GeminiAPIKey
	}
	if svc.ElevenLabsAPIKey != "" {
		s.ElevenLabsKey = svc.ElevenLabsAPIKey
	}
	if svc.Voice != "" {
		s.Voice = svc.Voice
	}
	if svc.Personality != "" {
		s.Personality = svc.Personality
	}
	if svc.Tone != "" {
		s.Tone = svc.Tone
	}
	if svc.Scene != "" {
		s.Scene = svc.Scene
	}
	if svc.Personas != "" {
		s.Personas = svc.Personas
	}
	if svc.Addr != "" {
		s.Addr = svc.Addr
	}
	if svc.Actuator != "" {
		s.Actuator = svc.Actuator
	}
	if svc.DaemonAddr != "" {
		s.DaemonAddr = svc.DaemonAddr
	}
	if svc.ResponseTimeout != "" {
		d, err := time.ParseDuration(svc.ResponseTimeout)
		if err != nil {
			return fmt.Errorf("invalid response_timeout %q: %w", svc.ResponseTimeout, err)
		}
		s.ResponseTimeout = d
	}
	return nil
}

// buildClient constructs the generation client for the selected
// backend, registering every backend that has a credential.
func buildClient(ctx context.Context, s *settings) (llm.Client, error) {
	mux := llm.NewMux()

	if s.OpenAIKey != "" {
		var opts []llm.Option
		if s.Backend == "openai" && s.Model != "" {
			opts = append(opts, llm.WithModel(s.Model))
		}
		mux.Handle("openai", llm.NewOpenAI(s.OpenAIKey, opts...))
	}
	if s.GeminiKey != "" {
		var opts []llm.Option
		if s.Backend == "gemini" && s.Model != "" {
			opts = append(opts, llm.WithModel(s.Model))
		}
		g, err := llm.NewGemini(ctx, s.GeminiKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		mux.Handle("gemini", g)
	}

	c, err := mux.Client(s.Backend)
	if err != nil {
		switch s.Backend {
		case "openai":
			return nil, fmt.Errorf("backend %q has no API key; set OPENAI_API_KEY or run 'emcee config set <context> openai_api_key <key>'", s.Backend)
		case "gemini":
			return nil, fmt.Errorf("backend %q has no API key; set GEMINI_API_KEY or run 'emcee config set <context> gemini_api_key <key>'", s.Backend)
		default:
			return nil, fmt.Errorf("unknown backend %q (supported: openai, gemini)", s.Backend)
		}
	}
	return c, nil
}

// loadCatalog returns the persona catalog, extended by the personas
// override file when one is configured.
func loadCatalog(s *settings) (*persona.Catalog, error) {
	if s.Personas == "" {
		return persona.Builtin(), nil
	}
	return persona.LoadCatalog(s.Personas)
}

// buildSpeech returns the transcriber and synthesizer, or nils when no
// speech credential is configured.
func buildSpeech(s *settings, log *slog.Logger) (speech.Transcriber, speech.Synthesizer) {
	if s.ElevenLabsKey == "" {
		return nil, nil
	}
	opts := []speech.Option{speech.WithLogger(log)}
	if s.Voice != "" {
		opts = append(opts, speech.WithVoice(s.Voice))
	}
	el := speech.NewElevenLabs(s.ElevenLabsKey, opts...)
	return el, el
}

// buildActuator returns the gesture dispatcher for the configured
// actuator. An unreachable daemon degrades to the simulator so the
// conversation still runs.
func buildActuator(s *settings, log *slog.Logger) *gesture.Dispatcher {
	if s.Actuator == "daemon" {
		remote, err := gesture.NewRemote(s.DaemonAddr)
		if err == nil {
			return gesture.NewDispatcher(remote, 0)
		}
		log.Warn("emcee: gesture daemon unreachable, using simulator", "addr", s.DaemonAddr, "err", err)
	}
	return gesture.NewDispatcher(gesture.NewSimulator(gesture.WithVerbose(IsVerbose())), 0)
}
