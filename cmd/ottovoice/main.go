// Command ottovoice is a voice command assistant for the terminal.
//
// Usage:
//
//	ottovoice [--config otto.yml] [--recognizer whisper|keyboard] [--speech azure|espeak|none]
//
// Press Enter on an empty prompt (or run `ottovoice-ctl listen`) and say
// a command: "what time is it", "tell me a joke", "search best pizza
// recipe", "capture"...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/hammamikhairi/ottovoice/internal/action"
	"github.com/hammamikhairi/ottovoice/internal/assistant"
	"github.com/hammamikhairi/ottovoice/internal/browser"
	"github.com/hammamikhairi/ottovoice/internal/camera"
	"github.com/hammamikhairi/ottovoice/internal/command"
	"github.com/hammamikhairi/ottovoice/internal/config"
	"github.com/hammamikhairi/ottovoice/internal/display"
	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/fetch"
	"github.com/hammamikhairi/ottovoice/internal/ipc"
	"github.com/hammamikhairi/ottovoice/internal/logger"
	"github.com/hammamikhairi/ottovoice/internal/speech"
)

func main() {
	fs := pflag.NewFlagSet("ottovoice", pflag.ExitOnError)
	config.Flags(fs)
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	// Direct logs to a file by default so the UI stays clean.
	var logOut io.Writer = os.Stderr
	if cfg.LogFile != "" && cfg.LogFile != "stderr" {
		if dir := filepath.Dir(cfg.LogFile); dir != "" && dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", cfg.LogFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// The whisper transcriber logs through the standard log package.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logger.ParseLevel(cfg.LogLevel), logOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Output ───────────────────────────────────────────────────

	surface := display.NewSurface(assistant.MsgPrompt)

	if cfg.MirrorAddr != "" {
		mirror := display.NewMirror(surface, log.Named("mirror"))
		go func() {
			if err := mirror.ListenAndServe(ctx, cfg.MirrorAddr); err != nil {
				log.Error("mirror: %v", err)
			}
		}()
	}

	speaker, synth := buildSpeaker(ctx, cfg, log.Named("speech"))

	// ── Input ────────────────────────────────────────────────────

	rec, err := buildRecognizer(cfg, log.Named("recognizer"), synth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: speech recognition is not available: %v\n", err)
		fmt.Fprintln(os.Stderr, "hint: install whisper-cpp and a model, or run with --recognizer keyboard")
		os.Exit(1)
	}

	// ── Commands ─────────────────────────────────────────────────

	fetcher, err := fetch.NewClient(log.Named("fetch"), fetch.WithProxy(cfg.Proxy))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	deps := action.Deps{Display: surface, Speaker: speaker, Log: log.Named("action")}
	opener := browser.NewSystem(log.Named("browser"))

	interp := command.New(surface, log.Named("command"))
	interp.Bind(domain.ActionPlay, &action.Play{Deps: deps, Opener: opener})
	interp.Bind(domain.ActionTime, &action.Time{Deps: deps})
	interp.Bind(domain.ActionDate, &action.Date{Deps: deps})
	interp.Bind(domain.ActionJoke, &action.Joke{Deps: deps, Client: fetcher, Endpoint: cfg.Joke.Endpoint})
	interp.Bind(domain.ActionWeather, &action.Weather{
		Deps:     deps,
		Client:   fetcher,
		Endpoint: cfg.Weather.Endpoint,
		City:     cfg.Weather.City,
		APIKey:   cfg.Weather.APIKey,
	})
	interp.Bind(domain.ActionFunFact, &action.Unavailable{Deps: deps, Topic: "fun facts"})
	interp.Bind(domain.ActionNews, &action.Unavailable{Deps: deps, Topic: "news"})
	interp.Bind(domain.ActionCapture, &action.Capture{
		Deps:   deps,
		Camera: camera.NewFFmpeg(cfg.Camera.FFmpegBin, cfg.Camera.Device, log.Named("camera")),
		Delay:  cfg.CaptureDelay,
		Width:  cfg.CaptureWidth,
		Height: cfg.CaptureHeight,
	})
	interp.Bind(domain.ActionSearch, &action.Search{Deps: deps, Opener: opener})

	if cfg.Weather.APIKey == "" {
		log.Info("weather disabled: set %s to enable", config.EnvWeatherAPIKey)
	}

	ctrl, err := assistant.New(surface, rec, interp, speaker, log.Named("assistant"),
		assistant.WithTimeout(cfg.ListenTimeout),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	go func() {
		if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("controller: %v", err)
		}
	}()

	if cfg.Socket != "" {
		err := ipc.StartServer(ctx, cfg.Socket, func(msg ipc.ControlMessage) error {
			switch msg.Cmd {
			case ipc.CmdListen:
				return ctrl.Start(ctx)
			case ipc.CmdRun:
				ctrl.Submit(ctx, msg.Text)
				return nil
			default:
				return fmt.Errorf("unknown command %q", msg.Cmd)
			}
		})
		if err != nil {
			log.Warn("control socket disabled: %v", err)
		} else {
			log.Info("control socket listening on %s", cfg.Socket)
		}
	}

	// ── UI ───────────────────────────────────────────────────────

	ui := display.NewUI(surface, ctrl.Listening, "enter: talk  ctrl+c: quit")

	fmt.Println(display.BannerStyle.Render("  ottovoice"))
	fmt.Println(display.BannerStyle.Render(fmt.Sprintf("  Press Enter and speak, or type a command. Recognizer: %s, speech: %s.",
		cfg.Recognizer.Kind, cfg.Speech.Engine)))
	if cfg.MirrorAddr != "" {
		fmt.Println(display.BannerStyle.Render("  Mirror: http://" + cfg.MirrorAddr))
	}
	fmt.Println()

	go func() {
		ui.WaitReady()
		runInput(ctx, ui, ctrl, log)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal. Blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
	ctrl.Wait()
}

// runInput turns prompt lines into start gestures and typed commands.
func runInput(ctx context.Context, ui *display.UI, ctrl *assistant.Controller, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-ui.InputChan():
			if !ok {
				return
			}
			switch strings.ToLower(line) {
			case "":
				if err := ctrl.Start(ctx); err != nil {
					log.Error("start listening: %v", err)
				}
			case "quit", "exit":
				return
			default:
				ctrl.Submit(ctx, line)
			}
		}
	}
}

// buildSpeaker returns the configured speaker. The synthesizer is nil
// when speech output is off.
func buildSpeaker(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.Speaker, *speech.Synthesizer) {
	var engine speech.Engine
	switch cfg.Speech.Engine {
	case "azure":
		if cfg.Speech.AzureKey == "" || cfg.Speech.AzureRegion == "" {
			log.Info("TTS disabled: set %s and %s to enable", config.EnvAzureSpeechKey, config.EnvAzureSpeechRegion)
			return speech.NewNoOp(log), nil
		}
		engine = speech.NewAzureEngine(cfg.Speech.AzureKey, cfg.Speech.AzureRegion, cfg.Locale, log)
	case "espeak":
		e, err := speech.NewEspeakEngine(cfg.Speech.EspeakBin, cfg.Locale, log)
		if err != nil {
			log.Warn("TTS disabled: %v", err)
			return speech.NewNoOp(log), nil
		}
		engine = e
	default:
		return speech.NewNoOp(log), nil
	}

	player, err := speech.NewPlayer(log)
	if err != nil {
		log.Error("audio player init failed, speech disabled: %v", err)
		return speech.NewNoOp(log), nil
	}

	synth := speech.NewSynthesizer(engine, player, log,
		speech.WithCache(speech.NewAudioCache(cfg.Speech.CacheDir, true, log)),
		speech.WithChunkSize(cfg.Speech.ChunkSize),
	)
	synth.Start(ctx)
	log.Info("TTS enabled (engine=%s, locale=%s)", cfg.Speech.Engine, cfg.Locale)
	return synth, synth
}

// buildRecognizer returns the configured recognizer or an error wrapping
// domain.ErrNoRecognizer.
func buildRecognizer(cfg *config.Config, log *logger.Logger, synth *speech.Synthesizer) (domain.Recognizer, error) {
	if cfg.Recognizer.Kind == "keyboard" {
		return speech.NewKeyboardRecognizer(log), nil
	}

	if _, err := os.Stat(cfg.Recognizer.WhisperModel); err != nil {
		return nil, fmt.Errorf("whisper model %s: %w", cfg.Recognizer.WhisperModel, domain.ErrNoRecognizer)
	}
	if err := os.MkdirAll(cfg.Recognizer.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("recognizer temp dir: %w", err)
	}

	opts := []speech.RecognizerOption{
		speech.WithTempDir(cfg.Recognizer.TempDir),
		speech.WithMaxUtterance(cfg.Recognizer.MaxUtterance),
	}
	if synth != nil {
		opts = append(opts, speech.WithBusy(synth.IsSpeaking))
	}
	rec, err := speech.NewWhisperRecognizer(cfg.Recognizer.WhisperBin, cfg.Recognizer.WhisperModel, log, opts...)
	if err != nil {
		return nil, err
	}
	log.Info("voice input enabled (bin=%s, model=%s)", cfg.Recognizer.WhisperBin, cfg.Recognizer.WhisperModel)
	return rec, nil
}
