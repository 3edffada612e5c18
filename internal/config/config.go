// Package config loads runtime settings from flags, the environment, an
// optional .env file and an optional YAML config file.
//
// Precedence, highest first: flags, environment, config file, defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Env var names for credentials that are commonly set without the OTTO_ prefix.
const (
	EnvAzureSpeechKey    = "AZURE_SPEECH_KEY"
	EnvAzureSpeechRegion = "AZURE_SPEECH_REGION"
	EnvWeatherAPIKey     = "OPENWEATHER_API_KEY"
)

// Config is the full runtime configuration.
type Config struct {
	Locale        string        `mapstructure:"locale"`
	ListenTimeout time.Duration `mapstructure:"listen_timeout"`
	CaptureDelay  time.Duration `mapstructure:"capture_delay"`
	CaptureWidth  int           `mapstructure:"capture_width"`
	CaptureHeight int           `mapstructure:"capture_height"`
	Proxy         string        `mapstructure:"proxy"`
	MirrorAddr    string        `mapstructure:"mirror_addr"`
	Socket        string        `mapstructure:"socket"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFile       string        `mapstructure:"log_file"`

	Weather    WeatherConfig    `mapstructure:"weather"`
	Joke       JokeConfig       `mapstructure:"joke"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Recognizer RecognizerConfig `mapstructure:"recognizer"`
	Camera     CameraConfig     `mapstructure:"camera"`
}

// WeatherConfig points the weather handler at its endpoint.
type WeatherConfig struct {
	City     string `mapstructure:"city"`
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// JokeConfig points the joke handler at its endpoint.
type JokeConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// SpeechConfig selects and configures the TTS engine.
type SpeechConfig struct {
	Engine      string `mapstructure:"engine"` // azure, espeak or none
	AzureKey    string `mapstructure:"azure_key"`
	AzureRegion string `mapstructure:"azure_region"`
	EspeakBin   string `mapstructure:"espeak_bin"`
	CacheDir    string `mapstructure:"cache_dir"`
	ChunkSize   int    `mapstructure:"chunk_size"` // chars per synthesis request, 0 = whole text
}

// RecognizerConfig selects and configures speech input.
type RecognizerConfig struct {
	Kind         string        `mapstructure:"kind"` // whisper or keyboard
	WhisperBin   string        `mapstructure:"whisper_bin"`
	WhisperModel string        `mapstructure:"whisper_model"`
	TempDir      string        `mapstructure:"temp_dir"`
	MaxUtterance time.Duration `mapstructure:"max_utterance"`
}

// CameraConfig points the capture handler at a video device.
type CameraConfig struct {
	FFmpegBin string `mapstructure:"ffmpeg_bin"`
	Device    string `mapstructure:"device"`
}

// defaults mirrors every key the application reads.
var defaults = map[string]any{
	"locale":                   "en-US",
	"listen_timeout":           5 * time.Second,
	"capture_delay":            3 * time.Second,
	"capture_width":            640,
	"capture_height":           480,
	"proxy":                    "",
	"mirror_addr":              "",
	"socket":                   "/tmp/ottovoice.sock",
	"log_level":                "info",
	"log_file":                 ".otto-logs/ottovoice.log",
	"weather.city":             "London",
	"weather.api_key":          "",
	"weather.endpoint":         "https://api.openweathermap.org/data/2.5/weather",
	"joke.endpoint":            "https://official-joke-api.appspot.com/random_joke",
	"speech.engine":            "azure",
	"speech.azure_key":         "",
	"speech.azure_region":      "",
	"speech.espeak_bin":        "espeak-ng",
	"speech.cache_dir":         ".otto-cache",
	"speech.chunk_size":        200,
	"recognizer.kind":          "whisper",
	"recognizer.whisper_bin":   "whisper-cli",
	"recognizer.whisper_model": "bin/ggml-small.bin",
	"recognizer.temp_dir":      ".otto-stt",
	"recognizer.max_utterance": 4 * time.Second,
	"camera.ffmpeg_bin":        "ffmpeg",
	"camera.device":            "/dev/video0",
}

// flagKeys binds flag names to config keys.
var flagKeys = map[string]string{
	"locale":         "locale",
	"listen-timeout": "listen_timeout",
	"capture-delay":  "capture_delay",
	"proxy":          "proxy",
	"mirror":         "mirror_addr",
	"socket":         "socket",
	"log":            "log_level",
	"log-file":       "log_file",
	"city":           "weather.city",
	"speech":         "speech.engine",
	"cache-dir":      "speech.cache_dir",
	"recognizer":     "recognizer.kind",
	"whisper-bin":    "recognizer.whisper_bin",
	"whisper-model":  "recognizer.whisper_model",
	"max-utterance":  "recognizer.max_utterance",
	"camera":         "camera.device",
}

// Flags registers the command-line flags on fs.
func Flags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "YAML config file")
	fs.StringP("env", "e", ".env", "env file path")
	fs.String("locale", "", "recognition and synthesis locale")
	fs.Duration("listen-timeout", 0, "inactivity timeout for a listening session")
	fs.Duration("capture-delay", 0, "delay between camera preview and frame capture")
	fs.StringP("proxy", "p", "", "SOCKS5 proxy address for outbound requests")
	fs.String("mirror", "", "address to serve the browser mirror on (empty = off)")
	fs.String("socket", "", "unix socket for ottovoice-ctl")
	fs.StringP("log", "l", "", "log level: off, info, debug")
	fs.String("log-file", "", "file to write logs to (\"stderr\" for console)")
	fs.String("city", "", "city for weather queries")
	fs.String("speech", "", "speech engine: azure, espeak, none")
	fs.String("cache-dir", "", "directory for the TTS audio cache")
	fs.String("recognizer", "", "speech input: whisper, keyboard")
	fs.String("whisper-bin", "", "path to the whisper-cpp CLI binary")
	fs.String("whisper-model", "", "path to the Whisper GGML model file")
	fs.Duration("max-utterance", 0, "longest recording per listening session")
	fs.String("camera", "", "video device for captures")
}

// Load parses args into fs and resolves the configuration.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	envFile, _ := fs.GetString("env")
	if envFile != "" {
		// A missing .env is normal outside development.
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix("OTTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("speech.azure_key", "OTTO_SPEECH_AZURE_KEY", EnvAzureSpeechKey)
	_ = v.BindEnv("speech.azure_region", "OTTO_SPEECH_AZURE_REGION", EnvAzureSpeechRegion)
	_ = v.BindEnv("weather.api_key", "OTTO_WEATHER_API_KEY", EnvWeatherAPIKey)

	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the assistant cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.ListenTimeout <= 0 {
		errs = append(errs, errors.New("listen_timeout must be positive"))
	}
	if c.CaptureDelay < 0 {
		errs = append(errs, errors.New("capture_delay must not be negative"))
	}
	if c.CaptureWidth <= 0 || c.CaptureHeight <= 0 {
		errs = append(errs, errors.New("capture size must be positive"))
	}
	switch c.Speech.Engine {
	case "azure", "espeak", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown speech engine %q", c.Speech.Engine))
	}
	if c.Speech.ChunkSize < 0 {
		errs = append(errs, errors.New("speech.chunk_size must not be negative"))
	}
	switch c.Recognizer.Kind {
	case "whisper":
		// The inactivity timer must not run out while the clip is still
		// being recorded.
		if c.Recognizer.MaxUtterance <= 0 {
			errs = append(errs, errors.New("recognizer.max_utterance must be positive"))
		} else if c.Recognizer.MaxUtterance >= c.ListenTimeout {
			errs = append(errs, fmt.Errorf("recognizer.max_utterance (%s) must be shorter than listen_timeout (%s)",
				c.Recognizer.MaxUtterance, c.ListenTimeout))
		}
	case "keyboard":
	default:
		errs = append(errs, fmt.Errorf("unknown recognizer %q", c.Recognizer.Kind))
	}
	return errors.Join(errs...)
}
