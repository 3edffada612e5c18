package speech

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// DefaultAudioFormat is the Azure output format requested for synthesis.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Compile-time interface check.
var _ Engine = (*AzureEngine)(nil)

// AzureOption configures the Azure engine.
type AzureOption func(*AzureEngine)

// WithAudioFormat sets the audio output format.
func WithAudioFormat(format string) AzureOption {
	return func(e *AzureEngine) {
		e.format = format
	}
}

// WithHTTPTimeout sets the HTTP client timeout for TTS requests.
func WithHTTPTimeout(d time.Duration) AzureOption {
	return func(e *AzureEngine) {
		e.httpClient.Timeout = d
	}
}

// WithBaseURL overrides the regional endpoint, e.g. for a private
// endpoint or a test server.
func WithBaseURL(base string) AzureOption {
	return func(e *AzureEngine) {
		e.baseURL = strings.TrimRight(base, "/")
	}
}

// AzureEngine synthesizes speech with Azure Cognitive Services.
type AzureEngine struct {
	subscriptionKey string
	locale          string
	baseURL         string
	format          string
	httpClient      *http.Client
	log             *logger.Logger
}

// NewAzureEngine creates an Azure TTS engine for the given credentials.
// Only voices for locale are offered.
func NewAzureEngine(key, region, locale string, log *logger.Logger, opts ...AzureOption) *AzureEngine {
	e := &AzureEngine{
		subscriptionKey: key,
		locale:          locale,
		baseURL:         fmt.Sprintf("https://%s.tts.speech.microsoft.com", region),
		format:          DefaultAudioFormat,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		log:             log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Voices lists the region's voices for the configured locale. Each
// voice name carries its gender, e.g. "Jenny (Female)".
func (e *AzureEngine) Voices(ctx context.Context) ([]Voice, error) {
	body, err := e.do(ctx, http.MethodGet, "/cognitiveservices/voices/list", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("list voices: response is not JSON")
	}

	var voices []Voice
	gjson.ParseBytes(body).ForEach(func(_, v gjson.Result) bool {
		locale := v.Get("Locale").String()
		if e.locale != "" && !strings.EqualFold(locale, e.locale) {
			return true
		}
		voices = append(voices, Voice{
			ID:     v.Get("ShortName").String(),
			Name:   fmt.Sprintf("%s (%s)", v.Get("DisplayName").String(), v.Get("Gender").String()),
			Locale: locale,
		})
		return true
	})

	e.log.Debug("azure tts: %d voices for %s", len(voices), e.locale)
	return voices, nil
}

// Synthesize converts text to WAV audio with voice.
func (e *AzureEngine) Synthesize(ctx context.Context, voice Voice, text string) ([]byte, error) {
	e.log.Debug("azure tts: synthesizing %d chars with voice %s", len(text), voice.ID)

	headers := map[string]string{
		"Content-Type":             "application/ssml+xml",
		"X-Microsoft-OutputFormat": e.format,
	}
	audio, err := e.do(ctx, http.MethodPost, "/cognitiveservices/v1", strings.NewReader(e.buildSSML(voice, text)), headers)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	e.log.Debug("azure tts: got %d bytes of audio", len(audio))
	return audio, nil
}

func (e *AzureEngine) do(ctx context.Context, method, path string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", e.subscriptionKey)
	req.Header.Set("User-Agent", "ottovoice/1.0")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("azure tts error %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

// buildSSML wraps escaped text in SSML for the voice. Rate and pitch are
// left at the engine defaults.
func (e *AzureEngine) buildSSML(voice Voice, text string) string {
	lang := voice.Locale
	if lang == "" {
		lang = e.locale
	}
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'>%s</voice></speak>`,
		lang, lang, voice.ID, html.EscapeString(text),
	)
}
