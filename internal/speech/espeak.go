package speech

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Compile-time interface check.
var _ Engine = (*EspeakEngine)(nil)

// EspeakEngine synthesizes speech with a local espeak-ng binary. It
// needs no credentials and works offline.
type EspeakEngine struct {
	bin    string
	locale string
	log    *logger.Logger
}

// NewEspeakEngine creates an engine around the espeak-ng binary at bin.
func NewEspeakEngine(bin, locale string, log *logger.Logger) (*EspeakEngine, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("espeak binary %q: %w", bin, err)
	}
	return &EspeakEngine{bin: path, locale: locale, log: log}, nil
}

// Voices lists installed voices matching the locale's language.
func (e *EspeakEngine) Voices(ctx context.Context) ([]Voice, error) {
	lang := strings.ToLower(strings.SplitN(e.locale, "-", 2)[0])
	out, err := exec.CommandContext(ctx, e.bin, "--voices="+lang).Output()
	if err != nil {
		return nil, fmt.Errorf("list espeak voices: %w", err)
	}
	voices := parseEspeakVoices(string(out), e.locale)
	e.log.Debug("espeak: %d voices for %s", len(voices), e.locale)
	return voices, nil
}

// Synthesize renders text to a temporary WAV file and returns its bytes.
func (e *EspeakEngine) Synthesize(ctx context.Context, voice Voice, text string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "ottovoice-espeak-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "say.wav")
	cmd := exec.CommandContext(ctx, e.bin, "-v", voice.ID, "-w", out, "--", text)
	if msg, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("espeak: %w: %s", err, strings.TrimSpace(string(msg)))
	}
	return os.ReadFile(out)
}

// parseEspeakVoices reads `espeak-ng --voices` output:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US     (en 2)
//
// Voices whose language equals locale come first. The gender is folded
// into the name so SelectVoice can find female voices.
func parseEspeakVoices(out, locale string) []Voice {
	var exact, rest []Voice
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) < 4 || f[0] == "Pty" {
			continue
		}
		lang, ageGender, name := f[1], f[2], f[3]

		gender := "Unknown"
		switch {
		case strings.HasSuffix(ageGender, "/F"):
			gender = "Female"
		case strings.HasSuffix(ageGender, "/M"):
			gender = "Male"
		}

		v := Voice{
			ID:     lang,
			Name:   fmt.Sprintf("%s (%s)", strings.ReplaceAll(name, "_", " "), gender),
			Locale: lang,
		}
		if strings.EqualFold(lang, locale) {
			exact = append(exact, v)
		} else {
			rest = append(rest, v)
		}
	}
	return append(exact, rest...)
}
