// Package browser opens URLs in the user's default web browser.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Compile-time interface check.
var _ domain.Opener = (*System)(nil)

// System opens URLs with the platform's URL handler.
type System struct {
	log   *logger.Logger
	start func(name string, args ...string) error
}

// NewSystem creates an opener for the current platform.
func NewSystem(log *logger.Logger) *System {
	return &System{
		log: log,
		start: func(name string, args ...string) error {
			cmd := exec.Command(name, args...)
			if err := cmd.Start(); err != nil {
				return err
			}
			go func() { _ = cmd.Wait() }()
			return nil
		},
	}
}

// Open launches url in a new browser tab without waiting for it.
func (s *System) Open(url string) error {
	name, args := command(runtime.GOOS, url)
	s.log.Debug("browser: %s %v", name, args)
	if err := s.start(name, args...); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

func command(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
