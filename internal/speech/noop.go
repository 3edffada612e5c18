package speech

import (
	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Compile-time interface check.
var _ domain.Speaker = (*NoOp)(nil)

// NoOp is a speaker that only logs. Used when speech output is disabled.
type NoOp struct {
	log *logger.Logger
}

// NewNoOp creates a silent speaker.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

// Say logs the text and returns.
func (n *NoOp) Say(text string) {
	n.log.Debug("speech off: would say %q", text)
}
