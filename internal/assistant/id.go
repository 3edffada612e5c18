package assistant

import (
	"crypto/rand"
	"fmt"
)

// sessionID creates a short random hex ID used to correlate the log
// lines of one listening session.
func sessionID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "sess"
	}
	return fmt.Sprintf("%x", b)
}
