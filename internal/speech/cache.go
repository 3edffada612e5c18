package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// AudioCache is a two-tier cache (memory, then disk) for synthesized
// audio, keyed by sha256(voice + ":" + text). Safe for concurrent use.
//
// With diskWrite off the disk layer is still read, so a previous run's
// entries give a warm start.
type AudioCache struct {
	mu        sync.RWMutex
	entries   map[string][]byte // hash -> WAV bytes
	log       *logger.Logger
	cacheDir  string // empty = no disk layer
	diskWrite bool
	hits      int64
	misses    int64
}

// NewAudioCache creates an audio cache rooted at cacheDir.
func NewAudioCache(cacheDir string, diskWrite bool, log *logger.Logger) *AudioCache {
	c := &AudioCache{
		entries:   make(map[string][]byte),
		log:       log,
		cacheDir:  cacheDir,
		diskWrite: diskWrite,
	}
	if cacheDir != "" && diskWrite {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			log.Error("cache: failed to create cache dir %s: %v", cacheDir, err)
		}
	}
	return c
}

// Get returns cached audio for voice and text.
func (c *AudioCache) Get(voice, text string) ([]byte, bool) {
	key := hashKey(voice, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.entries[key]; ok {
		c.hits++
		c.log.Debug("cache hit (mem): %s", truncate(text, 40))
		return data, true
	}

	if c.cacheDir != "" {
		if data, err := os.ReadFile(c.diskPath(key)); err == nil {
			c.entries[key] = data
			c.hits++
			c.log.Debug("cache hit (disk): %s (%d bytes)", truncate(text, 40), len(data))
			return data, true
		}
	}

	c.misses++
	return nil, false
}

// Put stores audio for voice and text.
func (c *AudioCache) Put(voice, text string, audio []byte) {
	key := hashKey(voice, text)

	c.mu.Lock()
	c.entries[key] = audio
	c.mu.Unlock()

	if c.cacheDir == "" || !c.diskWrite {
		return
	}
	path := c.diskPath(key)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		c.log.Error("cache: disk write failed for %s: %v", path, err)
		return
	}
	c.log.Debug("cache store (disk): %s (%d bytes)", key[:12], len(audio))
}

// Len returns the number of in-memory entries.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func hashKey(voice, text string) string {
	h := sha256.Sum256([]byte(voice + ":" + text))
	return hex.EncodeToString(h[:])
}

func (c *AudioCache) diskPath(key string) string {
	return filepath.Join(c.cacheDir, key+".wav")
}
