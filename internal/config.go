package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

type Config struct {
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH"`
	SpamWindow        time.Duration `env:"SPAM_WINDOW,default=10s"`
	SpamThreshold     int           `env:"SPAM_THRESHOLD,default=3"`
	MaxContentLength  int           `env:"MAX_CONTENT_LENGTH,default=500"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,default=*"`
	CensoredWords     string        `env:"CENSORED_WORDS"`
	CensoredWordsDir  string        `env:"CENSORED_WORDS_DIR"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
}

// InMemory reports whether the store lives only for the process lifetime.
func (c Config) InMemory() bool {
	return strings.TrimSpace(c.BadgerFilepath) == ""
}

// ExtraCensoredWords splits the comma separated CENSORED_WORDS value.
func (c Config) ExtraCensoredWords() []string {
	return lo.FilterMap(strings.Split(c.CensoredWords, ","), func(w string, _ int) (string, bool) {
		w = strings.TrimSpace(w)
		return w, w != ""
	})
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
