package internal

import (
	"os"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("AUTH_SECRET", "secret")
	t.Setenv("CENSORED_WORDS", " spam, ,scam ")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)

	req.True(config.InMemory())
	req.Equal(10*time.Second, config.SpamWindow)
	req.Equal(3, config.SpamThreshold)
	req.Equal(500, config.MaxContentLength)
	req.Equal([]string{"spam", "scam"}, config.ExtraCensoredWords())

	r, err := CharacterRune(config.CharReplacement)
	req.NoError(err)
	req.Equal('*', r)
}

func TestConfig_MissingSecret(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	require.NoError(t, os.Unsetenv("AUTH_SECRET"))
	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	require.Error(t, err)
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)
	_, err := CharacterRune("**")
	req.Error(err)
	r, err := CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)
}
