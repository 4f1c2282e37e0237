package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "static", cfg.Auth.Mode)
	assert.Equal(t, "hey well bot", cfg.Session.ActivationPhrase)
	assert.Equal(t, 60*time.Second, cfg.Session.EndAfter)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.Equal(t, 500*time.Millisecond, cfg.Retrieval.Budget)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("SESSION_END_AFTER", "90")
	t.Setenv("SESSION_WARN_AFTER", "1m")
	t.Setenv("SESSION_ACTIVATION_VARIANTS", " hi bot , , hello bot")
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")
	t.Setenv("TOPIC_CACHE_THRESHOLD", "0.9")

	cfg := Load()

	assert.Equal(t, "jwt", cfg.Auth.Mode)
	assert.Equal(t, 90*time.Second, cfg.Session.EndAfter)
	assert.Equal(t, time.Minute, cfg.Session.WarnAfter)
	assert.Equal(t, []string{"hi bot", "hello bot"}, cfg.Session.ActivationVariants)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.Equal(t, 0.9, cfg.TopicCache.Threshold)
}
