package config

import (
	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/matcharena/transcript"
)

// RedisTranscriptWriter connects the Redis transcript sink described by the
// transcript section. It returns nil when no Redis address is configured.
// The caller owns the returned writer and must Close it.
func (c *MatchConfig) RedisTranscriptWriter() (*transcript.RedisStreamWriter, error) {
	if c.Transcript.RedisAddr == "" {
		return nil, nil
	}
	return transcript.NewRedisStreamWriter(&redis.Options{Addr: c.Transcript.RedisAddr}, func(o *transcript.RedisOptions) {
		if c.Transcript.RedisPrefix != "" {
			o.Prefix = c.Transcript.RedisPrefix
		}
		o.Channel = c.Transcript.RedisChannel
		o.MaxLen = c.Transcript.MaxLen
	})
}
