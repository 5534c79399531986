package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// OKX
	out.OKX = cfg.OKX
	redact(&out.OKX.ApiKey)
	redact(&out.OKX.ApiSecret)
	redact(&out.OKX.Passphrase)
	redact(&out.OKX.SecretPassword)

	// Kraken
	out.Kraken = cfg.Kraken
	redact(&out.Kraken.ApiKey)
	redact(&out.Kraken.ApiSecret)
	redact(&out.Kraken.SecretPassword)

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// Server
	out.Server = cfg.Server
	redact(&out.Server.APIToken)

	// Notify
	out.Notify = cfg.Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Bot.Autostart != nil {
		out.Bot.Autostart = make([]string, len(cfg.Bot.Autostart))
		copy(out.Bot.Autostart, cfg.Bot.Autostart)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
