package config

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/trackshare/internal/flagx"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TRACKSHARE_DATABASE_DSN.
const EnvPrefix = "TRACKSHARE"

// parseFile overlays values from the file named by -c/-config (JSON, YAML or
// TOML, chosen by extension) and from the environment. Keys are snake_case
// field names; only keys that are present override the current value.
func parseFile(cfg *Config, args []string) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := flagx.ConfigFileFlag(args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	str("endpoint_addr_http", &cfg.EndpointAddrHTTP)
	str("endpoint_addr_grpc", &cfg.EndpointAddrGRPC)
	str("database_dsn", &cfg.DatabaseDSN)
	str("secret_key", &cfg.SecretKey)
	if v.IsSet("session_token_validity_duration") {
		cfg.SessionTokenValidityDuration = v.GetDuration("session_token_validity_duration")
	}
	if v.IsSet("verification_code_validity_duration") {
		cfg.VerificationCodeValidityDuration = v.GetDuration("verification_code_validity_duration")
	}
	if v.IsSet("bcrypt_cost") {
		cfg.BcryptCost = v.GetInt("bcrypt_cost")
	}

	str("session_cookie_name", &cfg.SessionCookieName)
	if v.IsSet("session_cookie_secure") {
		cfg.SessionCookieSecure = v.GetBool("session_cookie_secure")
	}
	if v.IsSet("allowed_origins") {
		cfg.AllowedOrigins = splitList(v.GetStringSlice("allowed_origins"))
	}

	if v.IsSet("feed_size") {
		cfg.FeedSize = v.GetInt("feed_size")
	}
	if v.IsSet("graphql_max_depth") {
		cfg.GraphQLMaxDepth = v.GetInt("graphql_max_depth")
	}
	if v.IsSet("rate_limit") {
		cfg.RateLimit = v.GetFloat64("rate_limit")
	}
	if v.IsSet("rate_burst") {
		cfg.RateBurst = v.GetInt("rate_burst")
	}

	str("smtp_host", &cfg.SMTPHost)
	if v.IsSet("smtp_port") {
		cfg.SMTPPort = v.GetInt("smtp_port")
	}
	str("smtp_username", &cfg.SMTPUsername)
	str("smtp_password", &cfg.SMTPPassword)
	str("mail_from", &cfg.MailFrom)

	str("s3_access_key", &cfg.S3AccessKey)
	str("s3_secret_key", &cfg.S3SecretKey)
	str("s3_bucket", &cfg.S3Bucket)
	str("s3_region", &cfg.S3Region)
	str("s3_base_endpoint", &cfg.S3BaseEndpoint)
	str("s3_public_url", &cfg.S3PublicURL)
	if v.IsSet("media_max_bytes") {
		cfg.MediaMaxBytes = v.GetInt64("media_max_bytes")
	}

	str("log_format", &cfg.LogFormat)
	str("log_level", &cfg.LogLevel)

	return nil
}

// splitList accepts both real lists and a single comma separated value,
// which is how lists arrive from the environment.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
