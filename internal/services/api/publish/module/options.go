package module

import (
	"time"

	"noterelay/internal/platform/config"
)

// Options controls the publish module
type Options struct {
	SignServerURL string
	CookiePolicy  string
	MaxImages     int
	SignTimeout   time.Duration
	ImageTimeout  time.Duration
	ImageDir      string
	MaxAttempts   int
	BackoffBase   time.Duration
	Audit         bool
}

// FromConfig reads with PUBLISH_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("PUBLISH_")
	return Options{
		SignServerURL: c.MayString("SIGN_SERVER_URL", ""),
		CookiePolicy:  c.MayEnum("COOKIE_POLICY", "all", "all", "a1"),
		MaxImages:     c.MayInt("MAX_IMAGES", 9),
		SignTimeout:   c.MayDuration("SIGN_TIMEOUT", 15*time.Second),
		ImageTimeout:  c.MayDuration("IMAGE_TIMEOUT", 30*time.Second),
		ImageDir:      c.MayString("IMAGE_DIR", ""),
		MaxAttempts:   c.MayInt("MAX_ATTEMPTS", 3),
		BackoffBase:   c.MayDuration("BACKOFF_BASE", 2*time.Second),
		Audit:         c.MayBool("AUDIT", false),
	}
}
