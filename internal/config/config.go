package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrEmptyToken = errors.New("error getting SCR_TELEGRAM_TOKEN: variable not specified or contains an empty string")
	ErrEmptyChat  = errors.New("error getting SCR_TELEGRAM_CHAT_ID: variable not specified or contains an empty string")
)

// Remote backend selectors.
const (
	RemoteNone     = "none"
	RemoteOneDrive = "onedrive"
	RemoteGCS      = "gcs"
)

type Config struct {
	Env          string // Env is the current environment: local, dev, prod.
	WorkDir      string // WorkDir is where committed artifacts live.
	SearchesPath string // SearchesPath points to the YAML searches file.

	EvictionThreshold int // Consecutive unseen runs before a record is dropped.
	MaxPages          int // Pagination hard cap per query URL.
	MaxEmptyPages     int // Consecutive empty pages before abandoning a query.

	FetchRetries int           // Attempt cap for page/detail fetches.
	FetchTimeout time.Duration // Per-request timeout.
	PageDelay    DelayRange    // Politeness delay between result pages.
	DetailDelay  DelayRange    // Politeness delay between detail fetches.

	CronSpec string // Daemon-mode schedule, robfig/cron syntax.

	Tg     Telegram
	Remote Remote
}

type Telegram struct {
	Token  string // Token is the unique telegram bot token.
	ChatID int64  // ChatID is the operator chat to notify.
}

// Remote selects and configures the backup backend. Backend "none" commits
// locally without the remote-verification stage.
type Remote struct {
	Backend string
	Folder  string // Root folder on the remote under which artifacts live.

	// OneDrive (Microsoft Graph, refresh-token grant).
	ClientID     string
	RefreshToken string

	// Google Cloud Storage.
	Bucket          string
	CredentialsFile string
}

// DelayRange bounds a randomized politeness sleep.
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// MustLoad loads the configuration from environment variables and returns a
// Config struct. It panics when required variables are missing, so a
// misconfigured deployment fails before any state is touched.
func MustLoad() *Config {
	// Automatically binds environment variables to config keys
	viper.SetEnvPrefix("SCR")
	viper.AutomaticEnv()

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("WORKDIR", "output")
	viper.SetDefault("SEARCHES_PATH", "searches.yaml")
	viper.SetDefault("EVICTION_THRESHOLD", 3)
	viper.SetDefault("MAX_PAGES", 30)
	viper.SetDefault("MAX_EMPTY_PAGES", 2)
	viper.SetDefault("FETCH_RETRIES", 4)
	viper.SetDefault("FETCH_TIMEOUT", "15s")
	viper.SetDefault("PAGE_DELAY_MIN", "1500ms")
	viper.SetDefault("PAGE_DELAY_MAX", "3s")
	viper.SetDefault("DETAIL_DELAY_MIN", "800ms")
	viper.SetDefault("DETAIL_DELAY_MAX", "1800ms")
	viper.SetDefault("CRON_SPEC", "@every 6h")
	viper.SetDefault("REMOTE_BACKEND", RemoteNone)
	viper.SetDefault("REMOTE_FOLDER", "olx")

	if viper.GetString("TELEGRAM_TOKEN") == "" {
		panic(ErrEmptyToken)
	}
	if viper.GetInt64("TELEGRAM_CHAT_ID") == 0 {
		panic(ErrEmptyChat)
	}

	cfg := &Config{
		Env:               viper.GetString("ENV"),
		WorkDir:           viper.GetString("WORKDIR"),
		SearchesPath:      viper.GetString("SEARCHES_PATH"),
		EvictionThreshold: viper.GetInt("EVICTION_THRESHOLD"),
		MaxPages:          viper.GetInt("MAX_PAGES"),
		MaxEmptyPages:     viper.GetInt("MAX_EMPTY_PAGES"),
		FetchRetries:      viper.GetInt("FETCH_RETRIES"),
		FetchTimeout:      viper.GetDuration("FETCH_TIMEOUT"),
		PageDelay: DelayRange{
			Min: viper.GetDuration("PAGE_DELAY_MIN"),
			Max: viper.GetDuration("PAGE_DELAY_MAX"),
		},
		DetailDelay: DelayRange{
			Min: viper.GetDuration("DETAIL_DELAY_MIN"),
			Max: viper.GetDuration("DETAIL_DELAY_MAX"),
		},
		CronSpec: viper.GetString("CRON_SPEC"),
		Tg: Telegram{
			Token:  viper.GetString("TELEGRAM_TOKEN"),
			ChatID: viper.GetInt64("TELEGRAM_CHAT_ID"),
		},
		Remote: Remote{
			Backend:         viper.GetString("REMOTE_BACKEND"),
			Folder:          viper.GetString("REMOTE_FOLDER"),
			ClientID:        viper.GetString("ONEDRIVE_CLIENT_ID"),
			RefreshToken:    viper.GetString("ONEDRIVE_REFRESH_TOKEN"),
			Bucket:          viper.GetString("GCS_BUCKET"),
			CredentialsFile: viper.GetString("GCS_CREDENTIALS_FILE"),
		},
	}

	if err := cfg.validate(); err != nil {
		panic(err)
	}

	return cfg
}

func (c *Config) validate() error {
	if c.EvictionThreshold < 1 {
		return fmt.Errorf("eviction threshold must be positive, got %d", c.EvictionThreshold)
	}
	if c.MaxPages < 1 || c.MaxEmptyPages < 1 {
		return fmt.Errorf("pagination bounds must be positive, got max_pages=%d max_empty_pages=%d",
			c.MaxPages, c.MaxEmptyPages)
	}

	switch c.Remote.Backend {
	case RemoteNone:
	case RemoteOneDrive:
		if c.Remote.ClientID == "" || c.Remote.RefreshToken == "" {
			return errors.New("onedrive backend requires SCR_ONEDRIVE_CLIENT_ID and SCR_ONEDRIVE_REFRESH_TOKEN")
		}
	case RemoteGCS:
		if c.Remote.Bucket == "" {
			return errors.New("gcs backend requires SCR_GCS_BUCKET")
		}
	default:
		return fmt.Errorf("unknown remote backend %q", c.Remote.Backend)
	}

	return nil
}
