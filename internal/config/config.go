package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Stub
		Global
		Catalog
		Cache
		Downloads
		Tasks
		RefreshSync
	}

	// HTTP is the local view API the client exposes to its presentation layer.
	HTTP struct {
		Port int32
		Host string
	}
	// Stub is the development catalog service started by the catalog-stub command.
	Stub struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		LogLevel                 string
	}
	Catalog struct {
		URL     string
		Timeout time.Duration
	}
	Cache struct {
		Path string
	}
	Downloads struct {
		Dir string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	RefreshSync struct {
		Enabled    bool
		Schedule   string // Cron format: "*/15 * * * *" = every 15 minutes
		OnTransfer bool   // Refresh after every finished transfer
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("stub_port", 8080)
	v.SetDefault("stub_host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("log_level", "info")

	v.SetDefault("catalog_url", DefaultCatalogURL)
	v.SetDefault("catalog_timeout", "30s")
	v.SetDefault("cache_path", DefaultCachePath)
	v.SetDefault("download_dir", DefaultDownloadDir)

	// Task queue defaults. A single worker keeps transfers strictly serial.
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "24h")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("refresh_sync_enabled", false)
	v.SetDefault("refresh_sync_schedule", "*/15 * * * *")
	v.SetDefault("refresh_on_transfer", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Stub: Stub{
			Port: v.GetInt32("STUB_PORT"),
			Host: v.GetString("STUB_HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			LogLevel:                 v.GetString("LOG_LEVEL"),
		},
		Catalog: Catalog{
			URL:     v.GetString("CATALOG_URL"),
			Timeout: v.GetDuration("CATALOG_TIMEOUT"),
		},
		Cache: Cache{
			Path: v.GetString("CACHE_PATH"),
		},
		Downloads: Downloads{
			Dir: v.GetString("DOWNLOAD_DIR"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		RefreshSync: RefreshSync{
			Enabled:    v.GetBool("REFRESH_SYNC_ENABLED"),
			Schedule:   v.GetString("REFRESH_SYNC_SCHEDULE"),
			OnTransfer: v.GetBool("REFRESH_ON_TRANSFER"),
		},
	}
}
