package config

const (
	// DefaultCachePath is the default location of the local catalog mirror.
	DefaultCachePath = "./video-cache.db"

	// DefaultDownloadDir is where downloaded payloads are stored.
	DefaultDownloadDir = "./videos"

	DefaultCatalogURL = "http://localhost:8080"
)
