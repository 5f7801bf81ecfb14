package config

const (
	defaultDataDir             = "~/.local/share/rill"
	defaultCacheDir            = "~/.cache/rill"
	defaultLogDir              = "~/.local/share/rill/logs"
	defaultIterations          = 1
	defaultFetchTimeoutSeconds = 20
	defaultRequestsPerSecond   = 2.0
	defaultScanCacheTTL        = 60 * 60          // 1 hour
	defaultParseCacheTTL       = 7 * 24 * 60 * 60 // 7 days
	defaultDownloadBackend     = "mock"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Scanner: Scanner{
			Iterations:          defaultIterations,
			FetchTimeoutSeconds: defaultFetchTimeoutSeconds,
			RequestsPerSecond:   defaultRequestsPerSecond,
			CacheTTLSeconds:     defaultScanCacheTTL,
			CacheEnabled:        true,
		},
		Parser: Parser{
			CacheTTLSeconds: defaultParseCacheTTL,
			CacheEnabled:    true,
		},
		Providers: map[string]Provider{},
		Downloads: Downloads{
			Backend: defaultDownloadBackend,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
