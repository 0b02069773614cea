package config

const (
	defaultLogDir               = "~/.local/share/lingocast/logs"
	defaultDataDir              = "~/.local/share/lingocast/data"
	defaultAPIBind              = "127.0.0.1:7519"
	defaultSocket               = "~/.local/share/lingocast/lingocast.sock"
	defaultRequestTimeout       = 30
	defaultUploadTimeoutMinutes = 180
	defaultRequestsPerSecond    = 5.0
	defaultRequestBurst         = 10
	defaultMaxAssetMiB          = 4096
	defaultPollIntervalSeconds  = 2
	defaultDiscoveryAttempts    = 8
	defaultDiscoveryInterval    = 2
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			DataDir: defaultDataDir,
			APIBind: defaultAPIBind,
			Socket:  defaultSocket,
		},
		Backend: Backend{
			RequestTimeout:       defaultRequestTimeout,
			UploadTimeoutMinutes: defaultUploadTimeoutMinutes,
			RequestsPerSecond:    defaultRequestsPerSecond,
			RequestBurst:         defaultRequestBurst,
		},
		Ingest: Ingest{
			MaxAssetMiB:       defaultMaxAssetMiB,
			AllowedExtensions: []string{".mp4", ".mov", ".mkv", ".mp3", ".wav", ".m4a"},
		},
		Reconciler: Reconciler{
			PollIntervalSeconds: defaultPollIntervalSeconds,
		},
		Discovery: Discovery{
			Protocols:       []string{"hls", "dash"},
			Attempts:        defaultDiscoveryAttempts,
			IntervalSeconds: defaultDiscoveryInterval,
		},
		Languages: Languages{
			DefaultTargets: []string{"en"},
		},
		Playback: Playback{
			CaptionsEnabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
