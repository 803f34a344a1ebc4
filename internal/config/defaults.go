package config

const (
	defaultConfigPath            = "/etc/dashcam-transporter/config.toml"
	defaultEnvFile               = "/etc/dashcam-transporter/env"
	projectConfigName            = "dashcam-transporter.toml"
	defaultDownloadDir           = "/opt/videodownload"
	defaultLogDir                = "/var/log/dashcam-transporter"
	defaultStateDir              = "/var/lib/dashcam-transporter"
	defaultDashcamModel          = ModelVIOFOA199Mini
	defaultSMBShare              = "home"
	defaultStoragePath           = "dashcam-transfer"
	defaultS3Region              = "us-east-1"
	defaultNmcliBinary           = "nmcli"
	defaultPollInterval          = 5
	defaultSafetyMarginMiB       = 100
	defaultSettingsRetryInterval = 5
	defaultStalePartHours        = 24
	defaultHistoryRetentionDays  = 90
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 14

	// LockedDirName is the staging subdirectory under the download root.
	LockedDirName = "locked"
)

// Supported dashcam models.
const (
	ModelVIOFOA199Mini = "VIOFOA199MINI"
	ModelVIOFO         = "VIOFO"
	ModelGarminVirb    = "GARMINVIRB"
)

var defaultLEDPaths = []string{
	"/sys/class/leds/led0",
	"/sys/class/leds/led1",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			StateDir:    defaultStateDir,
		},
		Dashcam: Dashcam{
			Model: defaultDashcamModel,
		},
		SMB: SMB{
			Share:       defaultSMBShare,
			StoragePath: defaultStoragePath,
		},
		WebDAV: WebDAV{
			StoragePath: defaultStoragePath,
		},
		S3: S3{
			Region: defaultS3Region,
			Prefix: defaultStoragePath,
		},
		WiFi: WiFi{
			NmcliBinary: defaultNmcliBinary,
		},
		LED: LED{
			Enabled: true,
			Paths:   append([]string(nil), defaultLEDPaths...),
		},
		Workflow: Workflow{
			PollInterval:          defaultPollInterval,
			SafetyMarginMiB:       defaultSafetyMarginMiB,
			SettingsRetryInterval: defaultSettingsRetryInterval,
			StalePartHours:        defaultStalePartHours,
			HistoryRetentionDays:  defaultHistoryRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Download:       true,
			Upload:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
