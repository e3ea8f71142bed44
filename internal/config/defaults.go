package config

const (
	defaultLogDir       = "/var/log/devd"
	defaultStateDir     = "/var/lib/devd"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultSysfsRoot    = "/sys"
	defaultFileContexts = "/etc/devd/file_contexts"
	defaultLabelXattr   = "security.selinux"
	defaultModprobe     = "/sbin/modprobe"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		ColdBoot: ColdBoot{
			WorkerCount:              0,
			EnableParallelRestorecon: true,
			SysfsRoot:                defaultSysfsRoot,
		},
		Labeling: Labeling{
			Enabled:      true,
			FileContexts: defaultFileContexts,
			Xattr:        defaultLabelXattr,
			Threads:      1,
		},
		Modules: Modules{
			Enabled:      true,
			ModprobePath: defaultModprobe,
		},
	}
}
