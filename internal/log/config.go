package log

// Config holds the logging flags.
type Config struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" enum:"trace,debug,info,warn,error" env:"MACROHOOK_LOG_LEVEL"`
	File    string `help:"Log file; records are also written to the console" env:"MACROHOOK_LOG_FILE"`
	RawFile string `help:"Raw device traffic log file" env:"MACROHOOK_LOG_RAW_FILE"`
}
