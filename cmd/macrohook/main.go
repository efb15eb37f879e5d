package main

import (
	"os"
	"strings"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/Alia5/macrohook/internal/config"
	"github.com/Alia5/macrohook/internal/configpaths"
	"github.com/Alia5/macrohook/internal/log"
)

// runMain hands main its goroutine. Platforms whose hotkey APIs must run on
// the process main thread replace it.
var runMain = func(f func()) { f() }

func main() {
	runMain(run)
}

func run() {
	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name("macrohook"),
		kong.Description("Keyboard and pointer hooks, hotkeys, hotstrings and input injection"),
		kong.UsageOnError(),
		// Flags and env override config values; files are tried in priority order.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, closeFiles, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	rawLogger, rawFile, err := log.SetupRaw(log.ParseLevel(cli.Log.Level), cli.Log.RawFile)
	if err != nil {
		logger.Error("failed to open raw log file", "file", cli.Log.RawFile, "error", err)
		rawLogger = log.Nop
	}
	if rawFile != nil {
		closeFiles = append(closeFiles, rawFile)
	}

	ctx.Bind(logger)
	ctx.Bind(&cli.Globals)
	ctx.BindTo(rawLogger, (*log.RawLogger)(nil))

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv(configpaths.EnvConfig)
}
