// Package config declares the command line, which kong also fills from
// the JSON, YAML and TOML configuration files.
package config

import (
	"github.com/Alia5/macrohook/internal/cmd"
	"github.com/Alia5/macrohook/internal/log"
)

type CLI struct {
	Config string `help:"Path to a configuration file (json, yaml or toml)" type:"path" env:"MACROHOOK_CONFIG"`

	cmd.Globals `embed:""`

	Log log.Config `embed:"" prefix:"log."`

	Run       cmd.Run            `cmd:"" help:"Serve hotkeys and hotstrings from a bindings file"`
	Record    cmd.Record         `cmd:"" help:"Record input events to a file"`
	Replay    cmd.Replay         `cmd:"" help:"Replay a recorded file"`
	Send      cmd.Send           `cmd:"" help:"Inject keys, text and pointer input"`
	Layouts   cmd.LayoutCommand  `cmd:"" name:"layouts" help:"Inspect keyboard layouts"`
	Keys      cmd.Keys           `cmd:"" help:"List key and button names"`
	Windows   cmd.WindowsCommand `cmd:"" help:"List, watch and control windows"`
	ConfigCmd cmd.ConfigCommand  `cmd:"" name:"config" help:"Configuration file helpers"`
	Install   cmd.Install        `cmd:"" help:"Install run as a per-user service"`
	Uninstall cmd.Uninstall      `cmd:"" help:"Remove the per-user service"`
}
