/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/andreas-jonsson/vxtmouse/emulator"
	"github.com/andreas-jonsson/vxtmouse/emulator/dialog"
	"github.com/andreas-jonsson/vxtmouse/emulator/peripheral/dosmouse"
	"github.com/andreas-jonsson/vxtmouse/version"
	"github.com/spf13/afero"
)

const (
	envPrefix  = "VXT_MOUSE"
	configBase = "vxtmouse"
)

type LogFlags struct {
	Level string `help:"Log level." enum:"debug,info,warn,error" default:"info"`
	File  string `help:"Log file. Logging is muted while the display owns the terminal unless a file is given." type:"path"`
}

type CLI struct {
	ConfigFile string           `name:"config" help:"Configuration file (JSON, YAML or TOML)." type:"path" config:"-"`
	InitConfig string           `help:"Write a configuration template with the default values and exit. The extension selects the format." type:"path" config:"-"`
	Force      bool             `help:"Let --init-config overwrite an existing file." config:"-"`
	Version    kong.VersionFlag `short:"v" help:"Print version information." config:"-"`
	Manual     bool             `short:"m" help:"Open the online manual." config:"-"`

	Log   LogFlags        `embed:"" prefix:"log-"`
	Mouse dosmouse.Config `embed:"" prefix:"mouse-"`

	Snapshot string `help:"Driver state snapshot, restored at startup and saved on exit." type:"path"`
	SDL      bool   `name:"sdl" help:"Capture the mouse in an SDL window (needs the sdl build tag)."`
}

const manualURL = "https://github.com/andreas-jonsson/virtualxt"

func (c *CLI) run(logger *slog.Logger) error {
	if c.Manual {
		return dialog.OpenURL(manualURL)
	}
	if c.InitConfig != "" {
		return writeConfigTemplate(afero.NewOsFs(), c.InitConfig, c.Force)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sig)
	go func() {
		for s := range sig {
			if s == syscall.SIGHUP {
				dialog.RequestRestart()
			} else {
				dialog.RequestShutdown()
			}
		}
	}()

	err := emulator.Start(emulator.Options{
		Mouse:    c.Mouse,
		Snapshot: c.Snapshot,
		Fs:       afero.NewOsFs(),
		Logger:   logger,
		SDL:      c.SDL,
	})
	if err != nil {
		logger.Error("Emulator stopped", "error", err)
	}
	return err
}

func main() {
	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configCandidatePaths(userCfg)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("vxtmouse"),
		kong.Description("VirtualXT DOS mouse driver (INT 33h)"),
		kong.UsageOnError(),
		kong.DefaultEnvars(envPrefix),
		kong.Vars{"version": fmt.Sprintf("%s\nv%s (%s)\n%s", logo, version.Current.FullString(), version.Hash, version.Copyright)},
		// Flags and environment override configuration files.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	// The text display owns the terminal while running.
	mute := cli.Log.File == "" && cli.InitConfig == "" && !cli.Manual
	logger, closer, err := setupLogger(cli.Log.Level, cli.Log.File, mute)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to setup logger:", err)
		os.Exit(2)
	}
	defer closer.Close()

	if err := cli.run(logger); err != nil {
		if mute {
			dialog.ShowErrorMessage(err.Error())
		}
		ctx.FatalIfErrorf(err)
	}
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv(envPrefix + "_CONFIG")
}

// configCandidatePaths lists configuration files in priority order. A
// user supplied file is routed to the loader matching its extension.
func configCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(slice *[]string, p string) { *slice = append(*slice, p) }

	if userPath != "" {
		switch filepath.Ext(userPath) {
		case ".yaml", ".yml":
			add(&yamlPaths, userPath)
		case ".toml":
			add(&tomlPaths, userPath)
		default:
			add(&jsonPaths, userPath)
		}
	}

	dirs := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, configBase))
	}
	for _, dir := range dirs {
		add(&jsonPaths, filepath.Join(dir, configBase+".json"))
		add(&yamlPaths, filepath.Join(dir, configBase+".yaml"))
		add(&yamlPaths, filepath.Join(dir, configBase+".yml"))
		add(&tomlPaths, filepath.Join(dir, configBase+".toml"))
	}
	return
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupLogger configures slog and the standard logger used by the
// machine. Muted output is discarded.
func setupLogger(level, file string, mute bool) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	switch {
	case file != "":
		fp, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w, closer = fp, fp
	case mute:
		w = io.Discard
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	log.SetOutput(w)
	return logger, closer, nil
}

var logo = `
██╗   ██╗██╗██████╗ ████████╗██╗   ██╗ █████╗ ██╗     ██╗  ██╗████████╗
██║   ██║██║██╔══██╗╚══██╔══╝██║   ██║██╔══██╗██║     ╚██╗██╔╝╚══██╔══╝
██║   ██║██║██████╔╝   ██║   ██║   ██║███████║██║      ╚███╔╝    ██║   
╚██╗ ██╔╝██║██╔══██╗   ██║   ██║   ██║██╔══██║██║      ██╔██╗    ██║   
 ╚████╔╝ ██║██║  ██║   ██║   ╚██████╔╝██║  ██║███████╗██╔╝ ██╗   ██║   
  ╚═══╝  ╚═╝╚═╝  ╚═╝   ╚═╝    ╚═════╝ ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝   ╚═╝`
