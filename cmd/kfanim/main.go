// Package main provides the kfanim command line tool.
//
// kfanim reads keyframe animation strings, evaluates them and edits the
// parameters of YAML project documents with undoable operations.
//
// # Basic Usage
//
// Inspect an animation string:
//
//	kfanim parse "0=0;50~=100;100|=20"
//
// Evaluate it at some frames:
//
//	kfanim sample "0=0;50=100" 10 25 40
//
// Bake every animated parameter of a project:
//
//	kfanim bake project.yaml --from 0 --to 250 --out baked.yaml
//
// Edit a project:
//
//	kfanim keyframe add project.yaml blur amount 75 20 --type curve
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:          "kfanim",
		Short:        "Keyframe animation tool",
		Long:         `kfanim parses, evaluates, bakes and edits keyframed effect parameters.`,
		Version:      version + " (commit: " + commit + ")",
		SilenceUsage: true,
	}
	f := rootCmd.PersistentFlags()
	f.StringVarP(&g.configPath, "config", "c", "", "Path to YAML configuration file")
	f.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&g.logFormat, "log-format", "", "Log format (text, json)")
	f.StringVar(&g.fps, "fps", "", "Frame rate, e.g. 25 or 30000/1001")
	f.StringVar(&g.locale, "locale", "", "Locale of decimal numbers, e.g. C or de_DE")
	f.BoolVar(&g.stats, "stats", false, "Print metrics after the command")

	rootCmd.AddCommand(
		buildParseCmd(g),
		buildSampleCmd(g),
		buildExprCmd(g),
		buildBakeCmd(g),
		buildKeyframeCmd(g),
		buildWatchCmd(g),
	)
	return rootCmd
}
