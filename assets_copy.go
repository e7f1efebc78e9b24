package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"assets_copy/assets"
	"assets_copy/cfg"
	"assets_copy/cli"
	"assets_copy/util/logger"

	"github.com/adampresley/sigint"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	goFlags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

const version = "v1.0.0"

func main() {
	// Parse command line arguments
	flags, err := cli.Parse()
	if flags.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	if cli.IsErrOfType(err, goFlags.ErrHelp) {
		// Help message is printed by go-flags
		os.Exit(0)
	}

	// Init logger
	log := logger.New(flags.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	if flags.WriteCfg {
		if err := cfg.WriteDefault(flags.ProgramCfgPath); err != nil {
			log.Fatal(err)
		}
		log.Infof("Default config is written to %v", flags.ProgramCfgPath)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigint.ListenForSIGINT(func() {
		log.Warn("Interrupted, stopping")
		cancel()
	})

	if err := run(ctx, log, flags, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run reads program config, applies <flags> overrides and copies source directory entries to destination directory.
//
// Prints confirmation line to <out> on success.
func run(ctx context.Context, log *logrus.Logger, flags cli.Flags, out io.Writer) error {
	root, err := cfg.Init(log, flags.ProgramCfgPath)
	if err != nil {
		return errors.Wrap(err, "Init program config")
	}
	if flags.SrcDir != "" {
		root.General.SrcDir = flags.SrcDir
	}
	if flags.DstDir != "" {
		root.General.DstDir = flags.DstDir
	}

	assetsRepo := assets.NewRepo(log, root)
	if _, err := assetsRepo.Run(ctx, root.General.SrcDir, root.General.DstDir); err != nil {
		return errors.Wrap(err, "Copy directory")
	}

	blue := color.New(color.FgBlue)
	_, err = blue.Fprintf(out, "%v directory copied to %v directory!\n", root.General.SrcDir, root.General.DstDir)
	return errors.Wrap(err, "Print confirmation")
}
