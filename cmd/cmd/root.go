// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"log/slog"
	"os"

	ansi "github.com/jhunt/go-ansi"
	"github.com/mattn/go-isatty"
	"github.com/ostafen/diskprobe/internal/env"
	"github.com/ostafen/diskprobe/internal/logger"
	"github.com/spf13/cobra"
)

// log is set up by the root command before any subcommand runs.
var log = logger.Discard()

// Execute runs the command line. banner is printed for interactive
// sessions unless --quiet is given.
func Execute(banner func()) error {
	var logFile *os.File

	rootCmd := &cobra.Command{
		Use:           env.AppName,
		Short:         env.AppName + " - raw disk and partition table inspector",
		Version:       env.Version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			level, _ := flags.GetString("log-level")
			path, _ := flags.GetString("log-file")
			noColor, _ := flags.GetBool("no-color")
			quiet, _ := flags.GetBool("quiet")

			interactive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
			if noColor {
				ansi.ForceColor(false)
			}
			if interactive && !quiet && banner != nil {
				banner()
			}

			l, f, err := logger.Setup(path, logger.ParseLevel(level))
			if err != nil {
				return err
			}
			log, logFile = l, f
			slog.SetDefault(l)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "WARN", "minimum log level: DEBUG, INFO, WARN or ERROR")
	flags.String("log-file", "", "write logs to this file instead of stderr")
	flags.Bool("no-color", false, "disable colored output")
	flags.BoolP("quiet", "q", false, "do not print the banner")

	rootCmd.AddCommand(
		DefineDisksCommand(),
		DefineReadCommand(),
		DefineClassifyCommand(),
		DefinePartsCommand(),
		DefineReportCommand(),
		DefineBackupCommand(),
		DefineMountCommand(),
	)

	err := rootCmd.Execute()
	if err != nil {
		ansi.Fprintf(os.Stderr, "@R{error:} %s\n", err)
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	return err
}
