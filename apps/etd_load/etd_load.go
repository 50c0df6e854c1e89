package main

import (
	"flag"
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/context"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/workers"
	"os"
)

// etd_load downloads ETD submission packages from the vendor's
// drop box, turns each one into a Fedora object, and deposits it.
// It processes everything in the incoming directory, prints a
// report, and exits.
func main() {
	pathToConfigFile, dryRun, archiveName := parseCommandLine()
	config, err := models.LoadConfigFile(pathToConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if dryRun {
		config.Mode = constants.ModeDryRun
	}
	if err = config.EnsureDirectories(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if err = config.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	_context, err := context.NewContext(config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer _context.Close()
	_context.MessageLog.Info("etd_load started with config %s in %s mode",
		config.ActiveConfig, config.Mode)

	loader := workers.NewETDBatchLoader(_context)
	summary, err := loader.Run(archiveName)
	if summary != nil {
		fmt.Println(summary.Report())
	}
	if err != nil {
		_context.MessageLog.Error(err.Error())
		fmt.Fprintln(os.Stderr, err.Error())
		_context.Close()
		os.Exit(1)
	}
	if _context.Failed() > 0 {
		_context.Close()
		os.Exit(2)
	}
}

func parseCommandLine() (configFile string, dryRun bool, archiveName string) {
	var pathToConfigFile string
	flag.StringVar(&pathToConfigFile, "config", "", "Path to etdloader config file")
	flag.BoolVar(&dryRun, "dry-run", false, "Process archives without sending anything to Fedora")
	flag.StringVar(&archiveName, "archive", "", "Load only this archive from the incoming directory")
	flag.Parse()
	if pathToConfigFile == "" {
		printUsage()
		os.Exit(1)
	}
	return pathToConfigFile, dryRun, archiveName
}

// Tell the user about the program.
func printUsage() {
	message := `
etd_load: Loads ETD submission packages into Fedora.

Usage: etd_load -config=<path to config file> [-dry-run] [-archive=<name>]

Param -config is required. Relative paths are relative to ETDLOADER_HOME.
Param -dry-run does everything except talk to Fedora. PIDs are made up.
Param -archive loads a single archive, e.g. etdadmin_upload_362114.zip

Credentials come from the environment: ETD_FTP_USER and ETD_FTP_PASSWORD
for the FTP transport, AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY for S3,
FEDORA_USER and FEDORA_PASSWORD for Fedora.

Exit status is 0 if every record was ingested or skipped, 2 if any
record failed, and 1 if the batch could not run.
`
	fmt.Println(message)
}
