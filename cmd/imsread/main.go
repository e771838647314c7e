// Command imsread inspects Imaris .ims files and exports their channels.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/robert-malhotra/go-ims/internal/config"
)

func main() {
	os.Exit(imsread(os.Args[1:], os.Stdout, os.Stderr))
}

// imsread runs the command line in args and returns the exit status.
func imsread(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("imsread", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Configuration file (.yaml or .toml)")
	verbose := fs.Bool("v", false, "Log progress to stderr or the configured log file")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		printUsage(stderr)
		return 2
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "imsread: %v\n", err)
		return 1
	}
	if *verbose {
		cfg.Logging.Verbose = true
	}
	logger, closer := cfg.Logging.Logger("imsread: ")
	defer closer.Close()

	logger.Printf("running %s", fs.Arg(0))
	err = run(fs.Arg(0), fs.Args()[1:], cfg, logger, stdout)
	if errors.Is(err, errUsage) {
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "imsread: %v\n", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

func run(command string, args []string, cfg *config.Config, logger *log.Logger, out io.Writer) error {
	env := &env{cfg: cfg, log: logger, out: out}
	switch command {
	case "info":
		return env.info(args)
	case "tree":
		return env.tree(args)
	case "surfaces":
		return env.surfaces(args)
	case "points":
		return env.points(args)
	case "export":
		return env.export(args)
	case "plot":
		return env.plot(args)
	case "help":
		printUsage(out)
		return nil
	}
	fmt.Fprintf(out, "Unknown command: %s\n\n", command)
	printUsage(out)
	return errUsage
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `imsread - read Imaris .ims files

Usage: imsread [-config file] [-v] <command> [options] <file.ims>

Commands:
  info       Print image metadata, channels and object counts as YAML
  tree       List the groups, datasets and attributes of the file
  surfaces   Summarize every surface collection
  points     Summarize every point collection
  export     Write each channel as <base>_ch<i><ext>
  plot       Plot a channel's max projection with surface centroids
  help       Show this help message

Run 'imsread <command> -h' for the options of a command.
`)
}
