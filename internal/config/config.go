// Package config parses the command-line flags the daemon needs: which
// serial device to open, at what baud rate, and how chatty to be.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jdavidguerrero/pushclone-linkd/internal/port"
)

// Config holds the resolved command-line configuration.
type Config struct {
	Device  string
	Baud    int
	Verbose bool
}

// Parse reads args (normally os.Args[1:]) into a Config. On --help it
// prints usage and returns pflag.ErrHelp.
func Parse(args []string) (Config, error) {
	fs := pflag.NewFlagSet("pushclone-linkd", pflag.ContinueOnError)

	device := fs.StringP("port", "p", port.DefaultDevice, "serial device to open")
	baud := fs.IntP("baud", "b", port.DefaultBaud, "serial line speed")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pushclone-linkd [flags]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return Config{
		Device:  *device,
		Baud:    *baud,
		Verbose: *verbose,
	}, nil
}
