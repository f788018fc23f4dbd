// Command librettod runs the libretto daemon: the edit-lifecycle store,
// the worker observation loop, and the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"libretto/internal/config"
	"libretto/internal/daemon"
)

var version = "0.1.0"

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	logLevelFlag := flag.String("log-level", "", "override configured log level")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("librettod " + version)
		os.Exit(0)
	}

	cfg, _, _, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemon.Run(context.Background(), cfg, daemon.Options{
		LogLevel: *logLevelFlag,
		Version:  version,
	}); err != nil {
		log.Fatalf("librettod: %v", err)
	}
}
