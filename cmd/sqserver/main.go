/*
Sqserver starts a Sequitur server and begins listening for new connections.

Usage:

	sqserver [flags]
	sqserver [flags] -c config.toml

Once started, the server listens for HTTP requests and responds to them using
REST over JSON. By default it listens on localhost:8080 with an in-memory
persistence backend and a randomly generated, process-lifetime JWT secret.

The flags are:

	-v, --version
		Give the current version of Sequitur server and then exit.

	-c, --config FILE
		Load configuration from the given TOML file. If not given, built-in
		defaults are used.

If no secret is configured, one is generated at random at startup. As a
consequence, all tokens become invalid as soon as the server shuts down; this
is suitable for testing only. A config file must set a secret between 32 and
64 bytes to run in production.
*/
package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/dekarrin/sequitur/internal/sqconfig"
	"github.com/dekarrin/sequitur/internal/sqserver"
	"github.com/dekarrin/sequitur/internal/version"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitConfigError indicates an unsuccessful program execution due to an
	// invalid configuration.
	ExitConfigError

	// ExitServerError indicates an unsuccessful program execution due to a
	// failure starting or running the server.
	ExitServerError
)

var (
	returnCode  = ExitSuccess
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of Sequitur server and then exit.")
	flagConfig  = pflag.StringP("config", "c", "", "Load configuration from the given TOML file.")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (sequitur server)\n", version.Current)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitConfigError
		return
	}

	store, err := cfg.DB.Connect()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not connect to database: %s\n", err.Error())
		returnCode = ExitServerError
		return
	}
	defer store.Close()

	api := sqserver.New(store, []byte(cfg.Secret))
	log.Printf("INFO  Starting sequitur server on %s...", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, api.Router()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: server exited: %s\n", err.Error())
		returnCode = ExitServerError
		return
	}
}

func loadConfig() (sqconfig.Config, error) {
	var cfg sqconfig.Config

	if *flagConfig != "" {
		loaded, err := sqconfig.Load(*flagConfig)
		if err != nil {
			return sqconfig.Config{}, err
		}
		cfg = loaded
	}

	cfg = cfg.FillDefaults()

	if cfg.Secret == "DEFAULT_SEQUITUR_SECRET-DO_NOT_USE_IN_PROD!!" {
		generated, err := randomSecret()
		if err != nil {
			return sqconfig.Config{}, fmt.Errorf("generate random secret: %w", err)
		}
		cfg.Secret = generated
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	}

	if err := cfg.Validate(); err != nil {
		return sqconfig.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, sqconfig.MaxSecretSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", b)[:sqconfig.MaxSecretSize], nil
}
