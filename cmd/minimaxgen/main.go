// Command minimaxgen generates minimax descriptors for the constructors of a
// package annotated with @service. It is meant to run through go:generate:
//
//	//go:generate go run github.com/a-peyrard/minimax/cmd/minimaxgen
//
// A constructor is annotated in its doc:
//
//	// NewGreeter greets visitors.
//	// @service interface=Greeter lifetime=transient
//	func NewGreeter(
//		counter Counter, // @inject id="VisitorCounter"
//	) (*greeter, error)
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a-peyrard/minimax/config"
	"github.com/a-peyrard/minimax/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

type Settings struct {
	// Dir is the package directory to scan.
	Dir string `mapstructure:"dir" validate:"required"`
	// File is the file triggering the generation, the output is written next
	// to it as <file>_gen.go.
	File     string `mapstructure:"file"`
	Output   string `mapstructure:"output"`
	Manifest string `mapstructure:"manifest"`
	LogLevel string `mapstructure:"log-level" validate:"omitempty,oneof=trace debug info warn error"`
	DryRun   bool   `mapstructure:"dry-run"`
}

func (s *Settings) ApplyDefault() {
	if s.Dir == "" {
		s.Dir = "."
	}
}

// OutputPath is where the generated code goes.
func (s *Settings) OutputPath() string {
	if s.Output != "" {
		return s.Output
	}
	name := "minimax"
	if s.File != "" {
		name = strings.TrimSuffix(filepath.Base(s.File), ".go")
	}
	return filepath.Join(s.Dir, name+"_gen.go")
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("minimaxgen", pflag.ContinueOnError)
	flags.String("dir", ".", "package directory to scan")
	flags.String("file", "", "file triggering the generation, defaults to $GOFILE")
	flags.String("output", "", "generated file, defaults to <file>_gen.go")
	flags.String("manifest", "", "also write a YAML manifest of the services to this file")
	flags.String("log-level", "info", "log level")
	flags.Bool("dry-run", false, "print the generated code instead of writing it")
	return flags
}

func loadSettings(args []string) (*Settings, error) {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	return config.Load[Settings](
		config.WithEnvPrefix("MINIMAXGEN"),
		config.WithDotEnv(".minimaxgen.env"),
		config.WithFlags(flags),
		config.WithEnvBinding("file", "MINIMAXGEN_FILE", "GOFILE"),
	)
}

func run(logger *zerolog.Logger, settings *Settings) error {
	startScan := time.Now()
	pkgName, services, err := scanPackage(logger, settings.Dir)
	if err != nil {
		return err
	}
	if expected := os.Getenv("GOPACKAGE"); expected != "" && expected != pkgName {
		return fmt.Errorf("scanned package %s while generating for package %s", pkgName, expected)
	}

	logger.Info().Msgf("🎯 %d services found in package %s", len(services), pkgName)
	for _, service := range services {
		logger.Debug().Msgf("%s", service)
	}
	logger.Info().Msgf("🕵️‍♂️ Scanning completed in %s", time.Since(startScan))

	code, err := renderCode(pkgName, services)
	if err != nil {
		return err
	}

	if settings.DryRun {
		_, err = os.Stdout.Write(code)
		return err
	}

	outputPath := settings.OutputPath()
	if err := os.WriteFile(outputPath, code, 0o644); err != nil {
		return fmt.Errorf("failed to write %s:\n\t%w", outputPath, err)
	}
	logger.Info().Msgf("✅ Code generated successfully in %s", outputPath)

	if settings.Manifest != "" {
		out, err := renderManifest(pkgName, services)
		if err != nil {
			return err
		}
		if err := os.WriteFile(settings.Manifest, out, 0o644); err != nil {
			return fmt.Errorf("failed to write %s:\n\t%w", settings.Manifest, err)
		}
		logger.Info().Msgf("📦 Manifest written in %s", settings.Manifest)
	}
	return nil
}

func main() {
	settings, err := loadSettings(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "minimaxgen: %v\n", err)
		os.Exit(2)
	}

	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "minimaxgen: %v\n", err)
		os.Exit(2)
	}
	logger := logging.New(os.Stderr, level)

	if err := run(&logger, settings); err != nil {
		logger.Error().Err(err).Msg("Failed to generate code")
		os.Exit(1)
	}
}
