package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/editor"
	"github.com/lychee-technology/inquiry/internal/intake"
	"github.com/lychee-technology/inquiry/internal/widget"
)

type exportOptions struct {
	formFile      string
	mode          string
	out           string
	script        bool
	scriptBaseURL string
	endpoint      string
}

func runExport(args []string) error {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: inquiry-tools export [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	defaults := inquiry.DefaultConfig().Export
	opts := exportOptions{}
	flags.StringVar(&opts.formFile, "form", "", "Path to the form JSON file (required)")
	flags.StringVar(&opts.mode, "mode", string(inquiry.OutputModeCompact), "Output mode: compact, inline or detailed")
	flags.StringVar(&opts.out, "out", "", "Path to write the artifact (defaults to stdout)")
	flags.BoolVar(&opts.script, "script", false, "Write the hosted script the compact mode loads instead of the artifact")
	flags.StringVar(&opts.scriptBaseURL, "script-base-url", getenvDefault("SCRIPT_BASE_URL", defaults.ScriptBaseURL), "Base URL of hosted scripts")
	flags.StringVar(&opts.endpoint, "endpoint", getenvDefault("SUBMIT_ENDPOINT", defaults.Endpoint), "Submission endpoint baked into the widget")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	artifact, err := exportForm(opts)
	if err != nil {
		return err
	}
	return writeOutput(opts.out, []byte(artifact))
}

func exportForm(opts exportOptions) (string, error) {
	mode, err := inquiry.ParseOutputMode(opts.mode)
	if err != nil {
		return "", err
	}
	form, err := loadCheckedForm(opts.formFile)
	if err != nil {
		return "", err
	}

	cfg := inquiry.DefaultConfig().Export
	cfg.ScriptBaseURL = opts.scriptBaseURL
	cfg.Endpoint = opts.endpoint
	assembler := widget.NewAssembler(cfg)
	if opts.script {
		return assembler.HostedScript(form)
	}
	return assembler.Build(form, mode)
}

func runCheck(args []string) error {
	flags := flag.NewFlagSet("check", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: inquiry-tools check -form <file>")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}
	formFile := flags.String("form", "", "Path to the form JSON file (required)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	form, err := loadForm(*formFile)
	if err != nil {
		return err
	}
	report := editor.Check(form)
	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := writeOutput("", encoded); err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("form has %d error(s)", len(report.Errors))
	}
	return nil
}

func runSchema(args []string) error {
	flags := flag.NewFlagSet("schema", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: inquiry-tools schema [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}
	formFile := flags.String("form", "", "Path to the form JSON file (required)")
	out := flags.String("out", "", "Path to write the schema (defaults to stdout)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	form, err := loadForm(*formFile)
	if err != nil {
		return err
	}
	if _, err := intake.SchemaFor(form); err != nil {
		return fmt.Errorf("resolve schema: %w", err)
	}
	encoded, err := json.MarshalIndent(intake.SchemaDocument(form), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	return writeOutput(*out, encoded)
}
