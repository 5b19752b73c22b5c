package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("failed to set up logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		if err := runExport(os.Args[2:]); err != nil {
			sugar.Fatalf("export: %v", err)
		}
	case "check":
		if err := runCheck(os.Args[2:]); err != nil {
			sugar.Fatalf("check: %v", err)
		}
	case "schema":
		if err := runSchema(os.Args[2:]); err != nil {
			sugar.Fatalf("schema: %v", err)
		}
	case "publish":
		if err := runPublish(os.Args[2:]); err != nil {
			sugar.Fatalf("publish: %v", err)
		}
	case "init-db":
		if err := runInitDB(os.Args[2:]); err != nil {
			sugar.Fatalf("init-db: %v", err)
		}
	default:
		sugar.Errorf("unknown command %q", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	logger := zap.S()
	logger.Info("Usage: inquiry-tools <command> [options]")
	logger.Info("")
	logger.Info("Commands:")
	logger.Info("  export    Compile a form JSON file into an embeddable widget")
	logger.Info("  check     Run the save-time checks on a form JSON file")
	logger.Info("  schema    Print the submission JSON schema of a form")
	logger.Info("  publish   Upload the hosted script of a form to S3")
	logger.Info("  init-db   Create the PostgreSQL key/value table")
}
