package main

import (
	"context"
	"os"

	"github.com/Dicklesworthstone/loadwatch/internal/app"
	apperrors "github.com/Dicklesworthstone/loadwatch/internal/errors"
)

func main() {
	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		os.Exit(apperrors.ExitCode(err))
	}

	exitCode := application.Run(context.Background(), os.Stdout)
	os.Exit(exitCode)
}
