package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/olegiv/logissue-ai-go/internal/ai"
	"github.com/olegiv/logissue-ai-go/internal/config"
	internalerrors "github.com/olegiv/logissue-ai-go/internal/errors"
	"github.com/olegiv/logissue-ai-go/internal/logfiles"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

// Version information - injected at build time via ldflags
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	a := newApp(stdout, stderr)
	root := newRootCmd(a)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %s\n", userMessage(err))
		return exitFailure
	}
	return exitSuccess
}

// userMessage turns an error into the line shown on stderr. Credentials are
// scrubbed since provider errors may echo request details.
func userMessage(err error) string {
	var (
		pathErr   *logfiles.PathNotFoundError
		configErr *config.ConfigurationError
		modelErr  *ai.ModelError
	)

	var msg string
	switch {
	case errors.As(err, &pathErr):
		msg = pathErr.Error()
	case errors.As(err, &configErr):
		msg = "configuration error: " + configErr.Error()
	case errors.Is(err, context.Canceled):
		msg = "interrupted"
	case errors.As(err, &modelErr):
		msg = "AI analysis failed: " + modelErr.Error()
	default:
		msg = err.Error()
	}
	return internalerrors.SanitizeString(msg)
}
