package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"arkman.dev/cli/internal/interfaces/cli"
	"arkman.dev/cli/internal/interfaces/di"
)

func main() {
	container, err := di.NewContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		container.Logger.Println("Received shutdown signal, stopping running commands...")
		cancel()

		if err := container.Shutdown(context.Background()); err != nil {
			container.Logger.Printf("Error during shutdown: %v", err)
		}
	}()

	cli.Execute(ctx, container.GetCLIContainer())
}
