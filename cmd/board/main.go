package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/tasukuchiba/message_board/internal/board"
	"github.com/tasukuchiba/message_board/internal/remote"
	"github.com/tasukuchiba/message_board/internal/terminal"
	"golang.org/x/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	layout, err := board.ParseLayout(config.Layout, config.AppID)
	if err != nil {
		return err
	}
	feed, err := remote.NewFeed(config.ServerURL, log)
	if err != nil {
		return err
	}
	client := remote.NewClient(config.ServerURL, log)
	// パイプやファイルへの出力では色を付けない
	colours := config.Colours && term.IsTerminal(int(os.Stdout.Fd()))
	console := terminal.NewConsole(os.Stdin, os.Stdout, colours)

	b := board.New(board.Dependencies{
		Auth:           client,
		Store:          client,
		Feed:           feed,
		Confirmer:      console,
		Renderer:       console,
		Layout:         layout,
		BootstrapToken: config.BootstrapToken,
		Log:            log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	console.Run(ctx, b)
	stop()
	return <-done
}
