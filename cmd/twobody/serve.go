package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/san-kum/twobody/internal/publish"
	"github.com/san-kum/twobody/internal/stream"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func serve(cmd *cobra.Command, args []string) error {
	e, _, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if memcacheAt != "" {
		p := publish.NewPublisher(e, publish.Dial(memcacheAt), memcacheKey, logger)
		go p.Run(ctx)
	}

	hub := stream.NewHub(e, logger)
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.Handle("/snapshot", stream.SnapshotHandler(e))

	srv := &http.Server{Addr: addr, Handler: mux}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	if autostart {
		e.Start()
	}
	logger.Info("serving", zap.String("addr", addr), zap.Bool("running", e.Running()))
	fmt.Printf("serving on ws://%s/ws\n", addr)

	select {
	case err := <-errc:
		hub.Close()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
