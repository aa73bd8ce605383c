// Package server boots the application: configuration, stores, the HTTP
// router with its middleware stack, the admin live feed and the optional
// ops gRPC endpoint.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/cremaze/cremaze/app/routes"
	"github.com/cremaze/cremaze/config"
	"github.com/cremaze/cremaze/pkg/cache"
	"github.com/cremaze/cremaze/pkg/database"
	"github.com/cremaze/cremaze/pkg/event"
	opsgrpc "github.com/cremaze/cremaze/pkg/grpc"
	"github.com/cremaze/cremaze/pkg/logger"
	"github.com/cremaze/cremaze/pkg/metrics"
	"github.com/cremaze/cremaze/pkg/middleware"
	"github.com/cremaze/cremaze/pkg/reqid"
	"github.com/cremaze/cremaze/pkg/router"
	"github.com/cremaze/cremaze/pkg/storage"
	"github.com/cremaze/cremaze/pkg/ws"
)

// Start boots everything and blocks until SIGINT/SIGTERM, then drains.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}
	logger.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := database.Connect(ctx); err != nil {
		return err
	}
	defer database.Disconnect(context.Background()) //nolint:errcheck

	if err := cache.Connect(); err != nil {
		logger.Warn("cache unavailable, continuing without it", "error", err)
	}
	storage.Connect()

	// Mirror application logs into Mongo for the back office.
	logSink := logger.NewMongoHandler(database.Collection("app_logs"))
	logger.AttachSink(logSink)
	defer logSink.Close()

	hub := ws.NewHub()
	go hub.Run()
	registerLiveFeed(hub)

	r := router.New()
	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.StorefrontCORSOptions(config.CORSOrigin())),
	)
	routes.RegisterAPI(r, hub)

	var grpcStop func()
	if port := config.GRPCPort(); port != "" {
		srv, err := opsgrpc.Start(port, func(ctx context.Context) bool {
			return database.Client.Ping(ctx, readpref.Primary()) == nil
		})
		if err != nil {
			return err
		}
		grpcStop = srv.GracefulStop
	}

	httpSrv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("CreMaze API listening", "addr", httpSrv.Addr, "env", config.AppEnv())
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if grpcStop != nil {
		grpcStop()
	}
	event.Flush()
	return nil
}

// registerLiveFeed forwards order and contact events to connected admin
// dashboards.
func registerLiveFeed(hub *ws.Hub) {
	forward := func(kind string) event.Handler {
		return func(payload interface{}) {
			hub.BroadcastJSON(map[string]interface{}{
				"event": kind,
				"data":  payload,
			})
		}
	}

	event.Listen(event.OrderCreated, forward(event.OrderCreated))
	event.Listen(event.OrderUpdated, forward(event.OrderUpdated))
	event.Listen(event.OrderPaid, forward(event.OrderPaid))
	event.Listen(event.ContactCreated, forward(event.ContactCreated))
}
