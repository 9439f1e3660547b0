package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"map-assistant/internal/config"
	"map-assistant/internal/handler"
	"map-assistant/internal/markdown"
	"map-assistant/internal/service"
	"map-assistant/internal/storage"
	"map-assistant/internal/transport"
	"map-assistant/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	var configPath, mode string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "config file path")
	flag.StringVar(&mode, "mode", "terminal", "terminal | server")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := transport.NewClient(cfg.Backend)
	probeBackend(ctx, client, cfg.Backend.BaseURL)

	session, err := service.NewChatSession(ctx, client, storage.NewMemoryStorage(),
		service.WithBackendURL(cfg.Backend.BaseURL),
		service.WithSubscriberBuffer(cfg.Session.SubscriberBuffer),
	)
	if err != nil {
		logger.Fatalf("Failed to create chat session: %v", err)
	}
	defer session.Close()

	switch mode {
	case "server":
		runServer(ctx, cfg, session)
	case "terminal":
		if err := runTerminal(ctx, cfg, session, os.Stdin, os.Stdout); err != nil {
			logger.Fatalf("Terminal session failed: %v", err)
		}
	default:
		logger.Fatalf("Unknown mode %q", mode)
	}
}

func probeBackend(ctx context.Context, client *transport.Client, baseURL string) {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Health(probeCtx); err != nil {
		logger.Warnf("Backend at %s is not reachable yet: %v", baseURL, err)
		return
	}
	logger.Infof("Backend at %s is up", baseURL)
}

func runServer(ctx context.Context, cfg *config.Config, session *service.ChatSession) {
	router := setupRouter(cfg, handler.NewSessionHandler(session))

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Session API listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}

func setupRouter(cfg *config.Config, sessionHandler *handler.SessionHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	handler.RegisterRoutes(router.Group("/api"), sessionHandler)

	return router
}

// runTerminal reads one query per line. Input is held while a request is in
// flight, the way the web client disables its input box.
func runTerminal(ctx context.Context, cfg *config.Config, session *service.ChatSession, in io.Reader, out io.Writer) error {
	logger.SetOutput(os.Stderr)

	renderer, err := markdown.NewTermRenderer(cfg.Render.Style, cfg.Render.WordWrap)
	if err != nil {
		return err
	}

	printed := 0
	flush := func() {
		turns := session.Turns()
		for _, turn := range turns[printed:] {
			fmt.Fprintln(out, markdown.FormatTurn(renderer, turn))
		}
		printed = len(turns)
	}

	flush()
	fmt.Fprint(out, "> ")

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "/quit" {
				return nil
			}
			if session.Submit(line) {
				flush()
				fmt.Fprintln(out, "…")
				session.Wait()
				flush()
			}
			fmt.Fprint(out, "> ")
		}
	}
}
