package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/equitylens/equitylens/internal/agent"
	"github.com/equitylens/equitylens/internal/api"
	"github.com/equitylens/equitylens/internal/chat"
	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/embedding"
	"github.com/equitylens/equitylens/internal/findata"
	"github.com/equitylens/equitylens/internal/llm"
	"github.com/equitylens/equitylens/internal/report"
	"github.com/equitylens/equitylens/internal/research"
	"github.com/equitylens/equitylens/internal/store"
	"github.com/equitylens/equitylens/internal/tools"
	"github.com/equitylens/equitylens/internal/vector"
	"github.com/equitylens/equitylens/internal/webresearch"
	"github.com/equitylens/equitylens/internal/workflow"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("equitylens: .env file not loaded", "error", err)
	} else {
		logger.Info("equitylens: environment loaded from .env")
	}

	addr := flag.String("addr", ":8082", "listen address")
	dbPath := flag.String("db", defaultDBPath(), "path to the SQLite report database")
	workers := flag.Int("workers", 6, "research worker pool size")
	flag.Parse()

	logger.Info("equitylens: startup initiated", "addr", *addr, "db", *dbPath)

	storeCfg, err := store.LoadConfig()
	if err != nil {
		logger.Error("equitylens: store config load failed", "error", err)
		fmt.Println("store config error:", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		storeCfg.Path = *dbPath
	}
	st, err := store.OpenWithConfig(storeCfg)
	if err != nil {
		logger.Error("equitylens: store open failed", "error", err)
		fmt.Println("store error:", err)
		os.Exit(1)
	}
	defer st.Close()

	provider := llm.NewProvider()
	logger.Info("equitylens: provider selected", "provider", provider.Name())

	registry := tools.NewRegistry()
	finCfg := findata.LoadConfig()
	if finCfg.Enabled() {
		if err := findata.NewClient(finCfg).RegisterTools(registry); err != nil {
			logger.Error("equitylens: financial data tools registration failed", "error", err)
			fmt.Println("tools error:", err)
			os.Exit(1)
		}
		logger.Info("equitylens: financial data tools registered")
	} else {
		logger.Warn("equitylens: financial data tools disabled, no API key configured")
	}
	webClient := webresearch.NewClient()
	if webClient.Enabled() {
		if err := webClient.RegisterTools(registry); err != nil {
			logger.Error("equitylens: web research tool registration failed", "error", err)
			fmt.Println("tools error:", err)
			os.Exit(1)
		}
		logger.Info("equitylens: web research tool registered")
	} else {
		logger.Warn("equitylens: web research disabled, no API key configured")
	}

	runner := agent.NewRunner(provider, registry)
	embedder := embedding.NewService(provider)
	reports := report.NewStorage(st, embedder)
	orchestrator := research.NewOrchestrator(research.NewSpecializedAgent(runner), *workers)
	defer orchestrator.Close()
	synthesizer := research.NewSynthesizer(provider)
	manager := workflow.NewManager(orchestrator, synthesizer, reports)

	sessions := chat.NewSessionRegistry(0, 0)
	chatAgent := chat.NewAgent(provider, embedder, vector.NewSearcher(st), sessions)

	server := api.NewServer(manager, reports, chatAgent)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("equitylens: listening", "addr", *addr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logger.Info("equitylens: shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("equitylens: server failed", "error", err)
			fmt.Println("server error:", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("equitylens: shutdown failed", "error", err)
	}
	manager.Wait()
	logger.Info("equitylens: shutdown complete")
}

func defaultDBPath() string {
	if env := os.Getenv("SQLITE_PATH"); env != "" {
		return env
	}
	return "equitylens.db"
}
