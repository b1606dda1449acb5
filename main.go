package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"QGuard/global"
	"QGuard/logger"
	"QGuard/module/guard"
	"QGuard/module/guard/store"
	"QGuard/service/bot"
	"QGuard/service/gateway"
	"QGuard/service/natsx"
	"QGuard/service/status"
	"QGuard/tools/safe"
)

func main() {
	cfgPath := flag.String("config", "config/qguard.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := global.LoadAppConfig(*cfgPath)
	if err != nil {
		logger.Errorf("load config failed: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := global.ConfigAll(ctx, cfg); err != nil {
		logger.Errorf("init infrastructure failed: %v", err)
		os.Exit(1)
	}

	st, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Errorf("init store failed: %v", err)
		os.Exit(1)
	}

	bus, err := natsx.NewNatsManager(natsx.NatsxConfig{
		Servers: cfg.Nats.Servers,
		Name:    cfg.Nats.Name,
	})
	if err != nil {
		logger.Errorf("connect nats failed: %v", err)
		os.Exit(1)
	}
	defer func() { _ = bus.Close() }()

	if err := bot.RegisterRoutes(bus); err != nil {
		logger.Errorf("register bus routes failed: %v", err)
		os.Exit(1)
	}

	eng := guard.NewEngine(st, bot.NewBusConnector(bus), guard.Options{
		Superusers:    cfg.Superusers,
		WithdrawDelay: time.Duration(cfg.WithdrawDelayMS) * time.Millisecond,
	})

	if err := bot.NewService(bus, eng).Start(); err != nil {
		logger.Errorf("start core service failed: %v", err)
		os.Exit(1)
	}

	safe.Go(func() { eng.RunExpiryWatcher(ctx) })

	r := gin.Default()
	gw := gateway.NewServer(cfg.Gateway, bus)
	if err := gw.Start(r); err != nil {
		logger.Errorf("start gateway failed: %v", err)
		os.Exit(1)
	}
	if cfg.Status.Enable {
		status.Register(r, eng, []byte(cfg.Status.Secret))
	}

	safe.Go(func() {
		if err := r.Run(fmt.Sprintf(":%d", cfg.Gateway.Port)); err != nil {
			logger.Errorf("http server exited: %v", err)
		}
	})

	logger.Infof("qguard started, gateway on :%d%s", cfg.Gateway.Port, cfg.Gateway.Path)
	<-ctx.Done()
	logger.Info("shutting down")
	logger.Sync()
}

func buildStore(ctx context.Context, cfg *global.AppConfig) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "mongo":
		return store.NewMongo(), nil
	case "postgres":
		return store.NewPostgres(ctx, cfg.Storage.PostgresDSN)
	default:
		return store.NewRedis(), nil
	}
}
