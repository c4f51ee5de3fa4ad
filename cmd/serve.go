package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ringside/internal/auth"
	"ringside/internal/config"
	"ringside/internal/content"
	"ringside/internal/delivery"
	httpapi "ringside/internal/http"
	"ringside/internal/logging"
	"ringside/internal/mailer"
	"ringside/internal/money"
	"ringside/internal/repository"
	"ringside/internal/service"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if cfg.Server.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, cfg.GetConnectTimeout())
	kv, err := repository.Open(openCtx, cfg.Storage)
	cancel()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := kv.Close(context.Background()); err != nil {
			log.Warn("close storage", zap.Error(err))
		}
	}()
	log.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	storeLog := log.Named("store")
	carts := repository.NewCartStore(kv, storeLog)
	orders := repository.NewOrderStore(kv, storeLog)
	products := repository.NewProductStore(kv, storeLog)

	var source service.ProductSource = service.NewLocalSource(products)
	if cfg.Catalog.Source == "content" {
		source = content.New(cfg.Content, cfg.GetContentTimeout(), log.Named("content"))
	}
	catalog := service.NewCatalogService(source, cfg.GetCacheTTL(), log.Named("catalog"))

	productSvc := service.NewProductService(products)
	if cfg.Catalog.Source == "local" {
		productSvc.OnChange(catalog.Invalidate)
	}

	currency := money.NewFormatter(cfg.Currency.Symbol, cfg.Currency.SymbolAfter, cfg.Currency.Locale)
	cartSvc := service.NewCartService(carts, currency, log.Named("cart"))
	checkout := service.NewCheckoutService(
		carts, orders,
		delivery.NewCodeGenerator(),
		service.NewValidator(cfg.Checkout.TestCards),
		cfg.GetSimulatedLatency(),
		log.Named("checkout"),
	)

	mail := mailer.New(cfg.Mail.Endpoint, cfg.GetMailTimeout())
	confirmations := mailer.NewConfirmations(mail, cfg.GetMailTimeout(), log.Named("mail"))
	if cfg.Mail.ConfirmOrders && cfg.Mail.Endpoint != "" {
		checkout.Subscribe(confirmations)
	}
	feed := httpapi.NewOrderFeed(cfg.Server.CORSOrigins, log.Named("feed"))
	checkout.Subscribe(feed)

	srv := httpapi.NewServer(httpapi.Deps{
		Catalog:     catalog,
		Cart:        cartSvc,
		Checkout:    checkout,
		Orders:      service.NewOrderService(orders, log.Named("orders")),
		Products:    productSvc,
		Customizer:  service.NewCustomizerService(catalog, cartSvc, currency),
		Newsletter:  mail,
		Verifier:    auth.NewVerifier(cfg.Auth),
		Feed:        feed,
		CORSOrigins: cfg.Server.CORSOrigins,
		Log:         log.Named("http"),
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Engine(),
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()
	feed.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	if err := confirmations.Wait(shutdownCtx); err != nil {
		log.Warn("pending confirmation mails dropped", zap.Error(err))
	}
	return nil
}
