package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"app/internal/cart"
	"app/internal/commerce"
	"app/internal/config"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/middleware"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

// NewServeCommand はAPIサーバを起動する。
func NewServeCommand() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the storefront API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load (ignored if missing)")

	return cmd
}

func runServe(envFile string) error {
	// .env は無くてもよい（本番は環境変数で渡す）
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	//カートスロットのDB
	gormDB, err := db.Connect(cfg.CartDBPath)
	if err != nil {
		return err
	}
	if err := gormDB.AutoMigrate(&infraRepo.CartSlot{}); err != nil {
		return err
	}

	slotRepo := infraRepo.NewCartSlotGormRepository(gormDB, time.Duration(cfg.CartPollMS)*time.Millisecond)
	defer slotRepo.Close()

	//プラットフォームAPIクライアント
	client := commerce.NewClient(cfg.WCAPIURL, cfg.WCConsumerKey, cfg.WCConsumerSecret)

	//サーバ停止でカート監視も止める
	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New("store")
	carts := cart.NewRegistry(baseCtx, slotRepo, logger, 0)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(carts, client)
	productUC := usecase.NewProductUsecase(client)
	checkoutUC := usecase.NewCheckoutUsecase(carts, client)
	authUC := usecase.NewAuthUsecase(client)

	//Handler生成
	e := server.New(cfg, server.Handlers{
		Product:  handler.NewProductHandler(productUC),
		Cart:     handler.NewCartHandler(cartUC),
		Checkout: handler.NewCheckoutHandler(checkoutUC),
		Auth:     handler.NewAuthHandler(authUC),
		ClientMW: middleware.ClientID(),
		AuthMW:   middleware.AuthJWT(client),
	})

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	//Server起動
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	<-baseCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
