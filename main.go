package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/user/lojinha-go/apperror"
	"github.com/user/lojinha-go/auth"
	"github.com/user/lojinha-go/background"
	"github.com/user/lojinha-go/cart"
	"github.com/user/lojinha-go/catalog"
	"github.com/user/lojinha-go/config"
	"github.com/user/lojinha-go/events"
	"github.com/user/lojinha-go/localstore"
	"github.com/user/lojinha-go/prefs"
	"github.com/user/lojinha-go/upstream"
	"github.com/user/lojinha-go/users"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := localstore.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	bus := events.NewBroadcaster(logger)
	client := upstream.NewClient(cfg.Upstream, logger)

	prober := background.NewProber(client, bus, cfg.Upstream.ProbeInterval, logger)
	prober.Start()
	defer prober.Stop()

	catalogService := catalog.NewService(client, store, bus, cfg.Storefront.ProductsPerPage, cfg.Storefront.SearchDebounce, logger)
	cartService := cart.NewService(catalogService, client, store, bus, cfg.Storefront.CouponCode, cfg.Storefront.CouponDiscount, logger)
	catalogService.SetReservations(cartService)

	authService, err := auth.NewService(client, store, bus, cfg.Auth, logger)
	if err != nil {
		logger.Fatal("failed to initialize auth", zap.Error(err))
	}
	authService.OnSessionChange(func(snap auth.SessionSnapshot) {
		if snap.IsAuthenticated {
			logger.Info("session established", zap.String("email", snap.User.Email))
		} else {
			logger.Info("session cleared")
		}
	})

	prefsService := prefs.NewService(store, bus, logger)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	if err := catalogService.Load(loadCtx); err != nil {
		logger.Warn("initial catalog load failed", zap.Error(err))
	}
	cancelLoad()

	catalogHandlers := catalog.NewHandlers(catalogService)
	cartHandlers := cart.NewHandlers(cartService)
	authHandlers := auth.NewHandlers(authService)
	userHandlers := users.NewHandlers(authService)
	prefsHandlers := prefs.NewHandlers(prefsService)
	eventsHandler := events.NewHandler(bus)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered", zap.Any("panic", rvr))
					auth.WriteError(ww, r, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	})

	// The event stream stays outside the timeout group; everything else gets
	// the standard request deadline.
	r.Get("/eventos", eventsHandler.HandleStream())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			auth.WriteJSON(w, http.StatusOK, map[string]interface{}{
				"status":       "ok",
				"backend_live": client.Live(),
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandlers.HandleRegister())
			r.Post("/login", authHandlers.HandleLogin())
			r.Post("/logout", authHandlers.HandleLogout())
			r.Get("/session", authHandlers.HandleSession())
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/avatar/{filename}", userHandlers.HandleGetAvatar())

			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(authService))
				r.Get("/me", userHandlers.HandleGetProfile())
				r.Put("/me", userHandlers.HandleUpdateProfile())
				r.Post("/avatar", userHandlers.HandleUploadAvatar())
			})
		})

		r.Get("/produtos", catalogHandlers.HandleListProducts())
		r.Get("/produtos/{id}", catalogHandlers.HandleGetProduct())
		r.Get("/categorias", catalogHandlers.HandleListCategories())
		r.Put("/catalogo/busca", catalogHandlers.HandleSearch())

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.Middleware(authService))
			r.Use(auth.RequireAdmin)
			r.Post("/catalogo/recarregar", catalogHandlers.HandleReload())
		})

		r.Route("/carrinho", func(r chi.Router) {
			r.Get("/", cartHandlers.HandleGetCart())
			r.Post("/itens", cartHandlers.HandleAddItem())
			r.Put("/itens/{id}", cartHandlers.HandleUpdateItem())
			r.Delete("/itens/{id}", cartHandlers.HandleRemoveItem())
			r.Post("/cupom", cartHandlers.HandleApplyCoupon())
			r.Post("/confirmar", cartHandlers.HandleConfirm())
		})

		r.Route("/preferencias", func(r chi.Router) {
			r.Get("/tema", prefsHandlers.HandleGetTheme())
			r.Put("/tema", prefsHandlers.HandleSetTheme())
			r.Post("/tema/alternar", prefsHandlers.HandleToggleTheme())
			r.Get("/ordenacao", prefsHandlers.HandleGetSort())
			r.Put("/ordenacao", prefsHandlers.HandleSetSort())
		})
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
