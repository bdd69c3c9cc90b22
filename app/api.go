package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiffu/watchdog/config"
	"github.com/fiffu/watchdog/lib"
	"github.com/fiffu/watchdog/lib/models"
	"github.com/fiffu/watchdog/lib/monitor"
	"github.com/fiffu/watchdog/senders"
)

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service, mon *monitor.Monitor, dispatcher *senders.Dispatcher) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc, mon, dispatcher)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *lib.Service, mon *monitor.Monitor, dispatcher *senders.Dispatcher) http.Handler {
	ctrl := &controller{log, svc, mon, dispatcher}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("watchdog", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Post("/login", ctrl.login)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", ctrl.register)
			r.Get("/{user_id}/websites", ctrl.listWebsites)
			r.Post("/{user_id}/websites", ctrl.subscribe)
			r.Delete("/{user_id}/websites/{website_id}", ctrl.unsubscribe)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/scan", ctrl.scanNow)
			r.Post("/test-email", ctrl.testEmail)
			r.Post("/users", ctrl.createUser)
			r.Put("/users/{user_id}/quota", ctrl.replenishQuota)
		})
	})

	return r
}

type controller struct {
	log        *zap.Logger
	svc        *lib.Service
	mon        *monitor.Monitor
	dispatcher *senders.Dispatcher
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Errorw("Request failed", "error", err)
		return
	} else {
		w.WriteHeader(status)
		if b != nil {
			w.Write(b)
		}
	}
}

func (ctrl *controller) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := r.FormValue("email")
	password := r.FormValue("password")

	if email == "" {
		ctrl.reject(w, 400, errors.New("Email is required"))
		return
	}
	if password == "" {
		ctrl.reject(w, 400, errors.New("Password is required"))
		return
	}

	user, err := ctrl.svc.Register(ctx, email, password)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusAccepted, UserView{}.From(user))
}

func (ctrl *controller) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := ctrl.svc.Authenticate(ctx, r.FormValue("email"), r.FormValue("password"))
	if errors.Is(err, lib.ErrInvalidCredentials) {
		ctrl.reject(w, http.StatusUnauthorized, err)
		return
	} else if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, UserView{}.From(user))
}

func (ctrl *controller) listWebsites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")

	websites, err := ctrl.svc.ListWebsites(ctx, parseInt(userID))
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.Website, WebsiteView](websites))
}

func (ctrl *controller) subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	url := r.FormValue("url")

	sub, err := ctrl.svc.Subscribe(ctx, parseInt(userID), url)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, SubscriptionView{}.From(sub))
}

func (ctrl *controller) unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	websiteID := chi.URLParam(r, "website_id")

	if err := ctrl.svc.Unsubscribe(ctx, parseInt(userID), parseInt(websiteID)); err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"deleted": true})
}

// scanNow runs one scan cycle synchronously, for out-of-band checks.
func (ctrl *controller) scanNow(w http.ResponseWriter, r *http.Request) {
	if err := ctrl.mon.RunCycle(r.Context()); err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"scanned": true})
}

func (ctrl *controller) testEmail(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	if email == "" {
		ctrl.reject(w, 400, errors.New("Email is required"))
		return
	}

	if err := ctrl.dispatcher.SendTest(r.Context(), email); err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"sent": true})
}

func (ctrl *controller) createUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := r.FormValue("email")
	password := r.FormValue("password")
	isAdmin := r.FormValue("is_admin") == "true"

	user, err := ctrl.svc.CreateUser(ctx, email, password, isAdmin)
	if errors.Is(err, lib.ErrEmailTaken) {
		ctrl.reject(w, http.StatusConflict, err)
		return
	} else if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, UserView{}.From(user))
}

func (ctrl *controller) replenishQuota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")

	quota, err := strconv.Atoi(r.FormValue("quota"))
	if err != nil {
		ctrl.reject(w, 400, errors.New("quota must be an integer"))
		return
	}

	if err := ctrl.svc.ReplenishQuota(ctx, parseInt(userID), quota); err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"quota": quota})
}

func parseInt(s string) uint {
	u, _ := strconv.ParseUint(s, 10, 64)
	return uint(u)
}
