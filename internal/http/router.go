package http

import (
	"log/slog"
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth        *AuthHandler
	Drafts      *DraftHandler
	Connections *ConnectionHandler
	Generate    *GenerateHandler
	Cron        *CronHandler

	// Sessions guards the authenticated routes; CronSecret guards the
	// batch endpoints.
	Sessions   SessionValidator
	CronSecret string

	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireSession := func(next http.HandlerFunc) http.Handler {
		if cfg.Sessions == nil {
			return next
		}
		return RequireSession(cfg.Sessions, cfg.Logger)(next)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Register(w, r)
		})
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.CreateSession(w, r)
		})
		mux.HandleFunc("/sessions/current", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Auth.DeleteCurrentSession(w, r)
		})
	}

	if cfg.Drafts != nil {
		mux.Handle("/drafts", requireSession(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Drafts.List(w, r)
			case http.MethodPost:
				cfg.Drafts.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/drafts/", requireSession(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/drafts/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}

			id, action, _ := strings.Cut(rest, "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithDraftID(r.Context(), id))

			switch action {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Drafts.Get(w, r)
				case http.MethodPut:
					cfg.Drafts.Update(w, r)
				case http.MethodDelete:
					cfg.Drafts.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "publish":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Drafts.Publish(w, r)
			default:
				http.NotFound(w, r)
			}
		}))
	}

	if cfg.Connections != nil {
		mux.Handle("/linkedin/connect", requireSession(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Connections.Connect(w, r)
		}))
		// The provider redirects the popup here; the signed state token
		// is the only credential.
		mux.HandleFunc("/linkedin/callback", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Connections.Callback(w, r)
		})
		mux.Handle("/linkedin/connection", requireSession(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Connections.Status(w, r)
			case http.MethodDelete:
				cfg.Connections.Disconnect(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		}))
	}

	if cfg.Generate != nil {
		mux.Handle("/generate", requireSession(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Generate.Generate(w, r)
		}))
	}

	if cfg.Cron != nil {
		requireCron := RequireCronSecret(cfg.CronSecret, cfg.Logger)
		mux.Handle("/cron/publish", requireCron(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Cron.PublishSweep(w, r)
		})))
		mux.Handle("/cron/analytics", requireCron(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Cron.AnalyticsSweep(w, r)
		})))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
