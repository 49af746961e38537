package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/servico/notifier/api/responses"
	"github.com/servico/notifier/pkg/config"
	pkgerrors "github.com/servico/notifier/pkg/errors"
	"github.com/servico/notifier/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

func Healthz(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Servico-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// Readyz runs every check and fails when any of them does.
func Readyz(logg *logger.Logger, checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make(map[string]string, len(names))
		var failed error
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				results[name] = err.Error()
				if failed == nil {
					failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" not ready")
				}
				continue
			}
			results[name] = "ok"
		}

		if failed != nil {
			typed := pkgerrors.As(failed).WithDetails(results)
			responses.WriteError(ctx, logg, w, typed)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": results})
	}
}
