// Package ops は運用用のHTTPエンドポイントを提供する。
// ヘルスチェックとPrometheusメトリクスのみを公開し、
// プロダクトAPIはこのプロセスには含まれない。
package ops

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/voclio/voclio/internal/metrics"
)

// Pinger はDB疎通確認のインターフェース。*sql.DBを受け付けることができる。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewRouter は運用エンドポイントのルーティングを構成したchi.Routerを返す。
//
//	GET /healthz  - DB疎通を含むヘルスチェック
//	GET /metrics  - Prometheusメトリクス
func NewRouter(pinger Pinger, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(NewRecoveryMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := pinger.PingContext(ctx); err != nil {
			logger.Error("ヘルスチェックに失敗しました",
				slog.String("error", err.Error()),
			)
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	return r
}

// NewRecoveryMiddleware はpanic発生時にプロセスクラッシュを防ぎ、
// 500レスポンスを返すミドルウェアを生成する。
func NewRecoveryMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
