package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/timelime/internal/metrics"
	"github.com/hitoshi/timelime/internal/middleware"
)

// HealthPinger はストレージバックエンドの疎通確認を行うインターフェース。
// PostgresバックエンドではDB接続、ファイルバックエンドではデータディレクトリを確認する。
type HealthPinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer

	// イベント
	EventService EventServiceInterface

	// エクスポート/インポート
	TransferService TransferServiceInterface

	// ヘルスチェック
	HealthPinger HealthPinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SecurityHeadersMiddleware → RecoveryMiddleware →
//	LoggingMiddleware → MetricsMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Collector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	}

	eventHandler := NewEventHandler(deps.EventService, deps.Collector)
	calendarHandler := NewCalendarHandler()
	transferHandler := NewTransferHandler(deps.TransferService, deps.Collector)

	// --- レート制限の外のルート ---

	r.Get("/health", healthHandlerFunc(deps.HealthPinger))

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- レート制限が適用されるルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// イベント管理
		r.Route("/api/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)
			r.Post("/", eventHandler.CreateEvent)
			r.Delete("/", eventHandler.DeleteAllEvents)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", eventHandler.GetEvent)
				r.Put("/", eventHandler.UpdateEvent)
				r.Delete("/", eventHandler.DeleteEvent)

				// チェックインのトグルと集計
				r.Post("/checkins/toggle", eventHandler.ToggleCheckIn)
				r.Get("/stats", eventHandler.GetStats)
				r.Get("/periods", eventHandler.GetPeriods)
			})
		})

		// カレンダーグリッド
		r.Route("/api/calendar", func(r chi.Router) {
			r.Get("/month", calendarHandler.GetMonthGrid)
			r.Get("/week", calendarHandler.GetWeekGrid)
			r.Get("/dimensions", calendarHandler.GetDimensions)
		})

		// エクスポート/インポート
		// POST /api/import - インポート（インポート専用レート制限を追加）
		r.Get("/api/export", transferHandler.ExportJSON)
		r.With(deps.RateLimiter.ImportMiddleware()).Post("/api/import", transferHandler.ImportJSON)

		// iCalendarフィード（カレンダーアプリからの購読用）
		r.Get("/calendar.ics", transferHandler.ExportICS)
	})

	return r
}

// healthHandlerFunc はヘルスチェックエンドポイントのハンドラーを返す。
// ストレージバックエンドに疎通できない場合は503を返す。
func healthHandlerFunc(pinger HealthPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			if err := pinger.Ping(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
