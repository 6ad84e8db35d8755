package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hitoshi/timelime/internal/event"
	"github.com/hitoshi/timelime/internal/ics"
	"github.com/hitoshi/timelime/internal/metrics"
	"github.com/hitoshi/timelime/internal/model"
)

// maxImportBodySize はインポートリクエストボディの上限（10MiB）。
const maxImportBodySize = 10 << 20

// TransferServiceInterface はエクスポート・インポートハンドラーが必要とする
// サービスインターフェース。
type TransferServiceInterface interface {
	// List はICS生成のために全イベントを返す。
	List(ctx context.Context) ([]model.Event, error)
	// Export は全イベントをJSONとして書き出す。
	Export(ctx context.Context) ([]byte, error)
	// Import はエクスポートされたJSONを取り込む。
	Import(ctx context.Context, data []byte) (*event.ImportResult, error)
}

// TransferHandler はデータのエクスポート・インポートのHTTPハンドラー。
type TransferHandler struct {
	service   TransferServiceInterface
	collector metrics.MetricsCollector
}

// NewTransferHandler はTransferHandlerを生成する。
// collectorはnil可（記録をスキップする）。
func NewTransferHandler(service TransferServiceInterface, collector metrics.MetricsCollector) *TransferHandler {
	return &TransferHandler{
		service:   service,
		collector: collector,
	}
}

// recordImport はコレクタが設定されている場合のみインポート結果を記録する。
func (h *TransferHandler) recordImport(outcome string) {
	if h.collector != nil {
		h.collector.RecordImport(outcome)
	}
}

// ExportJSON は全イベントをJSONファイルとしてダウンロードさせる。
// GET /api/export
func (h *TransferHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Export(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// バックアップワーカーと同じ命名規則を使い、手動エクスポートと
	// 自動バックアップのファイルを相互に取り込めるようにする
	filename := fmt.Sprintf("timelime-backup-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImportJSON はエクスポートされたJSONを取り込む。
// POST /api/import
func (h *TransferHandler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBodySize))
	if err != nil {
		writeInvalidRequestError(w)
		return
	}

	result, err := h.service.Import(r.Context(), data)
	if err != nil {
		h.recordImport("rejected")
		handleServiceError(w, err)
		return
	}

	h.recordImport("accepted")
	writeJSON(w, http.StatusOK, result)
}

// ExportICS は全イベントをiCalendarとして配信する。
// GET /calendar.ics
func (h *TransferHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="timelime.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write(ics.Export(events))
}
