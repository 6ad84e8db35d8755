// Package backup はイベントデータの定期バックアップジョブを提供する。
// エクスポートJSONを日付付きファイルとしてバックアップディレクトリへ書き出し、
// 保持世代数を超えた古いバックアップを削除する。
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hitoshi/timelime/internal/metrics"
)

// backupFilePattern はバックアップファイル名の形式。日付部分でソート可能にする。
const backupFilePattern = "timelime-backup-%s.json"

// Exporter は全イベントのJSONエクスポートを提供するインターフェース。
type Exporter interface {
	Export(ctx context.Context) ([]byte, error)
}

// Job はイベントデータの定期バックアップジョブ。
// 日次実行のバッチジョブとして設計されており、同日の再実行は上書きとなる（冪等）。
type Job struct {
	exporter  Exporter
	dir       string
	keep      int
	collector metrics.MetricsCollector
	logger    *slog.Logger
}

// NewJob は新しいバックアップJobを生成する。
// keepが0以下の場合はデフォルト値14を使用する。collectorはnil可。
func NewJob(exporter Exporter, dir string, keep int, collector metrics.MetricsCollector, logger *slog.Logger) *Job {
	if keep <= 0 {
		keep = 14
	}
	return &Job{
		exporter:  exporter,
		dir:       dir,
		keep:      keep,
		collector: collector,
		logger:    logger,
	}
}

// Start は指定間隔のティッカーでバックアップジョブを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("バックアップジョブを開始しました",
		slog.String("dir", j.dir),
		slog.Duration("interval", interval),
		slog.Int("keep", j.keep),
	)

	// 起動直後に1回実行
	if err := j.Run(ctx); err != nil {
		j.logger.Error("バックアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("バックアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("バックアップの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Run はバックアップを1回実行する。
// エクスポートJSONを当日日付のファイルへ書き出し、古い世代を削除する。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	data, err := j.exporter.Export(ctx)
	if err != nil {
		j.recordOutcome("failure")
		return fmt.Errorf("バックアップ用エクスポートに失敗: %w", err)
	}

	filename := fmt.Sprintf(backupFilePattern, start.Format("2006-01-02"))
	if err := j.writeBackupFile(filename, data); err != nil {
		j.recordOutcome("failure")
		return err
	}

	pruned, err := j.prune()
	if err != nil {
		j.recordOutcome("failure")
		return err
	}

	j.recordOutcome("success")
	j.logger.Info("バックアップが完了しました",
		slog.String("file", filename),
		slog.Int("bytes", len(data)),
		slog.Int("pruned_count", pruned),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// writeBackupFile はバックアップファイルをアトミックに書き出す。
// 一時ファイルへ書いてからrenameすることで中途半端なファイルを残さない。
func (j *Job) writeBackupFile(filename string, data []byte) error {
	if err := os.MkdirAll(j.dir, 0o700); err != nil {
		return fmt.Errorf("バックアップディレクトリの作成に失敗: %w", err)
	}

	tmp, err := os.CreateTemp(j.dir, ".backup-*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("バックアップの書き込みに失敗: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("バックアップの同期に失敗: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("一時ファイルのクローズに失敗: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(j.dir, filename)); err != nil {
		return fmt.Errorf("バックアップファイルのrenameに失敗: %w", err)
	}

	return nil
}

// prune は保持世代数を超えた古いバックアップファイルを削除し、削除件数を返す。
// ファイル名に日付が含まれるため、名前の降順が新しい順になる。
func (j *Job) prune() (int, error) {
	names, err := j.listBackupFiles()
	if err != nil {
		return 0, err
	}
	if len(names) <= j.keep {
		return 0, nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	pruned := 0
	for _, name := range names[j.keep:] {
		if err := os.Remove(filepath.Join(j.dir, name)); err != nil {
			return pruned, fmt.Errorf("古いバックアップの削除に失敗: %w", err)
		}
		pruned++
	}

	return pruned, nil
}

// listBackupFiles はバックアップディレクトリ内のバックアップファイル名を返す。
// 一時ファイルや無関係なファイルは対象外。
func (j *Job) listBackupFiles() ([]string, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return nil, fmt.Errorf("バックアップディレクトリの読み込みに失敗: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "timelime-backup-") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	return names, nil
}

// recordOutcome はコレクタが設定されている場合のみバックアップ結果を記録する。
func (j *Job) recordOutcome(outcome string) {
	if j.collector != nil {
		j.collector.RecordBackup(outcome)
	}
}
