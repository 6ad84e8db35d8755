package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hitoshi/timelime/internal/model"
)

// FileEventRepo はJSONファイルを使用したイベントリポジトリ。
// macOSアプリのevents.jsonと同じスキーマ（イベント配列）で永続化する。
//
// 全操作はミューテックスで直列化され、書き込みは毎回コレクション全体を
// 一時ファイルへ書いてからリネームするアトミック置換で行う。
// ファイルが存在しない、または壊れている場合は空のコレクションとして
// 扱い、呼び出し元へエラーを伝播しない（ログには記録する）。
type FileEventRepo struct {
	path string

	mu sync.Mutex
}

// NewFileEventRepo はFileEventRepoを生成する。
func NewFileEventRepo(path string) *FileEventRepo {
	return &FileEventRepo{path: path}
}

// List は全イベントをCreatedAt昇順で返す。
func (r *FileEventRepo) List(ctx context.Context) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.load()
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *FileEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.load() {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

// Create はイベントを追加して保存する。
func (r *FileEventRepo) Create(ctx context.Context, event model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.load()
	events = append(events, event)
	return r.save(events)
}

// Update はIDが一致するイベントを丸ごと置き換えて保存する。
// 該当IDが存在しない場合は何もしない。
func (r *FileEventRepo) Update(ctx context.Context, event model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.load()
	for i, e := range events {
		if e.ID == event.ID {
			events[i] = event
			return r.save(events)
		}
	}
	return nil
}

// DeleteByID は指定IDのイベントを削除して保存する。
func (r *FileEventRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.load()
	kept := events[:0]
	for _, e := range events {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return r.save(kept)
}

// DeleteAll は全イベントを削除する。
func (r *FileEventRepo) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.save([]model.Event{})
}

// Ping はデータファイルの親ディレクトリへの到達性を確認する。
func (r *FileEventRepo) Ping(ctx context.Context) error {
	dir := filepath.Dir(r.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("データディレクトリにアクセスできません: %w", err)
	}
	return nil
}

// load はデータファイルを読み込む。ファイルが存在しない、または
// JSONとして解析できない場合は空のコレクションを返す。
func (r *FileEventRepo) load() []model.Event {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to read events file, treating as empty",
				slog.String("path", r.path),
				slog.String("error", err.Error()),
			)
		}
		return []model.Event{}
	}

	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		slog.Warn("events file is malformed, treating as empty",
			slog.String("path", r.path),
			slog.String("error", err.Error()),
		)
		return []model.Event{}
	}

	return events
}

// save はコレクション全体をアトミックに書き込む。
// 同一ディレクトリの一時ファイルへ書き、fsyncしてからリネームする。
func (r *FileEventRepo) save(events []model.Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("イベントのエンコードに失敗しました: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("データディレクトリの作成に失敗しました: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".events-*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("一時ファイルへの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("一時ファイルの同期に失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("一時ファイルのクローズに失敗しました: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("データファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ EventRepository = (*FileEventRepo)(nil)
