// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/timelime/internal/model"
)

// EventRepository はイベントコレクションの永続化インターフェース。
//
// 永続化の単位はイベント一覧全体であり、各Eventは自身のCheckInsを
// 丸ごと所有する。UpdateはCheckInsを含むイベント全体をIDで置き換える
// （コアの純粋なミューテータが返した新しい値をそのまま保存する）。
type EventRepository interface {
	// List は全イベントをCreatedAt昇順で返す。
	List(ctx context.Context) ([]model.Event, error)

	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Event, error)

	// Create はイベントを作成する。
	Create(ctx context.Context, event model.Event) error

	// Update はイベント全体（CheckInsを含む）をIDで置き換える。
	Update(ctx context.Context, event model.Event) error

	// DeleteByID は指定IDのイベントを削除する。CheckInsも一緒に削除される。
	DeleteByID(ctx context.Context, id string) error

	// DeleteAll は全イベントを削除する。
	DeleteAll(ctx context.Context) error

	// Ping はストレージへの到達性を確認する。ヘルスチェック用。
	Ping(ctx context.Context) error
}
