package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/timelime/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
// イベント本体とチェックインを2テーブルに分け、集約単位で読み書きする。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// List は全イベントをCreatedAt昇順で、各イベントのチェックイン付きで返す。
func (r *PostgresEventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, color, frequency, custom_days,
		        start_date, end_date, created_at, updated_at
		 FROM events
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	index := make(map[string]int)

	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("イベントの読み取りに失敗しました: %w", err)
		}
		index[event.ID] = len(events)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の走査に失敗しました: %w", err)
	}

	if len(events) == 0 {
		return events, nil
	}

	// チェックインを一括で取得してイベントへ振り分ける
	checkRows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, check_date, recorded_at
		 FROM check_ins
		 ORDER BY check_date ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("チェックイン一覧の取得に失敗しました: %w", err)
	}
	defer checkRows.Close()

	for checkRows.Next() {
		var c model.CheckIn
		var eventID string
		if err := checkRows.Scan(&c.ID, &eventID, &c.Date, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("チェックインの読み取りに失敗しました: %w", err)
		}
		if i, ok := index[eventID]; ok {
			events[i].CheckIns = append(events[i].CheckIns, c)
		}
	}
	if err := checkRows.Err(); err != nil {
		return nil, fmt.Errorf("チェックイン一覧の走査に失敗しました: %w", err)
	}

	return events, nil
}

// FindByID は指定IDのイベントをチェックイン付きで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, color, frequency, custom_days,
		        start_date, end_date, created_at, updated_at
		 FROM events WHERE id = $1`,
		id,
	)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}

	checkRows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, check_date, recorded_at
		 FROM check_ins WHERE event_id = $1
		 ORDER BY check_date ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("チェックイン一覧の取得に失敗しました: %w", err)
	}
	defer checkRows.Close()

	for checkRows.Next() {
		var c model.CheckIn
		var eventID string
		if err := checkRows.Scan(&c.ID, &eventID, &c.Date, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("チェックインの読み取りに失敗しました: %w", err)
		}
		event.CheckIns = append(event.CheckIns, c)
	}
	if err := checkRows.Err(); err != nil {
		return nil, fmt.Errorf("チェックイン一覧の走査に失敗しました: %w", err)
	}

	return &event, nil
}

// Create はイベントとチェックインを同一トランザクションで作成する。
func (r *PostgresEventRepo) Create(ctx context.Context, event model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (id, title, color, frequency, custom_days,
		                     start_date, end_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.Title, event.Color, event.CheckInFrequency,
		nullInt(event.CustomDays), event.StartDate, nullTime(event.EndDate),
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}

	if err := insertCheckIns(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Update はイベント本体を更新し、チェックインを全置換する。
// 集約をIDで丸ごと置き換えるため、差分計算は行わない。
func (r *PostgresEventRepo) Update(ctx context.Context, event model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE events SET
		    title = $2, color = $3, frequency = $4, custom_days = $5,
		    start_date = $6, end_date = $7, updated_at = $8
		 WHERE id = $1`,
		event.ID, event.Title, event.Color, event.CheckInFrequency,
		nullInt(event.CustomDays), event.StartDate, nullTime(event.EndDate),
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM check_ins WHERE event_id = $1`, event.ID,
	); err != nil {
		return fmt.Errorf("チェックインの削除に失敗しました: %w", err)
	}

	if err := insertCheckIns(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのイベントを削除する。check_insはCASCADE削除される。
func (r *PostgresEventRepo) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	return nil
}

// DeleteAll は全イベントを削除する。
func (r *PostgresEventRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("全イベントの削除に失敗しました: %w", err)
	}
	return nil
}

// Ping はデータベースへの到達性を確認する。
func (r *PostgresEventRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// scanner はsql.Rowとsql.Rowsの共通Scanインターフェース。
type scanner interface {
	Scan(dest ...any) error
}

// scanEvent はイベント行を読み取る。
func scanEvent(s scanner) (model.Event, error) {
	var event model.Event
	var customDays sql.NullInt64
	var endDate sql.NullTime

	err := s.Scan(
		&event.ID, &event.Title, &event.Color, &event.CheckInFrequency,
		&customDays, &event.StartDate, &endDate,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return event, err
	}

	if customDays.Valid {
		v := int(customDays.Int64)
		event.CustomDays = &v
	}
	if endDate.Valid {
		v := endDate.Time
		event.EndDate = &v
	}

	// JSONでは checkIns は常に配列としてシリアライズされる（nullにしない）
	event.CheckIns = []model.CheckIn{}
	return event, nil
}

// insertCheckIns はイベントのチェックインを一括挿入する。
func insertCheckIns(ctx context.Context, tx *sql.Tx, event model.Event) error {
	for _, c := range event.CheckIns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO check_ins (id, event_id, check_date, recorded_at)
			 VALUES ($1, $2, $3, $4)`,
			c.ID, event.ID, c.Date, c.Timestamp,
		); err != nil {
			return fmt.Errorf("チェックインの作成に失敗しました: %w", err)
		}
	}
	return nil
}

// nullInt は*intをsql.NullInt64に変換する。
func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// nullTime は*time.Timeをsql.NullTimeに変換する。
func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
