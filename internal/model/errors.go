// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, event, import, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEventNotFound    = "EVENT_NOT_FOUND"
	ErrCodeInvalidTitle     = "INVALID_TITLE"
	ErrCodeInvalidColor     = "INVALID_COLOR"
	ErrCodeInvalidFrequency = "INVALID_FREQUENCY"
	ErrCodeInvalidDateRange = "INVALID_DATE_RANGE"
	ErrCodeInvalidDate      = "INVALID_DATE"
	ErrCodeInvalidImport    = "INVALID_IMPORT"
)

// NewEventNotFoundError はイベント未検出エラーを生成する。
func NewEventNotFoundError(eventID string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("指定されたイベントが見つかりません: %s", eventID),
		Category: "event",
		Action:   "イベントIDを確認してください。",
	}
}

// NewInvalidTitleError は無効なタイトルエラーを生成する。
func NewInvalidTitleError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTitle,
		Message:  "タイトルが空です。",
		Category: "validation",
		Action:   "1文字以上のタイトルを入力してください。",
	}
}

// NewInvalidColorError は無効なカラーコードエラーを生成する。
func NewInvalidColorError(color string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidColor,
		Message:  fmt.Sprintf("無効なカラーコードです: %s", color),
		Category: "validation",
		Action:   "#RRGGBB形式の16進カラーコードを指定してください。",
	}
}

// NewInvalidFrequencyError は無効な頻度エラーを生成する。
func NewInvalidFrequencyError(frequency string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFrequency,
		Message:  fmt.Sprintf("無効なチェックイン頻度です: %s", frequency),
		Category: "validation",
		Action:   "Daily、Weekly、Monthly、Yearly、Customのいずれかを指定してください。",
	}
}

// NewInvalidDateRangeError は終了日が開始日より前の場合のエラーを生成する。
func NewInvalidDateRangeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateRange,
		Message:  "終了日が開始日より前になっています。",
		Category: "validation",
		Action:   "終了日は開始日以降の日付を指定してください。",
	}
}

// NewInvalidDateError は解析できない日付文字列のエラーを生成する。
func NewInvalidDateError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("日付の解析に失敗しました: %s", value),
		Category: "validation",
		Action:   "YYYY-MM-DD形式で日付を指定してください。",
	}
}

// NewInvalidImportError はインポートファイルの形式不正エラーを生成する。
// インポートは全体が拒否され、部分的な取り込みは行われない。
func NewInvalidImportError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImport,
		Message:  fmt.Sprintf("インポートファイルの形式が不正です: %s", reason),
		Category: "import",
		Action:   "エクスポート機能で出力したJSONファイルを指定してください。",
	}
}
