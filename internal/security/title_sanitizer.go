// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TitleSanitizerService はユーザー入力のイベントタイトルをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリのStrictPolicy（全タグ除去）を使用し、
// タイトルを常にプレーンテキストとして扱う。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TitleSanitizerService はタイトル文字列のサニタイズ機能のインターフェースを定義する。
// イベントの作成・更新・インポート時に使用される。
type TitleSanitizerService interface {
	// Sanitize はタイトルからHTMLタグを全て除去し、前後の空白を取り除いて返す。
	// タイトルは表示時に常にエスケープされるプレーンテキストのため、
	// bluemondayがエンコードしたHTMLエンティティは元の文字に戻す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawTitle string) string
}

// titleSanitizer はTitleSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type titleSanitizer struct {
	policy *bluemonday.Policy
}

// NewTitleSanitizer はTitleSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、scriptタグやon*イベント属性を
// 含むあらゆるHTMLが除去される。
func NewTitleSanitizer() *titleSanitizer {
	return &titleSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はタイトルからHTMLタグを除去してプレーンテキストを返す。
func (s *titleSanitizer) Sanitize(rawTitle string) string {
	stripped := s.policy.Sanitize(rawTitle)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
