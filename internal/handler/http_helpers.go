package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// 面向用户的固定文案。后端错误详情只记录在服务端日志里, 从不回显。
const (
	msgAuthRequired        = "認証が必要です"
	msgPostCreateFailed    = "記事の作成に失敗しました"
	msgPostUpdateFailed    = "記事の更新に失敗しました"
	msgPostDeleteFailed    = "記事の削除に失敗しました"
	msgPostNotFound        = "記事が見つかりません"
	msgPostFetchFailed     = "記事の取得に失敗しました"
	msgInvalidStatus       = "不正なステータスです"
	msgProfileFetchFailed  = "プロファイルの取得に失敗しました"
	msgProfileUpdateFailed = "プロファイルの更新に失敗しました"
	msgVersionFetchFailed  = "バージョン履歴の取得に失敗しました"
	msgLoginFailed         = "メールアドレスまたはパスワードが正しくありません"
	msgPasswordTooShort    = "パスワードは6文字以上で入力してください"
	msgEmailTaken          = "このメールアドレスは既に登録されています"
	msgSessionSaveFailed   = "セッションの保存に失敗しました"
	msgPreviewFailed       = "プレビューの生成に失敗しました"
	msgQiitaSyncFailed     = "Qiitaへの同期に失敗しました"
	msgQiitaTokenMissing   = "Qiitaアクセストークンが設定されていません"
	msgQiitaDraftPost      = "下書きはQiitaに同期できません"
	msgUploadMissing       = "アップロードする画像が見つかりません"
	msgUploadNotImage      = "画像ファイルのみアップロードできます"
	msgUploadFailed        = "画像のアップロードに失敗しました"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
