package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Capture level messages (info)
		"Capturing %d viewport(s) as %s": "%d 個のビューポートを %s としてキャプチャ中",
		"Capture %s completed in %d ms":  "キャプチャ %s が %d ms で完了しました",
		"Saved %s (%d bytes)":            "%s を保存しました (%d バイト)",
		"Discarded %s":                   "%s を破棄しました",
		"Report written to %s":           "レポートを %s に書き込みました",
		"Interrupted, shutting down...":  "中断されました。シャットダウン中...",

		// Resolve stage
		"Waiting for viewport %s to settle": "ビューポート %s の描画完了を待機中",
		"Settling for %d ms":                "%d ms 待機中",
		"Viewport %s skipped: %s":           "ビューポート %s をスキップしました: %s",
		"Resolved %d of %d viewport(s)":     "%d / %d 個のビューポートを取得しました",

		// Raster stage
		"Encoding surface %d (%dx%d) as %s": "サーフェス %d (%dx%d) を %s としてエンコード中",

		// Document stage
		"Assembling document with %d page(s)":    "%d ページのドキュメントを作成中",
		"Placing page %d at %.1fx%.1f mm":        "ページ %d を %.1fx%.1f mm で配置中",
		"Document assembled: %d pages, %d bytes": "ドキュメント作成完了: %d ページ, %d バイト",

		// Browser viewports
		"Launching browser":                  "ブラウザを起動中",
		"Launching browser in headless mode": "ヘッドレスモードでブラウザを起動中",
		"Launching browser in visible mode":  "表示モードでブラウザを起動中",
		"Opening viewport %s at %s":          "ビューポート %s を %s で開いています",
		"Browser closed":                     "ブラウザを閉じました",

		// User-facing notifications
		"Nothing to capture":                       "キャプチャ対象がありません",
		"Capture failed":                           "キャプチャに失敗しました",
		"Capture saved: %s":                        "キャプチャを保存しました: %s",
		"Some viewports could not be captured: %s": "一部のビューポートをキャプチャできませんでした: %s",

		// Warnings
		"Capture already in progress, request rejected": "キャプチャ実行中のため、リクエストを拒否しました",
		"Failed to discard %s: %s":                      "%s の破棄に失敗しました: %s",
		"Viewport %s did not settle: %s":                "ビューポート %s の描画が完了しませんでした: %s",

		// Errors
		"Capture %s failed: %s":        "キャプチャ %s が失敗しました: %s",
		"Failed to launch browser: %s": "ブラウザの起動に失敗しました: %s",
		"Failed to write output: %s":   "出力の書き込みに失敗しました: %s",
	})
}
