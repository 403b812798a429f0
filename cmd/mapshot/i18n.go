package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		"mapshot version %s": "mapshot バージョン %s",

		// Summary content
		"Capture Summary":    "キャプチャサマリー",
		"Generated":          "生成日時",
		"Capture":            "キャプチャ",
		"Item":               "項目",
		"Value":              "値",
		"Capture ID":         "キャプチャID",
		"Format":             "形式",
		"Started":            "開始日時",
		"Duration":           "所要時間",
		"Error":              "エラー",
		"Viewports":          "ビューポート",
		"No viewports":       "ビューポートがありません",
		"Viewport":           "ビューポート",
		"Status":             "状態",
		"Captured":           "キャプチャ済み",
		"Skipped":            "スキップ",
		"Artifacts":          "出力ファイル",
		"No artifacts":       "出力ファイルがありません",
		"File":               "ファイル",
		"Size":               "サイズ",
		"Dimensions":         "寸法",
		"Total":              "合計",
		"pages":              "ページ",
		"Settings":           "設定",
		"Prefix":             "接頭辞",
		"JPEG Quality":       "JPEG品質",
		"Page":               "ページ",
		"margin":             "余白",
		"Download Directory": "保存先ディレクトリ",
		"Generated by":       "生成:",
	})
}
