// Package bistro はレストラン注文アプリのHTTP APIサーバーを提供する。
//
// ユーザー・メニュー・レビュー・カート・決済の各リソースについて、
// 1つのルートを1回のストア操作（または1回の決済プロバイダ呼び出し）に対応させる。
// リクエストは認証ゲート（bearerトークン検証）と認可ゲート（ロールの権限確認）を
// 必要に応じて通過してからハンドラに到達する。
package bistro
