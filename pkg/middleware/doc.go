// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// bearerトークンの署名と検証（TokenCodec）、認証ゲート、リクエストログ、
// パニックリカバリ、CORS設定を含む。
package middleware
