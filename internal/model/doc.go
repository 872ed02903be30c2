// Package model はbistroバックエンドのドメインモデルを定義する。
//
// ユーザー・メニュー・レビュー・カート・決済の各エンティティと、
// ロールと権限（Capability）の対応、ストア操作の結果型を含む。
package model
