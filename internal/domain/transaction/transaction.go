package transaction

import "context"

// Tx は進行中のトランザクションを表す
// 予約確定のような複数テーブル更新を1つの原子的な単位にまとめるための抽象化で、
// ドメイン層・アプリケーション層が sqlx に直接依存しないようにする
type Tx interface {
	Commit() error
	Rollback() error
}

// Manager はトランザクションのライフサイクルを管理する
type Manager interface {
	// Begin は新しいトランザクションを開始する
	Begin(ctx context.Context) (Tx, error)
}
