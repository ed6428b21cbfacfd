package model

import "time"

// Book は蔵書レコードを表す。
// 所有者の概念はなく、認証済みセッションであれば誰でも編集・削除できる。
type Book struct {
	ID        string
	Name      string
	Author    string
	Language  string
	PageCount int
	AddedAt   time.Time
}

// BookInput は書籍の作成・編集フォームから受け取る入力値。
type BookInput struct {
	Name      string
	Author    string
	Language  string
	PageCount int
}
