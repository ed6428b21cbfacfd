package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// VerifyPassword は平文パスワードとbcryptハッシュを照合する。
// ハッシュ形式不正やコスト不正などの内部エラーも不一致として扱い、
// 呼び出し側からパスワード誤りと区別できないようにする。
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// HashPassword は平文パスワードを指定コストでbcryptハッシュ化する。
// 72バイトを超えるパスワードはbcrypt.ErrPasswordTooLongとなる。
func HashPassword(plain string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
