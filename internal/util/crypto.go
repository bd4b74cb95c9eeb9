package util

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

const tokenBytes = 32

func GenerateToken() (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func CheckTokenHash(token, bcryptHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(bcryptHash), []byte(token))
	return err == nil
}

func MaskIdentity(identity string) string {
	if len(identity) <= 4 {
		return "****"
	}
	return "****" + identity[len(identity)-4:]
}
