package auth

import "golang.org/x/crypto/bcrypt"

// HashServiceKey produces the SERVICE_KEY_HASH value for a shared service key.
func HashServiceKey(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(b), err
}

func CheckServiceKey(hash []byte, key string) bool {
	if key == "" || len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(key)) == nil
}
