package security

import (
	"errors"
	"time"

	"algo_answer_hub/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken issues a signed session token. The jti doubles as the session
// record key in Redis so individual sessions can be revoked on sign-out.
func GenerateToken(userID string, isAdmin bool) (tokenID, tokenString string, err error) {
	tokenID = uuid.NewString()
	claims := jwt.MapClaims{
		"jti":      tokenID,
		"user_id":  userID,
		"is_admin": isAdmin,
		"exp":      time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":      time.Now().Unix(),
	}
	_, tokenString, err = TokenAuth.Encode(claims)
	return tokenID, tokenString, err
}

// Helper functions to extract claims, can be used in middleware or services
func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetTokenIDFromClaims(claims map[string]interface{}) (string, error) {
	jti, ok := claims["jti"].(string)
	if !ok {
		return "", errors.New("jti claim is missing or not a string")
	}
	return jti, nil
}

func GetIsAdminFromClaims(claims map[string]interface{}) bool {
	isAdmin, ok := claims["is_admin"].(bool)
	return ok && isAdmin
}
