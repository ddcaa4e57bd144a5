package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/option"

	"github.com/wanderlist/backend/internal/models"
)

type contextKey string

const UserIDKey contextKey = "userID"

type FirebaseAuthConfig struct {
	ProjectID       string
	CredentialsJSON string
}

// NewFirebaseAuthClient builds a Firebase Auth client for server-side ID
// token verification. Returns nil without error when no credentials are
// configured, which leaves identity checking disabled.
func NewFirebaseAuthClient(ctx context.Context, cfg FirebaseAuthConfig) (*fbauth.Client, error) {
	if cfg.CredentialsJSON == "" {
		return nil, nil
	}

	app, err := firebase.NewApp(
		ctx,
		&firebase.Config{ProjectID: cfg.ProjectID},
		option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)),
	)
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

// Identity optionally enforces that the bearer token's subject matches the
// {userId} path segment. With a Firebase client it verifies Firebase ID
// tokens; with a JWT secret it verifies HMAC tokens carrying a user_id
// claim. With neither configured every request passes through and the path
// segment is trusted as-is.
func Identity(authClient *fbauth.Client, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authClient == nil && jwtSecret == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "authorization header required")
				return
			}

			var uid string
			if authClient != nil {
				token, err := authClient.VerifyIDToken(r.Context(), tokenString)
				if err != nil {
					writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				uid = token.UID
			} else {
				var err error
				uid, err = verifyHMACToken(tokenString, jwtSecret)
				if err != nil {
					writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
			}

			if pathUser := chi.URLParam(r, "userId"); pathUser != "" && pathUser != uid {
				writeAuthError(w, http.StatusForbidden, "token does not match user")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func verifyHMACToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}
	uid, ok := claims["user_id"].(string)
	if !ok || uid == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return uid, nil
}

// GetUserID extracts the verified user ID from context. Empty when identity
// checking is disabled.
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.NewErrorResponse(message))
}
