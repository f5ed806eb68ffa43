package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwks"
	"github.com/clerk/clerk-sdk-go/v2/jwt"

	"sprintbackend/appctx"
	"sprintbackend/core"
	"sprintbackend/models"
	"sprintbackend/services"
)

// sessionCookieName is the cookie Clerk sets for browser sessions. The OAuth
// callback arrives as a top-level browser redirect with no Authorization header,
// so it authenticates through this cookie instead.
const sessionCookieName = "__session"

// ClerkAuthMiddleware handles JWT authentication using Clerk SDK
type ClerkAuthMiddleware struct {
	usersService services.UsersService
	clerkJWKS    *jwks.Client
}

// NewClerkAuthMiddleware creates a new authentication middleware instance
func NewClerkAuthMiddleware(usersService services.UsersService, clerkSecretKey string) *ClerkAuthMiddleware {
	config := &clerk.ClientConfig{
		BackendConfig: clerk.BackendConfig{
			Key: clerk.String(clerkSecretKey),
		},
	}
	jwksClient := jwks.NewClient(config)

	return &ClerkAuthMiddleware{
		usersService: usersService,
		clerkJWKS:    jwksClient,
	}
}

// WithAuth wraps an HTTP handler with JWT authentication
func (m *ClerkAuthMiddleware) WithAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Printf("🔐 Authentication middleware processing request from %s", r.RemoteAddr)

		// Check if we're in testing mode
		if os.Getenv("TESTING_MODE") == "true" {
			log.Printf("🧪 Testing mode enabled - skipping Clerk validation")
			testUser := &models.User{
				ID:             core.NewID("u"),
				AuthProvider:   "test",
				AuthProviderID: "test-user-123",
				CreatedAt:      time.Now(),
				UpdatedAt:      time.Now(),
			}

			log.Printf("✅ Test user created: %s", testUser.ID)
			ctx := appctx.SetUser(r.Context(), testUser)
			r = r.WithContext(ctx)

			next(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Printf("❌ Missing Authorization header")
			m.writeErrorResponse(w, "missing authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Printf("❌ Invalid Authorization header format")
			m.writeErrorResponse(w, "invalid authorization header format", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			log.Printf("❌ Empty bearer token")
			m.writeErrorResponse(w, "empty bearer token", http.StatusUnauthorized)
			return
		}

		user, err := m.verifyToken(r, token)
		if err != nil {
			log.Printf("❌ Token verification failed: %v", err)
			m.writeErrorResponse(w, "invalid token", http.StatusUnauthorized)
			return
		}

		log.Printf("✅ User authenticated successfully: %s", user.ID)
		ctx := appctx.SetUser(r.Context(), user)
		r = r.WithContext(ctx)

		next(w, r)
	}
}

// VerifySessionFromRequest authenticates a browser request via the Clerk session
// cookie (falling back to the Authorization header). Unlike WithAuth it never
// writes a response - callers decide how to handle an unauthenticated request.
func (m *ClerkAuthMiddleware) VerifySessionFromRequest(r *http.Request) (*models.User, error) {
	if os.Getenv("TESTING_MODE") == "true" {
		log.Printf("🧪 Testing mode enabled - skipping Clerk session validation")
		return &models.User{
			ID:             core.NewID("u"),
			AuthProvider:   "test",
			AuthProviderID: "test-user-123",
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}, nil
	}

	token := ""
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		token = cookie.Value
	}
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token == "" {
		return nil, fmt.Errorf("no session token present")
	}

	return m.verifyToken(r, token)
}

// verifyToken validates the Clerk JWT and resolves it to an application user.
func (m *ClerkAuthMiddleware) verifyToken(r *http.Request, token string) (*models.User, error) {
	claims, err := jwt.Verify(r.Context(), &jwt.VerifyParams{
		Token:      token,
		JWKSClient: m.clerkJWKS,
	})
	if err != nil {
		return nil, fmt.Errorf("jwt verification failed: %w", err)
	}

	log.Printf("✅ JWT token verified successfully for user: %s", claims.Subject)

	email := emailFromClaims(claims)
	user, err := m.usersService.GetOrCreateUser(r.Context(), "clerk", claims.Subject, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}

	return user, nil
}

// emailFromClaims pulls the email out of the session token's custom claims, if
// the Clerk instance is configured to include one.
func emailFromClaims(claims *clerk.SessionClaims) string {
	custom, ok := claims.Custom.(map[string]any)
	if !ok {
		return ""
	}
	email, _ := custom["email"].(string)
	return email
}

// writeErrorResponse writes a standardized error response
func (m *ClerkAuthMiddleware) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("❌ Failed to encode error response: %v", err)
	}
}
