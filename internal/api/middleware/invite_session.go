package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cliniqa/intake/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// inviteSessionClaims bind a patient session to exactly one invitation id.
// A used invitation stays continuable only for tokens carrying its id.
type inviteSessionClaims struct {
	jwt.RegisteredClaims
	InvitationID string `json:"inv_id"`
	PatientEmail string `json:"patient_email"`
}

const defaultInviteSessionTTL = 4 * time.Hour

// MintInviteSession issues the patient session token after an invitation has
// been opened successfully.
func MintInviteSession(invitationID, patientEmail string) (string, error) {
	secret := os.Getenv("INVITE_SESSION_SECRET")
	if secret == "" {
		return "", errors.New("INVITE_SESSION_SECRET is not set")
	}

	now := time.Now().UTC()
	claims := inviteSessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   invitationID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(defaultInviteSessionTTL)),
		},
		InvitationID: invitationID,
		PatientEmail: patientEmail,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// InviteSessionOptional parses a session token when one is presented but
// lets anonymous callers through. Used on /interview/open so a caller holding
// a live session can re-open an already-consumed invitation.
func InviteSessionOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := os.Getenv("INVITE_SESSION_SECRET")
		auth := c.GetHeader("Authorization")
		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if secret == "" || !strings.HasPrefix(auth, "Bearer ") || raw == "" {
			c.Next()
			return
		}

		claims := &inviteSessionClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err == nil && tok != nil && tok.Valid && claims.InvitationID != "" {
			c.Set("invitation_id", claims.InvitationID)
			c.Set("session_patient_email", claims.PatientEmail)
		}
		c.Next()
	}
}

// InviteSession authenticates the patient interview surface. On success the
// bound invitation id and patient email are placed on the context.
func InviteSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := os.Getenv("INVITE_SESSION_SECRET")
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{
				Code:    utils.CodeInternal,
				Message: "INVITE_SESSION_SECRET is not set",
			})
			return
		}

		auth := c.GetHeader("Authorization")
		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if !strings.HasPrefix(auth, "Bearer ") || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "missing interview session token",
			})
			return
		}

		claims := &inviteSessionClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || tok == nil || !tok.Valid || claims.InvitationID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "invalid interview session token",
			})
			return
		}

		c.Set("invitation_id", claims.InvitationID)
		c.Set("session_patient_email", claims.PatientEmail)
		c.Next()
	}
}
