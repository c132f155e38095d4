package middleware

import (
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/sprintboard/pkg/httpcontext"
)

// OwnerHeader carries the authenticated owner id to the handlers.
const OwnerHeader = httpcontext.HeaderOwnerID

// JWTAuth validates an HMAC bearer token and forwards its owner_id claim.
// Tokens without a usable owner_id are rejected.
func JWTAuth(secret string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			// never trust a client-supplied owner
			ctx.Request.Header.Del(OwnerHeader)

			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			claims, _ := token.Claims.(jwt.MapClaims)
			ownerID, ok := ownerClaim(claims)
			if !ok {
				logger.Warn("jwt token without owner_id")
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			ctx.Request.Header.Set(OwnerHeader, strconv.FormatInt(ownerID, 10))

			next(ctx)
		}
	}
}

// ownerClaim accepts the owner id as a JSON number or a decimal string.
func ownerClaim(claims jwt.MapClaims) (int64, bool) {
	switch v := claims["owner_id"].(type) {
	case float64:
		if v > 0 && v == float64(int64(v)) {
			return int64(v), true
		}
	case string:
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
