package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// ContextWithClaims returns a new context with the given Claims attached.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts Claims from the context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// MethodRoles maps full gRPC method names to the roles allowed to call them.
// Methods absent from the map only need a valid token. RoleAdmin is always
// allowed.
type MethodRoles map[string][]string

// UnaryInterceptor authenticates every call except skipMethods and enforces
// roles.
func UnaryInterceptor(validator *Validator, roles MethodRoles, skipMethods []string) grpc.UnaryServerInterceptor {
	skipSet := make(map[string]struct{}, len(skipMethods))
	for _, m := range skipMethods {
		skipSet[m] = struct{}{}
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if _, skip := skipSet[info.FullMethod]; skip {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		authHeader := md.Get("authorization")
		if len(authHeader) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}
		tokenString := strings.TrimPrefix(authHeader[0], "Bearer ")

		claims, err := validator.ValidateToken(tokenString)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
		}

		if allowed, restricted := roles[info.FullMethod]; restricted && !claims.HasRole(RoleAdmin) {
			permitted := false
			for _, role := range allowed {
				if claims.HasRole(role) {
					permitted = true
					break
				}
			}
			if !permitted {
				return nil, status.Errorf(codes.PermissionDenied, "required role(s): %v", allowed)
			}
		}

		return handler(ContextWithClaims(ctx, claims), req)
	}
}
