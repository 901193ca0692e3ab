package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestJWTService(t *testing.T, expiration time.Duration) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "coop-backoffice",
		Expiration: expiration,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t, 15*time.Minute)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "Maria Santos", []string{RoleCashier})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "Maria Santos", claims.Name)
	assert.Equal(t, []string{RoleCashier}, claims.Roles)
	assert.Equal(t, "coop-backoffice", claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestValidateToken_Rejections(t *testing.T) {
	t.Run("expired", func(t *testing.T) {
		svc := newTestJWTService(t, -time.Hour)
		token, err := svc.GenerateToken(uuid.New(), "x", []string{RoleCashier})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "another", Issuer: "coop-backoffice", Expiration: time.Minute})
		require.NoError(t, err)
		token, err := other.GenerateToken(uuid.New(), "x", nil)
		require.NoError(t, err)

		_, err = newTestJWTService(t, time.Minute).ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "elsewhere", Expiration: time.Minute})
		require.NoError(t, err)
		token, err := other.GenerateToken(uuid.New(), "x", nil)
		require.NoError(t, err)

		_, err = newTestJWTService(t, time.Minute).ValidateToken(token)
		assert.ErrorContains(t, err, "invalid issuer")
	})

	t.Run("missing user id", func(t *testing.T) {
		svc := newTestJWTService(t, time.Minute)
		token, err := svc.GenerateToken(uuid.Nil, "x", nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorContains(t, err, "no user id")
	})
}

func TestRSAKeyPair(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	issuer, err := NewJWTService(JWTConfig{PrivateKeyPEM: string(privPEM), Expiration: time.Minute})
	require.NoError(t, err)
	validator, err := NewJWTService(JWTConfig{PublicKeyPEM: string(pubPEM)})
	require.NoError(t, err)

	token, err := issuer.GenerateToken(uuid.New(), "Officer", []string{RoleLoanOfficer})
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(RoleLoanOfficer))

	_, err = validator.GenerateToken(uuid.New(), "x", nil)
	assert.ErrorContains(t, err, "validation-only")
}

func TestNewJWTService_RequiresKeyMaterial(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	assert.Error(t, err)
}

func TestHasRole(t *testing.T) {
	claims := Claims{Roles: []string{RoleManager, RoleAuditor}}

	assert.True(t, claims.HasRole(RoleManager))
	assert.False(t, claims.HasRole(RoleCashier))
	assert.True(t, claims.HasAnyRole(RoleCashier, RoleAuditor))
	assert.False(t, claims.HasAnyRole(RoleCashier, RoleLoanOfficer))
}

func TestRequireAnyRole(t *testing.T) {
	_, err := RequireAnyRole(context.Background(), RoleCashier)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	cashier := ContextWithClaims(context.Background(), &Claims{UserID: uuid.New(), Roles: []string{RoleCashier}})
	claims, err := RequireAnyRole(cashier, RoleCashier, RoleLoanOfficer)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(RoleCashier))

	_, err = RequireAnyRole(cashier, RoleManager)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	admin := ContextWithClaims(context.Background(), &Claims{UserID: uuid.New(), Roles: []string{RoleAdmin}})
	_, err = RequireAnyRole(admin, RoleManager)
	assert.NoError(t, err)
}

func TestUnaryAuthInterceptor(t *testing.T) {
	svc := newTestJWTService(t, time.Minute)
	interceptor := UnaryAuthInterceptor(svc, []string{"/grpc.health.v1.Health/Check"})

	var seen *Claims
	handler := func(ctx context.Context, _ interface{}) (interface{}, error) {
		seen, _ = ClaimsFromContext(ctx)
		return "ok", nil
	}

	t.Run("skipped method", func(t *testing.T) {
		_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
		assert.NoError(t, err)
	})

	t.Run("missing header", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.MD{})
		_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"}, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("valid bearer token", func(t *testing.T) {
		userID := uuid.New()
		token, err := svc.GenerateToken(userID, "Cashier", []string{RoleCashier})
		require.NoError(t, err)

		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
		_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"}, handler)
		require.NoError(t, err)
		require.NotNil(t, seen)
		assert.Equal(t, userID, seen.UserID)
	})
}
