package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bibbank/fraudscore/internal/infrastructure/auth"
)

const testSecret = "server-test-secret"

func startTestServer(t *testing.T, validator *auth.Validator) *grpclib.ClientConn {
	t.Helper()

	srv, err := NewServer(buildTestHandler(t), ServerConfig{}, testLogger(), validator)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func bearer(t *testing.T, roles ...string) context.Context {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "batch-runner",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Roles: roles,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestServer_ScoreOverJSONCodec(t *testing.T) {
	conn := startTestServer(t, nil)

	var resp ScoreTransactionsResponse
	err := conn.Invoke(context.Background(), MethodScoreTransactions, nightBatch(), &resp,
		grpclib.CallContentSubtype(CodecName))
	require.NoError(t, err)
	require.Len(t, resp.Scored, 1)
	assert.Equal(t, "LOW", resp.Scored[0].RiskBand)
	require.Len(t, resp.Rejected, 1)

	var list ListScoredTransactionsResponse
	err = conn.Invoke(context.Background(), MethodListScoredTransactions,
		&ListScoredTransactionsRequest{AccountKey: "ACC-1"}, &list,
		grpclib.CallContentSubtype(CodecName))
	require.NoError(t, err)
	assert.Equal(t, int32(1), list.Count)
}

func TestServer_HealthCheck(t *testing.T) {
	validator, err := auth.NewValidator(auth.ValidatorConfig{Secret: testSecret})
	require.NoError(t, err)
	conn := startTestServer(t, validator)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: serviceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestServer_Authentication(t *testing.T) {
	validator, err := auth.NewValidator(auth.ValidatorConfig{Secret: testSecret})
	require.NoError(t, err)
	conn := startTestServer(t, validator)

	tests := []struct {
		name   string
		ctx    context.Context
		method string
		req    interface{}
		want   codes.Code
	}{
		{"no token", context.Background(), MethodScoreTransactions, nightBatch(), codes.Unauthenticated},
		{"analyst cannot score", bearer(t, auth.RoleAnalyst), MethodScoreTransactions, nightBatch(), codes.PermissionDenied},
		{"scorer can score", bearer(t, auth.RoleScorer), MethodScoreTransactions, nightBatch(), codes.OK},
		{"analyst can list", bearer(t, auth.RoleAnalyst), MethodListScoredTransactions, &ListScoredTransactionsRequest{AccountKey: "ACC-1"}, codes.OK},
		{"no role cannot list", bearer(t), MethodListScoredTransactions, &ListScoredTransactionsRequest{AccountKey: "ACC-1"}, codes.PermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out map[string]interface{}
			err := conn.Invoke(tt.ctx, tt.method, tt.req, &out, grpclib.CallContentSubtype(CodecName))
			requireCode(t, err, tt.want)
		})
	}
}

func requireCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if want == codes.OK {
		require.NoError(t, err)
		return
	}
	requireGRPCCode(t, err, want)
}

func TestNewServer_InvalidTLS(t *testing.T) {
	_, err := NewServer(buildTestHandler(t), ServerConfig{TLSCertFile: "missing.pem", TLSKeyFile: "missing-key.pem"}, testLogger(), nil)
	assert.Error(t, err)
}
