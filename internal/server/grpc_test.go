package server_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/jobapply/internal/repository/repotest"
	"github.com/joseph-ayodele/jobapply/internal/server"
)

func dialApply(t *testing.T, f *fixture) *grpc.ClientConn {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, _ := server.NewGRPCHealth(ctx, f.deps.DB, 0, repotest.Logger())
	server.RegisterApplyServiceServer(srv, server.NewApplyServer(f.deps, repotest.Logger()))
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func call(ctx context.Context, conn *grpc.ClientConn, method string, user uuid.UUID, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	if user != uuid.Nil {
		ctx = metadata.AppendToOutgoingContext(ctx, server.MetadataUserID, user.String())
	}
	out := new(structpb.Struct)
	err = conn.Invoke(ctx, "/"+server.ApplyServiceName+"/"+method, in, out)
	return out, err
}

func TestGRPCGenerationFlow(t *testing.T) {
	f := newFixture(t)
	conn := dialApply(t, f)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, app := f.applicant(t, 10)

	out, err := call(ctx, conn, "CreateGenerationTask", u.ID, map[string]any{
		"application_id": app.ID.String(),
		"doc_types":      []any{"A", "B"},
	})
	require.NoError(t, err)
	fields := out.GetFields()
	assert.Equal(t, "queued", fields["status"].GetStringValue())
	assert.EqualValues(t, 2, fields["total_documents"].GetNumberValue())
	assert.EqualValues(t, 3, fields["credits_used"].GetNumberValue())
	assert.EqualValues(t, 7, fields["remaining_credits"].GetNumberValue())
	require.Len(t, f.queue.jobs, 1)

	out, err = call(ctx, conn, "GetGenerationStatus", u.ID, map[string]any{"task_id": fields["task_id"].GetStringValue()})
	require.NoError(t, err)
	assert.Equal(t, "pending", out.GetFields()["status"].GetStringValue())
	assert.NotContains(t, out.GetFields(), "generated_documents")

	_, err = call(ctx, conn, "GetGenerationStatus", u.ID, map[string]any{"task_id": uuid.NewString()})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPCErrorCodes(t *testing.T) {
	f := newFixture(t)
	conn := dialApply(t, f)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, app := f.applicant(t, 1)

	_, err := call(ctx, conn, "CreateGenerationTask", uuid.Nil, map[string]any{"application_id": app.ID.String()})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = call(ctx, conn, "CreateGenerationTask", u.ID, map[string]any{"application_id": app.ID.String(), "doc_types": []any{"A"}})
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	_, err = call(ctx, conn, "CreateGenerationTask", u.ID, map[string]any{"application_id": "nope", "doc_types": []any{"B"}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	noCV := f.env.User(t, 10, "")
	_, err = call(ctx, conn, "CreateGenerationTask", noCV.ID, map[string]any{
		"application_id": f.env.Application(t, noCV.ID).ID.String(),
		"doc_types":      []any{"B"},
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, f.queue.jobs)
}

func TestGRPCMatchingAndHealth(t *testing.T) {
	f := newFixture(t)
	conn := dialApply(t, f)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, app := f.applicant(t, 0)

	out, err := call(ctx, conn, "CreateMatchingScoreTask", u.ID, map[string]any{"application_id": app.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "queued", out.GetFields()["status"].GetStringValue())

	out, err = call(ctx, conn, "GetMatchingScoreStatus", u.ID, map[string]any{"task_id": out.GetFields()["task_id"].GetStringValue()})
	require.NoError(t, err)
	assert.Equal(t, "pending", out.GetFields()["status"].GetStringValue())
	assert.NotContains(t, out.GetFields(), "matching_score")

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
