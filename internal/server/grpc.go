package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/generation"
	"github.com/joseph-ayodele/jobapply/internal/matching"
)

const (
	ApplyServiceName = "jobapply.v1.ApplyService"
	MetadataUserID   = "x-user-id"
)

// ApplyServiceServer exposes task creation and status over gRPC. Requests and
// responses are google.protobuf.Struct messages carrying the same fields as
// the HTTP API.
type ApplyServiceServer interface {
	CreateGenerationTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetGenerationStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateMatchingScoreTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMatchingScoreStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type applyCall func(ApplyServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func applyMethod(name string, call applyCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ApplyServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ApplyServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

var applyServiceDesc = grpc.ServiceDesc{
	ServiceName: ApplyServiceName,
	HandlerType: (*ApplyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		applyMethod("CreateGenerationTask", ApplyServiceServer.CreateGenerationTask),
		applyMethod("GetGenerationStatus", ApplyServiceServer.GetGenerationStatus),
		applyMethod("CreateMatchingScoreTask", ApplyServiceServer.CreateMatchingScoreTask),
		applyMethod("GetMatchingScoreStatus", ApplyServiceServer.GetMatchingScoreStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jobapply/v1/apply.proto",
}

func RegisterApplyServiceServer(s grpc.ServiceRegistrar, srv ApplyServiceServer) {
	s.RegisterService(&applyServiceDesc, srv)
}

type ApplyServer struct {
	generation *generation.Service
	matching   *matching.Service
	catalog    CatalogSource
	logger     *slog.Logger
}

func NewApplyServer(d Deps, logger *slog.Logger) *ApplyServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplyServer{
		generation: d.Generation,
		matching:   d.Matching,
		catalog:    d.Catalog,
		logger:     logger,
	}
}

// CreateGenerationTask takes {application_id, doc_types?, package?}.
func (s *ApplyServer) CreateGenerationTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	appID, err := common.ParseUUID("application_id", stringField(req, "application_id"))
	if err != nil {
		return nil, s.status(err)
	}
	docTypes, err := requestedDocTypes(s.catalog, stringField(req, "package"), stringList(req, "doc_types"))
	if err != nil {
		return nil, s.status(err)
	}
	res, err := s.generation.CreateTask(ctx, uid, appID, docTypes)
	if err != nil {
		return nil, s.status(err)
	}
	return toStruct(res)
}

// GetGenerationStatus takes {task_id}.
func (s *ApplyServer) GetGenerationStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	taskID, err := common.ParseUUID("task_id", stringField(req, "task_id"))
	if err != nil {
		return nil, s.status(err)
	}
	view, err := s.generation.Status(ctx, uid, taskID)
	if err != nil {
		return nil, s.status(err)
	}
	return toStruct(view)
}

// CreateMatchingScoreTask takes {application_id, recalculate?}.
func (s *ApplyServer) CreateMatchingScoreTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	appID, err := common.ParseUUID("application_id", stringField(req, "application_id"))
	if err != nil {
		return nil, s.status(err)
	}
	res, err := s.matching.CreateTask(ctx, uid, appID, req.GetFields()["recalculate"].GetBoolValue())
	if err != nil {
		return nil, s.status(err)
	}
	return toStruct(res)
}

// GetMatchingScoreStatus takes {task_id}.
func (s *ApplyServer) GetMatchingScoreStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	taskID, err := common.ParseUUID("task_id", stringField(req, "task_id"))
	if err != nil {
		return nil, s.status(err)
	}
	view, err := s.matching.Status(ctx, uid, taskID)
	if err != nil {
		return nil, s.status(err)
	}
	return toStruct(view)
}

// status converts err to a gRPC status with the same class the HTTP API uses.
func (s *ApplyServer) status(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := common.CodeOf(err)
	msg := common.MessageOf(err)
	if code == codes.Internal {
		s.logger.Error("grpc.error", "error", err)
		var ae *common.AppError
		if !errors.As(err, &ae) {
			msg = "internal error"
		}
	}
	return status.Error(code, msg)
}

func callerID(ctx context.Context) (uuid.UUID, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	for _, v := range md.Get(MetadataUserID) {
		if id, err := uuid.Parse(strings.TrimSpace(v)); err == nil && id != uuid.Nil {
			return id, nil
		}
	}
	return uuid.Nil, status.Error(codes.Unauthenticated, MetadataUserID+" metadata must carry a user UUID")
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func stringList(s *structpb.Struct, name string) []string {
	values := s.GetFields()[name].GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.GetStringValue())
	}
	return out
}

// toStruct renders v through its JSON tags so both transports share one shape.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}

// UnaryRequestLog logs every unary call except health probes.
func UnaryRequestLog(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqID := uuid.NewString()
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(strings.ToLower(HeaderRequestID)); len(v) > 0 && v[0] != "" {
				reqID = v[0]
			}
		}
		resp, err := handler(common.WithRequestID(ctx, reqID), req)
		if strings.HasPrefix(info.FullMethod, "/grpc.health.v1.") {
			return resp, err
		}
		code := status.Code(err)
		level := slog.LevelInfo
		if code == codes.Internal || code == codes.Unknown {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "grpc.request",
			"method", info.FullMethod,
			"code", code.String(),
			"req_id", reqID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
