package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/match-engine/internal/auth"
	svcErr "github.com/oggyb/match-engine/internal/errors"
	"github.com/oggyb/match-engine/internal/logger"
	"github.com/oggyb/match-engine/internal/metrics"
)

const (
	requestIDHeader     = "x-request-id"
	authorizationHeader = "authorization"
)

func firstMD(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// RequestLogger tags every call with a request id (taken from x-request-id
// or generated), stores a request-scoped logger in ctx and logs the outcome.
func RequestLogger(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := firstMD(ctx, requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, requestID))

		reqLog := log.With("request_id", requestID, "method", info.FullMethod)
		ctx = logger.IntoContext(ctx, reqLog)

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		attrs := []any{"code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
		if err != nil {
			reqLog.Warn("rpc failed", append(attrs, "err", err)...)
		} else {
			reqLog.Info("rpc", attrs...)
		}
		return resp, err
	}
}

// Metrics records per-method latency by status code.
func Metrics() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		metrics.RecordRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// Auth requires an HS256 bearer token and puts its user id into ctx.
func Auth(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		header := firstMD(ctx, authorizationHeader)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return nil, svcErr.Map(auth.ErrMissingToken)
		}

		userID, err := auth.ParseToken(token, secret)
		if err != nil {
			logger.FromContext(ctx, slog.Default()).Debug("token rejected", "err", err)
			return nil, svcErr.Map(err)
		}
		return handler(auth.WithUserID(ctx, userID), req)
	}
}
