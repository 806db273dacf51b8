package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// quiet methods are polled by orchestrators and only logged at debug level.
var quiet = map[string]struct{}{
	"/grpc.health.v1.Health/Check":                                   {},
	"/grpc.health.v1.Health/Watch":                                   {},
	"/grpc.health.v1.Health/List":                                    {},
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": {},
	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      {},
}

// NewLoggingUnaryServerInterceptor logs every call with its duration and
// turns a panic in the handler into codes.Internal.
func NewLoggingUnaryServerInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc handler panicked", zap.String("method", info.FullMethod), zap.Any("panic", r))
				err = status.Errorf(codes.Internal, "internal error (method=%s)", info.FullMethod)
			}

			fields := []zap.Field{
				zap.String("method", info.FullMethod),
				zap.String("code", status.Code(err).String()),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case err != nil:
				log.Warn("grpc call failed", append(fields, zap.Error(err))...)
			case isQuiet(info.FullMethod):
				log.Debug("grpc call", fields...)
			default:
				log.Info("grpc call", fields...)
			}
		}()
		return handler(ctx, req)
	}
}

func isQuiet(method string) bool {
	_, ok := quiet[method]
	return ok
}
