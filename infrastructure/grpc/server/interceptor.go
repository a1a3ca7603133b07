package server

import (
	"context"
	"pairchat/observability"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MonitoringInterceptor feeds the request counters served on /healthz.
// Call logging is left to the logging interceptor chained before it.
func MonitoringInterceptor(monitoring *observability.MonitoringManager) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		monitoring.Observe(status.Code(err) != codes.OK)
		return resp, err
	}
}
