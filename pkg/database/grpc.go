package database

import (
	"context"
	"fmt"
	"time"

	"chat_delivery_service/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

// CreateGRPCClient create grpc client and wait until READY or ctx done
func CreateGRPCClient(ctx context.Context, target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	client, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", target, err)
	}

	client.Connect()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		state := client.GetState()
		if state == connectivity.Ready {
			logger.Log.Info("grpc connection is READY", zap.String("target", target))
			return client, nil
		}
		select {
		case <-ctx.Done():
			// keep the client: grpc reconnects in the background
			logger.Log.Warn("grpc connection not READY yet", zap.String("target", target), zap.String("state", state.String()))
			return client, nil
		case <-ticker.C:
		}
	}
}
