package testtool

import (
	"context"
	"net"
	"strings"

	"chat_delivery_service/pkg/logger"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// SetupContainer 通用函式來啟動測試容器, 回傳第一個 exposed port 的 host:port
func SetupContainer(ctx context.Context, req testcontainers.ContainerRequest) (testcontainers.Container, string, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, "", "", err
	}

	natPort, err := nat.NewPort("tcp", strings.TrimSuffix(req.ExposedPorts[0], "/tcp"))
	if err != nil {
		return nil, "", "", err
	}

	port, err := container.MappedPort(ctx, natPort)
	if err != nil {
		return nil, "", "", err
	}

	return container, host, port.Port(), nil
}

// StartGRPCServer 啟動測試 grpc server, register 負責掛 service
func StartGRPCServer(register func(s *grpc.Server)) (*grpc.Server, string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0") // 隨機取得可用 Port
	if err != nil {
		return nil, "", err
	}

	grpcServer := grpc.NewServer()
	register(grpcServer)

	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			logger.Log.Error("test grpc server stopped", zap.Error(err))
		}
	}()

	return grpcServer, listener.Addr().String(), nil
}
