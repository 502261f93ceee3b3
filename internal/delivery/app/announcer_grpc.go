package app

import (
	"context"

	"chat_delivery_service/internal/delivery/domain"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"
	"chat_delivery_service/pkg/rpc"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const announceDeliveredMethod = "/delivery.Announcer/AnnounceDelivered"

// AnnouncerServer grpc surface of the gateway announcer
type AnnouncerServer interface {
	AnnounceDelivered(ctx context.Context, ev *domain.AnnounceEvent) (*domain.AnnounceResponse, error)
}

// AnnouncerServiceDesc payloads are json encoded, see pkg/rpc
var AnnouncerServiceDesc = grpc.ServiceDesc{
	ServiceName: "delivery.Announcer",
	HandlerType: (*AnnouncerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AnnounceDelivered",
			Handler:    announceDeliveredHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "delivery/announcer",
}

func announceDeliveredHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(domain.AnnounceEvent)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnnouncerServer).AnnounceDelivered(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: announceDeliveredMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnnouncerServer).AnnounceDelivered(ctx, req.(*domain.AnnounceEvent))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterAnnouncerServer expose announcer on s
func RegisterAnnouncerServer(s grpc.ServiceRegistrar, announcer Announcer) {
	s.RegisterService(&AnnouncerServiceDesc, &AnnouncerGRPCServer{Announcer: announcer})
}

// AnnouncerGRPCServer 用來實作 AnnouncerServer
type AnnouncerGRPCServer struct {
	Announcer Announcer
}

// AnnounceDelivered 實作 AnnounceDelivered
func (s *AnnouncerGRPCServer) AnnounceDelivered(ctx context.Context, ev *domain.AnnounceEvent) (*domain.AnnounceResponse, error) {
	logger.Log.Debug("AnnounceDelivered Req", zap.Int64("message_id", ev.MessageID), zap.String("recipient", ev.Recipient))
	if err := s.Announcer.AnnounceDelivered(ctx, *ev); err != nil {
		logger.Log.Error("AnnounceDelivered Err", zap.Int64("message_id", ev.MessageID), zap.Error(err))
		return &domain.AnnounceResponse{OK: false, Error: err.Error()}, nil
	}
	return &domain.AnnounceResponse{OK: true}, nil
}

// AnnouncerGRPCClient worker side of the grpc announce transport
type AnnouncerGRPCClient struct {
	conn grpc.ClientConnInterface
}

// NewAnnouncerGRPCClient create AnnouncerGRPCClient
func NewAnnouncerGRPCClient(conn grpc.ClientConnInterface) *AnnouncerGRPCClient {
	return &AnnouncerGRPCClient{conn: conn}
}

// AnnounceDelivered one unary call per event, deadline comes from ctx
func (c *AnnouncerGRPCClient) AnnounceDelivered(ctx context.Context, ev domain.AnnounceEvent) error {
	var resp domain.AnnounceResponse
	if err := c.conn.Invoke(ctx, announceDeliveredMethod, &ev, &resp, grpc.CallContentSubtype(rpc.JSONCodecName)); err != nil {
		return errprocess.Wrap(errprocess.KindTransient, err, "announce delivered")
	}
	if !resp.OK {
		return errprocess.Newf(errprocess.KindInternal, "gateway rejected announce: %s", resp.Error)
	}
	return nil
}
