package matching

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "matching.v1.MatchingService"

// MatchingServiceServer is the server API for the matching service.
type MatchingServiceServer interface {
	Like(context.Context, *LikeRequest) (*LikeResponse, error)
	Unlike(context.Context, *UnlikeRequest) (*UnlikeResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	ListLikesReceived(context.Context, *ListLikesReceivedRequest) (*ListLikesReceivedResponse, error)
	Suggestions(context.Context, *SuggestionsRequest) (*SuggestionsResponse, error)
	Stats(context.Context, *UserRequest) (*StatsResponse, error)
	VerificationLevel(context.Context, *UserRequest) (*VerificationLevelResponse, error)
	LikeLimit(context.Context, *UserRequest) (*LikeLimitResponse, error)
	CountLikesReceived(context.Context, *UserRequest) (*CountLikesReceivedResponse, error)
}

// FullMethod returns the wire name of a method, e.g. /matching.v1.MatchingService/Like.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary adapts a typed method to grpc.MethodHandler, running the server's
// interceptor chain like generated code does.
func unary[Req, Resp any](method string, call func(MatchingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MatchingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MatchingServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the matching service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Like", MatchingServiceServer.Like),
		unary("Unlike", MatchingServiceServer.Unlike),
		unary("ListMatches", MatchingServiceServer.ListMatches),
		unary("ListLikesReceived", MatchingServiceServer.ListLikesReceived),
		unary("Suggestions", MatchingServiceServer.Suggestions),
		unary("Stats", MatchingServiceServer.Stats),
		unary("VerificationLevel", MatchingServiceServer.VerificationLevel),
		unary("LikeLimit", MatchingServiceServer.LikeLimit),
		unary("CountLikesReceived", MatchingServiceServer.CountLikesReceived),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "matching/v1/matching.json",
}

func RegisterMatchingServiceServer(s grpc.ServiceRegistrar, srv MatchingServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the matching service with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Like(ctx context.Context, in *LikeRequest, opts ...grpc.CallOption) (*LikeResponse, error) {
	return invoke[LikeResponse](ctx, c.cc, "Like", in, opts)
}

func (c *Client) Unlike(ctx context.Context, in *UnlikeRequest, opts ...grpc.CallOption) (*UnlikeResponse, error) {
	return invoke[UnlikeResponse](ctx, c.cc, "Unlike", in, opts)
}

func (c *Client) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c.cc, "ListMatches", in, opts)
}

func (c *Client) ListLikesReceived(ctx context.Context, in *ListLikesReceivedRequest, opts ...grpc.CallOption) (*ListLikesReceivedResponse, error) {
	return invoke[ListLikesReceivedResponse](ctx, c.cc, "ListLikesReceived", in, opts)
}

func (c *Client) Suggestions(ctx context.Context, in *SuggestionsRequest, opts ...grpc.CallOption) (*SuggestionsResponse, error) {
	return invoke[SuggestionsResponse](ctx, c.cc, "Suggestions", in, opts)
}

func (c *Client) Stats(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	return invoke[StatsResponse](ctx, c.cc, "Stats", in, opts)
}

func (c *Client) VerificationLevel(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*VerificationLevelResponse, error) {
	return invoke[VerificationLevelResponse](ctx, c.cc, "VerificationLevel", in, opts)
}

func (c *Client) LikeLimit(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*LikeLimitResponse, error) {
	return invoke[LikeLimitResponse](ctx, c.cc, "LikeLimit", in, opts)
}

func (c *Client) CountLikesReceived(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*CountLikesReceivedResponse, error) {
	return invoke[CountLikesReceivedResponse](ctx, c.cc, "CountLikesReceived", in, opts)
}
