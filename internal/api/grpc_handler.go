package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"storefront-service/internal/catalog"
	"storefront-service/internal/domain"
	"storefront-service/internal/filter"
)

// CatalogServiceName is the fully qualified gRPC service name.
const CatalogServiceName = "storefront.v1.Catalog"

// CatalogServer is the read-only catalog surface exposed over gRPC. Messages
// are the protobuf well-known types; products travel as Structs shaped like
// the HTTP JSON.
type CatalogServer interface {
	GetProduct(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListFeatured(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListNew(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SearchProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// GRPCHandler implements CatalogServer over the catalog store.
type GRPCHandler struct {
	catalog *catalog.Store
	logger  *zap.Logger
}

var _ CatalogServer = (*GRPCHandler)(nil)

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(cat *catalog.Store, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{catalog: cat, logger: logger}
}

func (s *GRPCHandler) GetProduct(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := req.GetValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "product id is required")
	}
	product, ok := s.catalog.GetByID(id)
	if !ok {
		s.logger.Debug("product lookup miss", zap.String("product_id", id))
		return nil, status.Errorf(codes.NotFound, "product %q not found", id)
	}
	return toStruct(product)
}

func (s *GRPCHandler) ListFeatured(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(newList(s.catalog.Featured()))
}

func (s *GRPCHandler) ListNew(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(newList(s.catalog.New()))
}

// SearchProducts accepts the browse parameters as Struct fields: q, sort,
// min_price and max_price (number or string), categories and colors (list or
// string).
func (s *GRPCHandler) SearchProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	query, err := structToQuery(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	state, err := parseFilterQuery(query, browseDefaults(s.catalog))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return toStruct(newList(filter.Apply(s.catalog.All(), state)))
}

// --- Helpers ---

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

var searchFields = map[string]string{
	"q":          "q",
	"sort":       "sort",
	"min_price":  "min_price",
	"max_price":  "max_price",
	"categories": "category",
	"colors":     "color",
}

func structToQuery(req *structpb.Struct) (url.Values, error) {
	query := url.Values{}
	for field, value := range req.GetFields() {
		param, ok := searchFields[field]
		if !ok {
			return nil, fmt.Errorf("unknown search field %q", field)
		}
		switch kind := value.GetKind().(type) {
		case *structpb.Value_StringValue:
			query.Add(param, kind.StringValue)
		case *structpb.Value_NumberValue:
			query.Add(param, strconv.FormatFloat(kind.NumberValue, 'f', -1, 64))
		case *structpb.Value_ListValue:
			for _, item := range kind.ListValue.GetValues() {
				str, ok := item.GetKind().(*structpb.Value_StringValue)
				if !ok {
					return nil, fmt.Errorf("field %q: list items must be strings", field)
				}
				query.Add(param, str.StringValue)
			}
		case *structpb.Value_NullValue:
		default:
			return nil, fmt.Errorf("field %q: unsupported value type", field)
		}
	}
	return query, nil
}

// UnaryLoggingInterceptor logs each RPC with its code and latency.
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		switch code {
		case codes.OK:
			logger.Info("rpc completed", fields...)
		case codes.Internal, codes.Unknown, codes.Unavailable:
			logger.Error("rpc completed", append(fields, zap.Error(err))...)
		default:
			logger.Warn("rpc completed", fields...)
		}
		return resp, err
	}
}

// --- Service registration ---

// RegisterCatalogServer registers srv on s under CatalogServiceName.
func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&CatalogServiceDesc, srv)
}

// CatalogServiceDesc describes the catalog service for grpc.Server.
var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProduct", Handler: catalogGetProductHandler},
		{MethodName: "ListFeatured", Handler: catalogListFeaturedHandler},
		{MethodName: "ListNew", Handler: catalogListNewHandler},
		{MethodName: "SearchProducts", Handler: catalogSearchProductsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/catalog.proto",
}

func catalogGetProductHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).GetProduct(ctx, req.(*wrapperspb.StringValue))
	}
	return invokeUnary(ctx, srv, in, "GetProduct", interceptor, call)
}

func catalogListFeaturedHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).ListFeatured(ctx, req.(*emptypb.Empty))
	}
	return invokeUnary(ctx, srv, in, "ListFeatured", interceptor, call)
}

func catalogListNewHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).ListNew(ctx, req.(*emptypb.Empty))
	}
	return invokeUnary(ctx, srv, in, "ListNew", interceptor, call)
}

func catalogSearchProductsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).SearchProducts(ctx, req.(*structpb.Struct))
	}
	return invokeUnary(ctx, srv, in, "SearchProducts", interceptor, call)
}

func invokeUnary(ctx context.Context, srv, in any, method string, interceptor grpc.UnaryServerInterceptor, call grpc.UnaryHandler) (any, error) {
	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + CatalogServiceName + "/" + method,
	}
	return interceptor(ctx, in, info, call)
}

// --- Client ---

// CatalogClient calls a remote CatalogServer.
type CatalogClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogClient(cc grpc.ClientConnInterface) *CatalogClient {
	return &CatalogClient{cc: cc}
}

func (c *CatalogClient) GetProduct(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+CatalogServiceName+"/GetProduct", wrapperspb.String(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) ListFeatured(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+CatalogServiceName+"/ListFeatured", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) ListNew(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+CatalogServiceName+"/ListNew", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) SearchProducts(ctx context.Context, query *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+CatalogServiceName+"/SearchProducts", query, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductsFromStruct decodes a list response back into products.
func ProductsFromStruct(s *structpb.Struct) ([]domain.Product, error) {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	var list ListResponse[domain.Product]
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}
