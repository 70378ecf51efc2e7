package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tenant-registry/backend/internal/api"
	"tenant-registry/backend/internal/logging"
	"tenant-registry/backend/internal/repository"
	"tenant-registry/backend/pkg/models"
)

type Server struct {
	mcpServer *server.MCPServer
	users     api.UserService
	tenants   api.TenantService
	logger    *logging.Logger
}

func NewServer(users api.UserService, tenants api.TenantService, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		mcpServer: server.NewMCPServer(
			"Tenant Registry",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		users:   users,
		tenants: tenants,
		logger:  logger,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_user",
			mcp.WithDescription("Create a user"),
			mcp.WithString("email", mcp.Required(), mcp.Description("Email address, unique across users")),
			mcp.WithString("password", mcp.Required(), mcp.Description("Plaintext password; stored hashed")),
			mcp.WithString("description", mcp.Description("Free-text description")),
			mcp.WithString("field_1", mcp.Description("Extension field")),
			mcp.WithString("field_2", mcp.Description("Extension field")),
		),
		s.handleCreateUser,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_user",
			mcp.WithDescription("Fetch a user by id"),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("The user id")),
		),
		s.handleGetUser,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_users", mcp.WithDescription("List every user")),
		s.handleListUsers,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_tenant",
			mcp.WithDescription("Create a tenant"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Tenant name")),
			mcp.WithString("description", mcp.Required(), mcp.Description("Free-text description")),
		),
		s.handleCreateTenant,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_tenant",
			mcp.WithDescription("Fetch a tenant by id"),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("The tenant id")),
		),
		s.handleGetTenant,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_tenants", mcp.WithDescription("List every tenant")),
		s.handleListTenants,
	)
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return args
}

func requiredString(args map[string]any, name string) (*string, error) {
	v, ok := args[name].(string)
	if !ok {
		return nil, fmt.Errorf("Missing required parameter: %s", name)
	}
	return &v, nil
}

func optionalString(args map[string]any, name string) *string {
	v, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &v
}

func requiredID(args map[string]any) (int64, error) {
	v, ok := args["id"].(float64)
	if !ok || v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, errors.New("Missing required parameter: id (integer)")
	}
	return int64(v), nil
}

// toolError turns service errors into the same messages the HTTP API uses.
// Anything unclassified is logged and reported as an internal error.
func (s *Server) toolError(op string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return mcp.NewToolResultError("User not found")
	case errors.Is(err, repository.ErrTenantNotFound):
		return mcp.NewToolResultError("Tenant not found")
	case errors.Is(err, repository.ErrEmailTaken):
		return mcp.NewToolResultError("User with this email already exists")
	}
	s.logger.Error("MCP tool failed", "op", op, "error", err)
	return mcp.NewToolResultError("Internal server error")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleCreateUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	email, err := requiredString(args, "email")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	password, err := requiredString(args, "password")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	user, err := s.users.Create(ctx, models.UserCreate{
		Email:       email,
		Password:    password,
		Description: optionalString(args, "description"),
		Field1:      optionalString(args, "field_1"),
		Field2:      optionalString(args, "field_2"),
	})
	if err != nil {
		return s.toolError("create user", err), nil
	}
	return jsonResult(user)
}

func (s *Server) handleGetUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredID(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	user, err := s.users.Get(ctx, id)
	if err != nil {
		return s.toolError("get user", err), nil
	}
	return jsonResult(user)
}

func (s *Server) handleListUsers(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return s.toolError("list users", err), nil
	}
	if users == nil {
		users = []*models.User{}
	}
	return jsonResult(users)
}

func (s *Server) handleCreateTenant(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	name, err := requiredString(args, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description, err := requiredString(args, "description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tenant, err := s.tenants.Create(ctx, models.TenantCreate{Name: name, Description: description})
	if err != nil {
		return s.toolError("create tenant", err), nil
	}
	return jsonResult(tenant)
}

func (s *Server) handleGetTenant(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredID(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tenant, err := s.tenants.Get(ctx, id)
	if err != nil {
		return s.toolError("get tenant", err), nil
	}
	return jsonResult(tenant)
}

func (s *Server) handleListTenants(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return s.toolError("list tenants", err), nil
	}
	if tenants == nil {
		tenants = []*models.Tenant{}
	}
	return jsonResult(tenants)
}

// HTTPHandler serves the MCP SSE transport under /mcp (/mcp/sse for the
// event stream, /mcp/message for client posts).
func HTTPHandler(mcpServer *server.MCPServer) http.Handler {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	mux.Handle("/mcp/sse", sseServer)
	mux.Handle("/mcp/message", sseServer)
	return mux
}
