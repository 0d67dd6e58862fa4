// Package mcp exposes a Keychain to AI assistants as Model Context Protocol
// tools. Secrets can be written, moved and deleted; reading them back is
// only offered when explicitly allowed.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zx06/xkeychain/internal/errors"
	"github.com/zx06/xkeychain/internal/keychain"
	"github.com/zx06/xkeychain/internal/output"
)

// IdentityInput names one entry.
type IdentityInput struct {
	Service  string `json:"service"`
	Username string `json:"username,omitempty"`
	Class    string `json:"class,omitempty"`
}

func (in IdentityInput) identity() (keychain.Identity, error) {
	id := keychain.Identity{Service: in.Service, Username: in.Username}
	if in.Class != "" {
		c, err := keychain.ParseClass(in.Class)
		if err != nil {
			return keychain.Identity{}, errors.Wrap(errors.CodeInvalidIdentity, "invalid class", map[string]any{"class": in.Class}, err)
		}
		id.Class = c
	}
	if err := id.Validate(); err != nil {
		return keychain.Identity{}, errors.Wrap(errors.CodeInvalidIdentity, "invalid identity", nil, err)
	}
	return id, nil
}

// StoreInput is the input of keychain_store.
type StoreInput struct {
	IdentityInput
	Secret  string `json:"secret"`
	Label   string `json:"label,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// UpdateInput is the input of keychain_update. Absent fields are left alone;
// an empty new_username removes the username.
type UpdateInput struct {
	IdentityInput
	NewService  *string `json:"new_service,omitempty"`
	NewUsername *string `json:"new_username,omitempty"`
	NewClass    *string `json:"new_class,omitempty"`
	Secret      *string `json:"secret,omitempty"`
}

type Options struct {
	// AllowLoad registers keychain_load, which hands secrets to the client.
	AllowLoad bool
}

// ToolHandler manages MCP tools
type ToolHandler struct {
	kc   *keychain.Keychain
	opts Options
}

func NewToolHandler(kc *keychain.Keychain, opts Options) *ToolHandler {
	return &ToolHandler{kc: kc, opts: opts}
}

func identitySchema(extra map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	props := map[string]*jsonschema.Schema{
		"service":  {Type: "string", Description: "Service the secret belongs to"},
		"username": {Type: "string", Description: "Account name; omit for none"},
		"class": {
			Type:        "string",
			Description: "Credential class",
			Enum:        []any{keychain.ClassGeneric.String(), keychain.ClassInternet.String()},
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return &jsonschema.Schema{
		Type:       "object",
		Required:   append([]string{"service"}, required...),
		Properties: props,
	}
}

// RegisterTools registers all tools with the MCP server
func (h *ToolHandler) RegisterTools(server *mcp.Server) {
	mcp.AddTool[struct{}, any](server, &mcp.Tool{
		Name:        "keychain_backend",
		Description: "Describe the credential store in use",
	}, h.Backend)

	server.AddTool(&mcp.Tool{
		Name:        "keychain_store",
		Description: "Store a secret; the response never contains it",
		InputSchema: identitySchema(map[string]*jsonschema.Schema{
			"secret":  {Type: "string", Description: "Secret value"},
			"label":   {Type: "string", Description: "Item label"},
			"comment": {Type: "string", Description: "Item comment"},
		}, "secret"),
	}, raw(h.Store))

	server.AddTool(&mcp.Tool{
		Name:        "keychain_exists",
		Description: "Report whether an entry exists without revealing it",
		InputSchema: identitySchema(nil),
	}, raw(h.Exists))

	server.AddTool(&mcp.Tool{
		Name:        "keychain_update",
		Description: "Move an entry to another service, username or class, or replace its secret",
		InputSchema: identitySchema(map[string]*jsonschema.Schema{
			"new_service":  {Type: "string", Description: "New service"},
			"new_username": {Type: "string", Description: "New username; empty removes it"},
			"new_class":    {Type: "string", Description: "New class", Enum: []any{"generic", "internet"}},
			"secret":       {Type: "string", Description: "New secret"},
		}),
	}, raw(h.Update))

	server.AddTool(&mcp.Tool{
		Name:        "keychain_delete",
		Description: "Delete an entry",
		InputSchema: identitySchema(nil),
	}, raw(h.Delete))

	if h.opts.AllowLoad {
		server.AddTool(&mcp.Tool{
			Name:        "keychain_load",
			Description: "Return a stored secret",
			InputSchema: identitySchema(nil),
		}, raw(h.Load))
	}
}

// raw adapts a typed handler to a raw tool handler that decodes its input.
func raw[In any](fn func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, any, error)) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input In
		if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
			return errorResult(errors.Wrap(errors.CodeCfgInvalid, "invalid input", nil, err)), nil
		}
		result, _, err := fn(ctx, req, input)
		return result, err
	}
}

type entry struct {
	keychain.OwnedIdentity
	Ref     string `json:"ref"`
	Backend string `json:"backend"`
}

func (h *ToolHandler) entry(id keychain.Identity) entry {
	return entry{OwnedIdentity: id.Owned(), Ref: id.Ref(), Backend: h.kc.Backend().Name()}
}

// Backend describes the store in use.
func (h *ToolHandler) Backend(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	b := h.kc.Backend()
	return okResult(map[string]any{
		"backend":    b.Name(),
		"strategy":   b.Strategy().String(),
		"allow_load": h.opts.AllowLoad,
	}), nil, nil
}

// Store writes a new entry.
func (h *ToolHandler) Store(ctx context.Context, req *mcp.CallToolRequest, input StoreInput) (*mcp.CallToolResult, any, error) {
	id, err := input.identity()
	if err != nil {
		return errorResult(err), nil, nil
	}
	stored, err := h.kc.NewItem(id.Service, input.Secret).
		Username(id.Username).
		Class(id.Class).
		Label(input.Label).
		Comment(input.Comment).
		Store()
	if err != nil {
		return errorResult(err), nil, nil
	}
	return okResult(h.entry(stored)), nil, nil
}

// Exists reports whether the entry is present.
func (h *ToolHandler) Exists(ctx context.Context, req *mcp.CallToolRequest, input IdentityInput) (*mcp.CallToolResult, any, error) {
	id, err := input.identity()
	if err != nil {
		return errorResult(err), nil, nil
	}
	_, ok, err := h.kc.Load(id)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return okResult(map[string]any{"entry": h.entry(id), "exists": ok}), nil, nil
}

// Load returns the secret. It is only registered with AllowLoad.
func (h *ToolHandler) Load(ctx context.Context, req *mcp.CallToolRequest, input IdentityInput) (*mcp.CallToolResult, any, error) {
	if !h.opts.AllowLoad {
		return errorResult(errors.New(errors.CodeUnsupported, "keychain_load is disabled; set mcp.allow_load", nil)), nil, nil
	}
	id, err := input.identity()
	if err != nil {
		return errorResult(err), nil, nil
	}
	secret, ok, err := h.kc.Load(id)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if !ok {
		return errorResult(errors.New(errors.CodeNotFound, "no matching entry", map[string]any{"ref": id.Ref()})), nil, nil
	}
	return okResult(map[string]any{"entry": h.entry(id), "secret": secret}), nil, nil
}

// Update applies the requested changes.
func (h *ToolHandler) Update(ctx context.Context, req *mcp.CallToolRequest, input UpdateInput) (*mcp.CallToolResult, any, error) {
	id, err := input.identity()
	if err != nil {
		return errorResult(err), nil, nil
	}
	opts := keychain.NewUpdate()
	if input.NewService != nil {
		opts.Service(*input.NewService)
	}
	if input.NewUsername != nil {
		opts.Username(*input.NewUsername)
	}
	if input.NewClass != nil {
		c, err := keychain.ParseClass(*input.NewClass)
		if err != nil {
			return errorResult(errors.Wrap(errors.CodeInvalidIdentity, "invalid class", map[string]any{"class": *input.NewClass}, err)), nil, nil
		}
		opts.Class(c)
	}
	if input.Secret != nil {
		opts.Secret(*input.Secret)
	}
	updated, err := h.kc.Update(id, opts)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return okResult(map[string]any{"entry": h.entry(updated), "from": id.Ref()}), nil, nil
}

// Delete removes the entry.
func (h *ToolHandler) Delete(ctx context.Context, req *mcp.CallToolRequest, input IdentityInput) (*mcp.CallToolResult, any, error) {
	id, err := input.identity()
	if err != nil {
		return errorResult(err), nil, nil
	}
	if err := h.kc.Delete(id); err != nil {
		return errorResult(err), nil, nil
	}
	return okResult(map[string]any{"entry": h.entry(id), "deleted": true}), nil, nil
}

func textResult(env output.Envelope, isError bool) *mcp.CallToolResult {
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		b = []byte(`{"ok":false,"schema_version":1,"error":{"code":"XKC_INTERNAL","message":"failed to marshal result"}}`)
		isError = true
	}
	return &mcp.CallToolResult{
		IsError: isError,
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

func okResult(data any) *mcp.CallToolResult {
	return textResult(output.Envelope{OK: true, SchemaVersion: output.SchemaVersion, Data: data}, false)
}

func errorResult(err error) *mcp.CallToolResult {
	xe := errors.AsOrWrap(err)
	return textResult(output.Envelope{
		OK:            false,
		SchemaVersion: output.SchemaVersion,
		Error:         &output.ErrorObject{Code: xe.Code, Message: xe.Message, Details: xe.Details},
	}, true)
}

// CreateServer creates a new MCP server
func CreateServer(version string, kc *keychain.Keychain, opts Options) (*mcp.Server, error) {
	if kc == nil {
		return nil, errors.New(errors.CodeInternal, "keychain is nil", nil)
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "xkeychain",
		Version: version,
	}, nil)

	NewToolHandler(kc, opts).RegisterTools(server)
	return server, nil
}
