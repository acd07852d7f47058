package mcpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/cassdoctor/pkg/catalog"
)

// Error normalizes JSON-RPC faults reported by the provider.
type Error struct {
	Code    int64
	Message string
	Data    json.RawMessage
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Data) > 0 {
		return fmt.Sprintf("mcp error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// convertError unwraps to an *Error when one is present and passes everything
// else through unchanged. The SDK does not export its wire error type, so
// remote faults surface with their message intact rather than a code.
func convertError(err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	return err
}

// ToolCallResult is the normalized outcome of one remote tool invocation.
// Text carries the flattened text content; Content preserves the raw content
// blocks; IsError marks a tool-level error payload.
type ToolCallResult struct {
	Content json.RawMessage
	Text    string
	IsError bool
}

func toToolDescriptor(tool *mcpsdk.Tool) catalog.ToolDescriptor {
	if tool == nil {
		return catalog.ToolDescriptor{}
	}
	desc := catalog.ToolDescriptor{
		Name:        tool.Name,
		Description: tool.Description,
	}
	if tool.InputSchema != nil {
		if raw, err := json.Marshal(tool.InputSchema); err == nil {
			desc.Schema = raw
		}
	}
	return desc
}

func toResourceDescriptor(res *mcpsdk.Resource) catalog.ResourceDescriptor {
	if res == nil {
		return catalog.ResourceDescriptor{}
	}
	return catalog.ResourceDescriptor{
		URI:         res.URI,
		Name:        res.Name,
		Description: res.Description,
		MIMEType:    res.MIMEType,
	}
}

func toToolCallResult(result *mcpsdk.CallToolResult) *ToolCallResult {
	out := &ToolCallResult{}
	if result == nil {
		return out
	}
	out.IsError = result.IsError
	out.Text = flattenContent(result.Content)
	if raw, err := json.Marshal(result.Content); err == nil {
		out.Content = raw
	}
	return out
}

// flattenContent joins text blocks; non-text blocks are kept as JSON so the
// oracle still sees something useful.
func flattenContent(content []mcpsdk.Content) string {
	var parts []string
	for _, item := range content {
		switch c := item.(type) {
		case *mcpsdk.TextContent:
			parts = append(parts, c.Text)
		default:
			if raw, err := json.Marshal(item); err == nil {
				parts = append(parts, string(raw))
			}
		}
	}
	return strings.Join(parts, "\n")
}

func flattenResourceContents(result *mcpsdk.ReadResourceResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, item := range result.Contents {
		if item == nil {
			continue
		}
		if item.Text != "" {
			parts = append(parts, item.Text)
			continue
		}
		if raw, err := json.Marshal(item); err == nil {
			parts = append(parts, string(raw))
		}
	}
	return strings.Join(parts, "\n")
}
