// ofertas-mcp is a stdio MCP bridge in front of the ofertas HTTP API, so
// MCP-capable clients can run listing extractions as a tool call.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// searchRequest mirrors the ofertas API request model.
type searchRequest struct {
	URL         string `json:"url"`
	SoloRebajas bool   `json:"solo_rebajas,omitempty"`
	MaxAge      int    `json:"max_age,omitempty"`
}

// searchResponse mirrors the ofertas API response model.
type searchResponse struct {
	Success  bool `json:"success"`
	Products []struct {
		Titulo    string   `json:"titulo"`
		Precio    any      `json:"precio"`
		URL       string   `json:"url"`
		Etiquetas []string `json:"etiquetas"`
		Rebaja    bool     `json:"rebaja"`
	} `json:"productos"`
	Filtered int    `json:"filtrados"`
	Total    int    `json:"total"`
	Warning  string `json:"warning"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("OFERTAS_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("OFERTAS_API_KEY")

	s := server.NewMCPServer(
		"ofertas",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	buscarTool := mcp.NewTool("buscar_ofertas",
		mcp.WithDescription("Extract product listings (title, price, URL, promotional tags) from a Walmart México category or landing page. Falls back to a headless browser for client-side-rendered pages."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The category or landing page URL to extract products from"),
		),
		mcp.WithBoolean("solo_rebajas",
			mcp.Description("Only return items flagged as discounted (default: false)"),
		),
	)
	s.AddTool(buscarTool, handleBuscar(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleBuscar(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		soloRebajas := request.GetBool("solo_rebajas", false)

		body, err := json.Marshal(searchRequest{
			URL:         url,
			SoloRebajas: soloRebajas,
			MaxAge:      5 * 60 * 1000, // serve repeat queries from the session cache
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/buscar", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var searchResp searchResponse
		if err := json.Unmarshal(respBody, &searchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !searchResp.Success {
			errMsg := "extraction failed"
			if searchResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", searchResp.Error.Code, searchResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatProducts(&searchResp)), nil
	}
}

// formatProducts renders the record list as readable text for the tool result.
func formatProducts(resp *searchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Productos encontrados: %d / %d\n", resp.Filtered, resp.Total)
	if resp.Warning != "" {
		fmt.Fprintf(&b, "Aviso: %s\n", resp.Warning)
	}
	for _, p := range resp.Products {
		fmt.Fprintf(&b, "\n- %s\n  Precio: %v\n  URL: %s\n", p.Titulo, p.Precio, p.URL)
		if len(p.Etiquetas) > 0 {
			fmt.Fprintf(&b, "  Etiquetas: %s\n", strings.Join(p.Etiquetas, ", "))
		}
	}
	return b.String()
}
