package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/focusmate/internal/config"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool schemas.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	markdown, err := toolsDocumentation()
	if err != nil {
		return err
	}

	// Write to output
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

// toolsDocumentation registers the tools on a server without credentials
// and renders what tools/list would advertise.
func toolsDocumentation() (string, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(context.Background(), config.Config{}, logger)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = a.shutdown()
	}()

	serverTools := a.mcpServer.ListTools()

	// Extract mcp.Tool from each ServerTool
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	return generateToolsMarkdown(tools)
}

func generateToolsMarkdown(tools []mcp.Tool) (string, error) {
	var sb strings.Builder

	// Header
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running focusmate as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	// Group tools by category
	toolsByCategory := groupToolsByCategory(tools)

	// Table of contents
	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s)\n", category, anchor)
	}
	sb.WriteString("\n")

	sb.WriteString("## Credentials\n\n")
	sb.WriteString("- **Place search** needs `KAKAO_REST_API_KEY`.\n")
	sb.WriteString("- **Calendar and message tools** need `KAKAO_ACCESS_TOKEN` with the `talk_calendar` and `talk_message` consents.\n\n")
	sb.WriteString("A tool whose credential is missing returns an error result naming the variable; the other tools keep working.\n\n")

	// Generate documentation for each category
	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		fmt.Fprintf(&sb, "## %s\n\n", category)

		for _, tool := range categoryTools {
			md, err := generateToolMarkdown(tool)
			if err != nil {
				return "", err
			}
			sb.WriteString(md)
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)

	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		categories[category] = append(categories[category], tool)
	}

	return categories
}

func getCategoryFromToolName(name string) string {
	switch {
	case strings.HasPrefix(name, "search_"):
		return "Kakao Local Tools"
	case strings.Contains(name, "calendar"):
		return "Kakao Calendar Tools"
	case strings.Contains(name, "message"):
		return "KakaoTalk Message Tools"
	default:
		return "Other"
	}
}

// inputSchema is the subset of a tool's JSON Schema that is documented.
type inputSchema struct {
	Properties map[string]map[string]any `json:"properties"`
	Required   []string                  `json:"required"`
}

func toolInputSchema(tool mcp.Tool) (inputSchema, error) {
	var s inputSchema
	raw := tool.RawInputSchema
	if len(raw) == 0 {
		b, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return s, fmt.Errorf("failed to encode schema of %s: %w", tool.Name, err)
		}
		raw = b
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("failed to decode schema of %s: %w", tool.Name, err)
	}
	return s, nil
}

func generateToolMarkdown(tool mcp.Tool) (string, error) {
	var sb strings.Builder

	// Tool name
	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)

	// Description
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	schema, err := toolInputSchema(tool)
	if err != nil {
		return "", err
	}

	if len(schema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		// Required arguments first, then alphabetical
		propNames := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			propNames = append(propNames, name)
		}
		sort.Slice(propNames, func(i, j int) bool {
			ri, rj := slices.Contains(schema.Required, propNames[i]), slices.Contains(schema.Required, propNames[j])
			if ri != rj {
				return ri
			}
			return propNames[i] < propNames[j]
		})

		for _, name := range propNames {
			prop := schema.Properties[name]

			requiredStr := "optional"
			if slices.Contains(schema.Required, name) {
				requiredStr = "required"
			}

			fmt.Fprintf(&sb, "- `%s` (%s, %s): ", name, getPropertyType(prop), requiredStr)

			if desc, ok := prop["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				fmt.Fprintf(&sb, "%s parameter", getPropertyType(prop))
			}
			if constraints := propertyConstraints(prop); constraints != "" {
				sb.WriteString(" " + constraints)
			}

			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

// propertyConstraints summarizes enum, range, length and default keywords.
func propertyConstraints(prop map[string]any) string {
	var parts []string

	if enum, ok := prop["enum"].([]any); ok && len(enum) > 0 {
		values := make([]string, 0, len(enum))
		for _, v := range enum {
			values = append(values, fmt.Sprintf("`%v`", v))
		}
		parts = append(parts, "one of "+strings.Join(values, ", "))
	}

	minV, hasMin := prop["minimum"]
	maxV, hasMax := prop["maximum"]
	switch {
	case hasMin && hasMax:
		parts = append(parts, fmt.Sprintf("%v to %v", minV, maxV))
	case hasMin:
		parts = append(parts, fmt.Sprintf("at least %v", minV))
	case hasMax:
		parts = append(parts, fmt.Sprintf("at most %v", maxV))
	}

	if maxLen, ok := prop["maxLength"]; ok {
		parts = append(parts, fmt.Sprintf("max %v characters", maxLen))
	}

	if def, ok := prop["default"]; ok {
		parts = append(parts, fmt.Sprintf("default `%v`", def))
	}

	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, "; ") + ")"
}
