package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"medreel/internal/config"
	"medreel/internal/encoder"
	"medreel/internal/library"
	"medreel/internal/match"
	"medreel/internal/plan"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing clip search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lib, err := library.Load(cfg.LibraryDir())
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}

	s := mcpserver.NewMCPServer("medreel", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(matchClipsTool(), makeMatchHandler(cfg, lib))
	s.AddTool(planSentenceTool(), makePlanHandler(cfg))
	s.AddTool(libraryStatsTool(), makeStatsHandler(lib))
	s.AddTool(listClipsTool(), makeListClipsHandler(lib))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func matchClipsTool() mcp.Tool {
	return mcp.NewTool("match_clips",
		mcp.WithDescription("Rank library clips against a visual plan using semantic embedding search. Returns candidate clips with similarity scores."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("subject",
			mcp.Description("Primary subject of the shot (e.g. 'insulin receptor')"),
		),
		mcp.WithString("action",
			mcp.Description("Action or process shown (e.g. 'binding and signaling')"),
		),
		mcp.WithString("keywords",
			mcp.Description("Comma-separated supporting keywords"),
		),
		mcp.WithNumber("duration_s",
			mcp.Description("Target clip duration in seconds (clamped to 4-8)"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of candidates to return (default 3)"),
		),
	)
}

func planSentenceTool() mcp.Tool {
	return mcp.NewTool("plan_sentence",
		mcp.WithDescription("Generate a structured visual plan for one narration sentence via the local LLM."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("sentence",
			mcp.Required(),
			mcp.Description("Narration sentence to plan a visual for"),
		),
		mcp.WithString("sensitivity",
			mcp.Description("Target sensitivity: low, medium, or high (default medium)"),
		),
	)
}

func libraryStatsTool() mcp.Tool {
	return mcp.NewTool("library_stats",
		mcp.WithDescription("Get the clip library's size and embedding dimension."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func listClipsTool() mcp.Tool {
	return mcp.NewTool("list_clips",
		mcp.WithDescription("List indexed clips with their id, duration, and source tag."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("source",
			mcp.Description(`Optional source filter ("library" or "generated")`),
		),
	)
}

// --- Handler factories ---

func makeMatchHandler(cfg config.Config, lib *library.Library) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var keywords []string
		if kw := req.GetString("keywords", ""); kw != "" {
			keywords = strings.Split(kw, ",")
		}
		vp := plan.New(plan.VisualPlan{
			PrimarySubject: req.GetString("subject", ""),
			Action:         req.GetString("action", ""),
			Keywords:       keywords,
			DurationS:      req.GetFloat("duration_s", 6.0),
		})
		k := req.GetInt("k", cfg.TopK)
		if k <= 0 {
			k = cfg.TopK
		}

		enc, err := encoder.LoadText(cfg.ModelDir)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load encoder: %v", err)), nil
		}

		takes, err := match.Match(enc, vp, lib, match.Options{K: k})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("match failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatTakes(takes)), nil
	}
}

func makePlanHandler(cfg config.Config) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sentence := req.GetString("sentence", "")
		if sentence == "" {
			return mcp.NewToolResultError("sentence is required"), nil
		}
		sensitivity := req.GetString("sensitivity", plan.SensitivityMedium)

		planner := plan.NewPlanner(cfg.OllamaURL, cfg.PlannerModel)
		vp := planner.PlanSentence(sentence, sensitivity)

		data, err := json.MarshalIndent(vp, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal plan: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func makeStatsHandler(lib *library.Library) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(fmt.Sprintf("Library: %d clips, embedding dimension %d", lib.Len(), lib.Dim())), nil
	}
}

func makeListClipsHandler(lib *library.Library) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sourceFilter := strings.ToLower(req.GetString("source", ""))

		var sb strings.Builder
		count := 0
		for _, c := range lib.Clips() {
			if sourceFilter != "" && strings.ToLower(c.Source) != sourceFilter {
				continue
			}
			count++
			fmt.Fprintf(&sb, "- **%s** (%s, %.1fs, %s)\n", c.URI, c.ID, c.Duration, c.Source)
		}
		header := fmt.Sprintf("## Indexed clips (%d", count)
		if sourceFilter != "" {
			header += ", source: " + sourceFilter
		}
		header += ")\n\n"
		return mcp.NewToolResultText(header + sb.String()), nil
	}
}

// --- Formatting helpers ---

func formatTakes(takes []match.Take) string {
	if len(takes) == 0 {
		return "No candidates found. The library may be empty."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Candidate takes (%d)\n\n", len(takes))
	for i, t := range takes {
		fmt.Fprintf(&sb, "### Take %d: `%s`\n\n", i+1, t.ClipURI)
		fmt.Fprintf(&sb, "**Clip:** %s  \n**Similarity:** %.4f  \n**Duration:** %.1fs  \n**Source:** %s\n\n",
			t.ClipID, t.Similarity, t.Duration, t.Source)
	}
	return sb.String()
}
