package browser

import (
	webbrowser "github.com/entrhq/webagent/pkg/browser"
	"github.com/entrhq/webagent/pkg/security/workspace"
	"github.com/entrhq/webagent/pkg/tokenizer"
	"github.com/entrhq/webagent/pkg/tools"
)

// Deps are the collaborators the browser tools share.
type Deps struct {
	Manager     *webbrowser.Manager
	Screenshots *webbrowser.Screenshotter
	// Tokenizer may be nil; token counts are then estimated.
	Tokenizer        *tokenizer.Tokenizer
	MaxContentTokens int
	// Guard admits screenshot directories chosen by the caller. May be nil.
	Guard *workspace.Guard
}

// NewTools creates every browser tool.
func NewTools(deps Deps) []tools.Tool {
	m := deps.Manager
	return []tools.Tool{
		// Navigation
		NewNavigateTool(m),
		NewGoBackTool(m),
		NewGoForwardTool(m),
		NewRefreshTool(m),

		// Interaction
		NewClickTool(m),
		NewTypeTool(m),
		NewPressKeyTool(m),
		NewScrollTool(m),
		NewWaitTool(m),
		NewLoginTool(m),
		NewGetCookiesTool(m),
		NewSetCookieTool(m),

		// Reading
		NewContentTool(m, deps.Tokenizer, deps.MaxContentTokens),
		NewQueryTool(m),
		NewEvaluateTool(m),
		NewScreenshotTool(m, deps.Screenshots, deps.Guard),
		NewParseScreenshotTool(deps.Screenshots),
		NewListScreenshotsTool(deps.Screenshots),
		NewSavePDFTool(m, deps.Screenshots),

		// Events
		NewConsoleLogsTool(m),
		NewDialogsTool(m),
		NewConfigureDialogsTool(m),

		// Frames
		NewSwitchFrameTool(m),
		NewSwitchToMainTool(m),
		NewListFramesTool(m),
		NewCurrentFrameTool(m),

		NewCloseTool(m),
	}
}
