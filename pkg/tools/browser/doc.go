// Package browser exposes the browser session to the client as tools.
//
// Every tool works on the one shared session, which is started on first use
// and survives between calls until close_browser tears it down. Tools are
// thin: they decode arguments, call into pkg/browser, and shape the result.
//
// # Active document
//
// Interaction and extraction tools target the active document, which is the
// main page unless switch_to_iframe selected a frame. Navigation returns the
// target to the main page.
//
// # Results
//
// Each tool returns a short text summary and, where there is data, a
// structured result. Failures the caller caused, such as a script that
// threw, are returned as *tools.Failure so they reach the client as failed
// results rather than protocol faults.
//
// # Example Usage
//
//	manager := browser.NewManager(cfg, logger)
//	for _, tool := range NewTools(Deps{Manager: manager, Screenshots: shots}) {
//	    register(tool)
//	}
package browser
