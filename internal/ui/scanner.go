package ui

import (
	"fmt"

	"github.com/bryanwahyu/simtrack/internal/controller"
)

// RenderScanEvent renders one controller event for the scan CLI.
func RenderScanEvent(ev controller.Event) string {
	switch ev.Kind {
	case controller.EventStarted:
		return StyleHelp.Render("scanner armed, scan a code (empty line = next)")
	case controller.EventAccepted:
		return StyleAccepted.Render("OK  ") + StyleCode.Render(ev.Display) +
			StyleHelp.Render("  press enter for next scan")
	case controller.EventRejected:
		return StyleRejected.Render("ERR ") + StyleCode.Render(ev.Raw) + "  " +
			StyleStatusErr.Render(ev.Err.Error())
	case controller.EventSubmitFailed:
		return StyleRejected.Render("FAIL ") + StyleCode.Render(ev.Display) + "  " +
			StyleStatusErr.Render(ev.Err.Error())
	case controller.EventAdvanced:
		return StyleHelp.Render("ready")
	}
	return fmt.Sprintf("%v", ev)
}
