package cmd

import "github.com/spf13/cobra"

// noServiceAnnotation marks commands that run without building the service.
const noServiceAnnotation = "ged/no-service"

// NeedsService reports whether c, or any of its parents, expects the service
// to be initialized before it runs.
func NeedsService(c *cobra.Command) bool {
	for p := c; p != nil; p = p.Parent() {
		if p.Annotations[noServiceAnnotation] == "true" {
			return false
		}
	}
	// Help and completion are generated by cobra.
	switch c.Name() {
	case "help", "completion", "__complete", "__completeNoDesc":
		return false
	}
	return true
}
