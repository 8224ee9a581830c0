package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the Tempo client.
// It registers the line command group.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "tempo",
		Short: "Tempo client commands",
	}
	root.AddCommand(NewLineCommand(baseURL))
	return root
}
