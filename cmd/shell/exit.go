package shell

import (
	"github.com/spf13/cobra"
)

var exitCmd = &cobra.Command{
	Use:   "exit",
	Short: "结束会话，停止所有线程",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupOthers,
	},
	Aliases: []string{"quit", "q"},
	Run: func(cmd *cobra.Command, args []string) {
		CurrentSession.Stop()
	},
}

func init() {
	shellRootCmd.AddCommand(exitCmd)
}
