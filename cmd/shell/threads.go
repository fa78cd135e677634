package shell

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var spawnCmd = &cobra.Command{
	Use:   "spawn [name]",
	Short: "创建线程(不启动)",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupThreads,
	},
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		e := Threads.Spawn(name)
		fmt.Printf("thread[%d] %s created\n", e.ID(), e)
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "启动线程",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupThreads,
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := Threads.Lookup(args[0])
		if err != nil {
			return err
		}
		if err = e.Start(); err != nil {
			return err
		}
		fmt.Printf("thread[%d] started, tid: %d\n", e.ID(), e.Tid())
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <id>",
	Short: "请求取消线程(不等待退出)",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupThreads,
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := Threads.Lookup(args[0])
		if err != nil {
			return err
		}
		if err = e.Stop(); err != nil {
			return err
		}
		fmt.Printf("thread[%d] cancel requested\n", e.ID())
		return nil
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait <id>",
	Short: "等待线程退出",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupThreads,
	},
	Aliases: []string{"join"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := Threads.Lookup(args[0])
		if err != nil {
			return err
		}
		if err = e.Wait(); err != nil {
			return err
		}
		fmt.Printf("thread[%d] terminated\n", e.ID())
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "删除已退出的线程",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupThreads,
	},
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid thread id %q", args[0])
		}
		return Threads.Remove(id)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有线程",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	Aliases: []string{"ls", "threads"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tNAME\tTID\tSTARTED\tALIVE\n")
		for _, e := range Threads.List() {
			fmt.Fprintf(w, "%d\t%s\t%d\t%v\t%v\n", e.ID(), e.Name(), e.Tid(), e.IsStarted(), e.IsAlive())
		}
		return w.Flush()
	},
}

func init() {
	shellRootCmd.AddCommand(spawnCmd, startCmd, stopCmd, waitCmd, removeCmd, listCmd)
}
