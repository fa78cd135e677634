package shell

import (
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/hitzhangjie/gothread/pkg/signals"
	"github.com/hitzhangjie/gothread/pkg/sigutil"
	"github.com/hitzhangjie/gothread/pkg/thread"
	"github.com/spf13/cobra"
)

// threadSignalArgs parses "<id> <sig>".
func threadSignalArgs(args []string) (*thread.Executor, syscall.Signal, error) {
	e, err := Threads.Lookup(args[0])
	if err != nil {
		return nil, 0, err
	}
	sig, err := sigutil.Parse(args[1])
	if err != nil {
		return nil, 0, err
	}
	return e, sig, nil
}

// maskNames lists the names of the signals set in a /proc mask.
func maskNames(mask uint64) string {
	var names []string
	for sig := syscall.Signal(1); sig <= sigutil.MaxSignal; sig++ {
		if sigutil.MaskHas(mask, sig) {
			names = append(names, sigutil.Name(sig))
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

var killCmd = &cobra.Command{
	Use:   "kill <id> <sig>",
	Short: "向线程发送信号",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSignals,
	},
	Aliases: []string{"send"},
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, sig, err := threadSignalArgs(args)
		if err != nil {
			return err
		}
		if err = e.SendSignal(sig); err != nil {
			return err
		}
		fmt.Printf("%s sent to thread[%d], tid: %d\n", sigutil.Name(sig), e.ID(), e.Tid())
		return nil
	},
}

var blockCmd = &cobra.Command{
	Use:   "block <id> <sig>",
	Short: "在线程上屏蔽信号",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSignals,
	},
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, sig, err := threadSignalArgs(args)
		if err != nil {
			return err
		}
		// 信号掩码是线程级别的，必须在目标线程上执行
		var maskErr error
		if err = e.Exec(func() { maskErr = e.BlockSignal(sig) }); err != nil {
			return err
		}
		if maskErr != nil {
			return maskErr
		}
		fmt.Printf("%s blocked on thread[%d]\n", sigutil.Name(sig), e.ID())
		return nil
	},
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <id> <sig>",
	Short: "在线程上解除信号屏蔽",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSignals,
	},
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, sig, err := threadSignalArgs(args)
		if err != nil {
			return err
		}
		var maskErr error
		if err = e.Exec(func() { maskErr = e.UnblockSignal(sig) }); err != nil {
			return err
		}
		if maskErr != nil {
			return maskErr
		}
		fmt.Printf("%s unblocked on thread[%d]\n", sigutil.Name(sig), e.ID())
		return nil
	},
}

var handleCmd = &cobra.Command{
	Use:   "handle <sig>",
	Short: "安装信号处理函数(进程级别)",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSignals,
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := sigutil.Parse(args[0])
		if err != nil {
			return err
		}
		err = signals.SetHandler(sig, signals.HandlerFunc(func(s syscall.Signal) {
			fmt.Printf("\nreceived %s\n", sigutil.Name(s))
		}))
		if err != nil {
			return err
		}
		fmt.Printf("handler installed for %s\n", sigutil.Name(sig))
		return nil
	},
}

var ignoreCmd = &cobra.Command{
	Use:   "ignore <sig>",
	Short: "忽略信号(进程级别)",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSignals,
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := sigutil.Parse(args[0])
		if err != nil {
			return err
		}
		return signals.Ignore(sig)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <sig>",
	Short: "恢复信号的默认处理方式(进程级别)",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSignals,
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := sigutil.Parse(args[0])
		if err != nil {
			return err
		}
		return signals.ResetHandler(sig)
	},
}

var handlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "列出已安装的信号处理函数",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintf(w, "SIGNAL\tNUM\tDELIVERED\n")
		for _, sig := range signals.Signals() {
			fmt.Fprintf(w, "%s\t%d\t%d\n", sigutil.Name(sig), int(sig), signals.Default.Delivered(sig))
		}
		return w.Flush()
	},
}

var stateCmd = &cobra.Command{
	Use:   "state <id>",
	Short: "查看线程的内核状态、CPU时间与信号掩码",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := Threads.Lookup(args[0])
		if err != nil {
			return err
		}
		st, err := e.State()
		if err != nil {
			return err
		}
		fmt.Printf("thread[%d] tid: %d, state: %s\n", e.ID(), st.Tid, st.State)
		if cpu, err := e.CPUTime(); err == nil {
			fmt.Printf("  cputime: %s\n", cpu)
		}
		fmt.Printf("  blocked: %s\n", maskNames(st.SigBlk))
		fmt.Printf("  pending: %s\n", maskNames(st.SigPnd))
		return nil
	},
}

func init() {
	shellRootCmd.AddCommand(killCmd, blockCmd, unblockCmd, handleCmd, ignoreCmd, resetCmd, handlersCmd, stateCmd)
}
