/*
Copyright © 2020 hit.zhangjie@gmail.com

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hitzhangjie/gothread/pkg/thread"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/atomic"
)

// counter counts 1ms ticks until it is canceled.
type counter struct {
	ticks atomic.Uint64
}

func (c *counter) Run(ctx context.Context) {
	for {
		if err := thread.Sleep(ctx, time.Millisecond); err != nil {
			return
		}
		c.ticks.Inc()
	}
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run counter threads for a while, then stop and join them",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := viper.GetInt("run.threads")
		d := viper.GetDuration("run.duration")
		if n <= 0 {
			return errors.New("threads must be positive")
		}

		counters := make([]*counter, n)
		threads := make([]*thread.Thread, n)
		for i := range threads {
			counters[i] = &counter{}
			threads[i] = thread.New(counters[i],
				thread.WithName(fmt.Sprintf("counter-%d", i)),
				thread.WithLogger(Logger))
			if err := threads[i].Start(); err != nil {
				return err
			}
		}

		time.Sleep(d)

		// CPU时间只能在线程退出前读取
		cpu := make([]string, n)
		for i, th := range threads {
			cpu[i] = "-"
			if v, err := th.CPUTime(); err == nil {
				cpu[i] = v.String()
			}
			if err := th.Stop(); err != nil {
				return err
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tNAME\tTID\tTICKS\tCPU\n")
		for i, th := range threads {
			if err := th.Wait(); err != nil {
				return err
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", th.ID(), th.Name(), th.Tid(), counters[i].ticks.Load(), cpu[i])
		}
		return w.Flush()
	},
}

func init() {
	runCmd.Flags().Int("threads", 4, "number of threads to run")
	runCmd.Flags().Duration("duration", time.Second, "how long the threads run before they are stopped")
	viper.BindPFlag("run.threads", runCmd.Flags().Lookup("threads"))
	viper.BindPFlag("run.duration", runCmd.Flags().Lookup("duration"))

	rootCmd.AddCommand(runCmd)
}
