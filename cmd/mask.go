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
	"syscall"
	"time"

	"github.com/hitzhangjie/gothread/pkg/signals"
	"github.com/hitzhangjie/gothread/pkg/sigutil"
	"github.com/hitzhangjie/gothread/pkg/thread"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// maskCmd represents the mask command
var maskCmd = &cobra.Command{
	Use:   "mask",
	Short: "show that a blocked signal stays pending until the thread unblocks it",
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := sigutil.Parse(viper.GetString("mask.signal"))
		if err != nil {
			return err
		}
		hold := viper.GetDuration("mask.hold")
		name := sigutil.Name(sig)

		begin := time.Now()
		logf := func(format string, args ...any) {
			fmt.Printf("%10s  %s\n", time.Since(begin).Round(time.Microsecond), fmt.Sprintf(format, args...))
		}

		handled := make(chan struct{}, 1)
		err = signals.Default.SetHandler(sig, signals.HandlerFunc(func(syscall.Signal) {
			select {
			case handled <- struct{}{}:
			default:
			}
		}))
		if err != nil {
			return err
		}
		logf("handler installed for %s", name)

		blocked := make(chan error, 1)
		unblocked := make(chan error, 1)
		release := make(chan struct{})

		var th *thread.Thread
		th = thread.New(thread.RunnerFunc(func(ctx context.Context) {
			blocked <- th.BlockSignal(sig)
			select {
			case <-release:
			case <-ctx.Done():
				return
			}
			unblocked <- th.UnblockSignal(sig)
			<-ctx.Done()
		}), thread.WithName("masked"), thread.WithLogger(Logger))

		if err := th.Start(); err != nil {
			return err
		}
		defer func() {
			th.Stop()
			th.Wait()
		}()

		if err := <-blocked; err != nil {
			return err
		}
		logf("%s (tid %d) blocked %s", th, th.Tid(), name)

		if err := th.SendSignal(sig); err != nil {
			return err
		}
		logf("sent %s to tid %d", name, th.Tid())

		if st, err := th.State(); err == nil {
			logf("kernel: state=%s blocked=%v pending=%v", st.State, st.Blocked(sig), st.Pending(sig))
		}

		select {
		case <-handled:
			return errors.New("handler ran while the signal was blocked")
		case <-time.After(hold):
			logf("no delivery after %s", hold)
		}

		close(release)
		if err := <-unblocked; err != nil {
			return err
		}
		logf("unblocked %s", name)

		select {
		case <-handled:
			logf("handler ran for %s", name)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("%s not delivered after unblock", name)
		}
		return nil
	},
}

func init() {
	maskCmd.Flags().String("signal", "SIGUSR1", "signal to block, send and unblock")
	maskCmd.Flags().Duration("hold", 200*time.Millisecond, "how long the signal stays blocked after it was sent")
	viper.BindPFlag("mask.signal", maskCmd.Flags().Lookup("signal"))
	viper.BindPFlag("mask.hold", maskCmd.Flags().Lookup("hold"))

	rootCmd.AddCommand(maskCmd)
}
