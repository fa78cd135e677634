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
package main

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/hitzhangjie/gothread/cmd"
	"github.com/hitzhangjie/gothread/cmd/shell"
	"github.com/hitzhangjie/gothread/pkg/signals"
)

func main() {
	processSignals()
	cmd.Execute()
}

// processSignals stops every thread started from the shell before the process
// exits on SIGTERM, SIGINT or SIGQUIT.
func processSignals() {
	terminate := signals.HandlerFunc(func(sig syscall.Signal) {
		shell.Threads.StopAll(time.Second)
		os.Exit(128 + int(sig))
	})

	for _, sig := range []syscall.Signal{syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT} {
		if err := signals.SetHandler(sig, terminate); err != nil {
			fmt.Fprintf(os.Stderr, "install handler for %v: %v\n", sig, err)
		}
	}
}
