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
	"time"

	"github.com/hitzhangjie/gothread/cmd/shell"
	"github.com/spf13/cobra"
)

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "交互式管理线程与信号",
	Long:  `交互式管理线程与信号：创建、启动、停止、等待线程，屏蔽、发送信号，安装信号处理函数.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		shell.Threads.SetLogger(Logger)
		shell.NewSession().AtExit(func() {
			shell.Threads.StopAll(time.Second)
		}).Start()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
