package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	cmdGroupAnnotation = "cmd_group_annotation"

	cmdGroupThreads = "1-threads"
	cmdGroupSignals = "2-signals"
	cmdGroupInfo    = "3-info"
	cmdGroupOthers  = "4-other"

	cmdGroupDelimiter = "-"

	prefix    = "gothread> "
	descShort = "gothread interactive commands"
)

var shellRootCmd = &cobra.Command{
	Use:           "help [command]",
	Short:         descShort,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	CurrentSession *Session
)

// Session 交互式会话
type Session struct {
	done   chan bool
	prefix string
	root   *cobra.Command
	liner  *liner.State
	last   string

	defers []func()
}

// NewSession 创建一个交互式会话，并设置为CurrentSession
func NewSession() *Session {

	fn := func(cmd *cobra.Command, args []string) {
		// 描述信息
		fmt.Println(cmd.Short)
		fmt.Println()

		// 使用信息
		fmt.Println(cmd.Use)
		fmt.Println(cmd.Flags().FlagUsages())

		// 命令分组
		usage := helpMessageByGroups(cmd)
		fmt.Println(usage)
	}
	shellRootCmd.SetHelpFunc(fn)

	CurrentSession = &Session{
		done:   make(chan bool),
		prefix: prefix,
		root:   shellRootCmd,
		liner:  liner.NewLiner(),
		last:   "",
	}
	return CurrentSession
}

func (s *Session) Start() {
	s.liner.SetCompleter(completer)
	s.liner.SetTabCompletionStyle(liner.TabPrints)
	s.liner.SetCtrlCAborts(true)

	defer func() {
		s.liner.Close()
		for idx := len(s.defers) - 1; idx >= 0; idx-- {
			s.defers[idx]()
		}
	}()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		txt, err := s.liner.Prompt(s.prefix)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			fmt.Printf("read input error: %v\n", err)
			return
		}

		txt = strings.TrimSpace(txt)
		if len(txt) != 0 {
			s.last = txt
			s.liner.AppendHistory(txt)
		} else {
			txt = s.last
		}
		if len(txt) == 0 {
			continue
		}

		if err := s.Exec(strings.Fields(txt)...); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

// Exec runs one shell command line, already split into words.
func (s *Session) Exec(args ...string) error {
	s.root.SetArgs(args)
	return s.root.Execute()
}

func (s *Session) AtExit(fn func()) *Session {
	s.defers = append(s.defers, fn)
	return s
}

func (s *Session) Stop() {
	close(s.done)
}

// completer 补全命令名及其别名，结果去重并排序
func completer(line string) []string {
	var words []string
	for _, c := range shellRootCmd.Commands() {
		if c.Hidden {
			continue
		}
		for _, w := range append([]string{c.Name()}, c.Aliases...) {
			if strings.HasPrefix(w, line) {
				words = append(words, w)
			}
		}
	}
	slices.Sort(words)
	return slices.Compact(words)
}

// helpMessageByGroups 按cmdGroupAnnotation分组列出命令，组名前缀决定组的顺序，
// 未标注分组的命令（如cobra自带的completion）归入other组
func helpMessageByGroups(cmd *cobra.Command) string {
	groups := map[string][]*cobra.Command{}
	for _, c := range cmd.Commands() {
		if c.Hidden {
			continue
		}
		g, ok := c.Annotations[cmdGroupAnnotation]
		if !ok {
			g = cmdGroupOthers
		}
		groups[g] = append(groups[g], c)
	}

	names := maps.Keys(groups)
	slices.Sort(names)

	buf := &strings.Builder{}
	for _, g := range names {
		_, title, _ := strings.Cut(g, cmdGroupDelimiter)
		fmt.Fprintf(buf, "- [%s]\n", title)

		cmds := groups[g]
		slices.SortFunc(cmds, func(a, b *cobra.Command) int {
			return strings.Compare(a.Name(), b.Name())
		})

		w := tabwriter.NewWriter(buf, 0, 8, 2, ' ', 0)
		for _, c := range cmds {
			name := c.Name()
			if len(c.Aliases) != 0 {
				name += " (" + strings.Join(c.Aliases, ", ") + ")"
			}
			fmt.Fprintf(w, "  %s\t%s\n", name, c.Short)
		}
		w.Flush()
		buf.WriteString("\n")
	}
	return buf.String()
}
