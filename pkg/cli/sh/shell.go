// Package sh provides the ishell backed diagnostic console for framed
// streams.
package sh

import (
	"context"
	"flag"
	"log"
	"sync"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/framed.go/pkg/framed"
	"github.com/robotalks/framed.go/pkg/framed/source"
)

// Shell provides the interactive console.
type Shell struct {
	Interactive bool

	Shell   *ishell.Shell
	Config  framed.Config
	Session *Session
}

// Session is a running source + resynchronizer pipeline.
type Session struct {
	URL    string
	Buffer *framed.Buffer
	Resync *framed.Resynchronizer

	ctx    context.Context
	cancel func()

	lock   sync.Mutex
	recent []framed.Frame
}

const recentFrames = 16

const (
	shellKey       = "$shell"
	detachedPrompt = "[none] > "
)

var (
	// flags

	evalOnly bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&StatsCmd,
		&LastCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// AddCmds is used by other command providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell over a framing convention.
func New(conf framed.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(detachedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps a command func which requires an open session.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(errNotOpen)
			return
		}
		fn(c)
	}
}

// Open attaches to a byte source and starts the framing pipeline.
func (s *Shell) Open(url string) error {
	sess := &Session{URL: url, Buffer: framed.NewBuffer()}
	sess.ctx, sess.cancel = context.WithCancel(context.Background())
	src, err := source.Open(url, sess.Buffer)
	if err != nil {
		sess.cancel()
		return err
	}
	sess.Resync = framed.NewResynchronizer(s.Config, sess.Buffer)
	sess.Resync.Handler = framed.HandleFrameFunc(sess.keepRecent)
	if s.Session != nil {
		s.Close()
	}
	s.Session = sess
	go src.Run(sess.ctx)
	go sess.Resync.Run(sess.ctx)
	s.Shell.SetPrompt(url + " > ")
	return nil
}

// Close stops the current session.
func (s *Shell) Close() {
	if s.Session != nil {
		s.Session.cancel()
		s.Session = nil
		s.Shell.SetPrompt(detachedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func (sess *Session) keepRecent(_ context.Context, f framed.Frame) {
	sess.lock.Lock()
	if sess.recent = append(sess.recent, f); len(sess.recent) > recentFrames {
		sess.recent = sess.recent[1:]
	}
	sess.lock.Unlock()
}

// Recent returns up to n most recent frames, oldest first.
func (sess *Session) Recent(n int) []framed.Frame {
	sess.lock.Lock()
	defer sess.lock.Unlock()
	if n <= 0 || n > len(sess.recent) {
		n = len(sess.recent)
	}
	out := make([]framed.Frame, n)
	copy(out, sess.recent[len(sess.recent)-n:])
	return out
}
