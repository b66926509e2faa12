package sh

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"
)

var errNotOpen = errors.New("no open session")

var (
	// OpenCmd attaches to a byte source.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "URL (-, file, tcp://, mqtt://, ws://)",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("URL required"))
				return
			}
			s := ShellFrom(c)
			if err := s.Open(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd detaches from the current source.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: MustBeOpen(func(c *ishell.Context) {
			ShellFrom(c).Close()
		}),
	}

	// StatsCmd shows framing counters of the current session.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: MustBeOpen(func(c *ishell.Context) {
			sess := ShellFrom(c).Session
			stats := sess.Resync.Stats()
			c.Printf("source:        %s\n", sess.URL)
			c.Printf("state:         %v\n", sess.Resync.State())
			c.Printf("buffered:      %d bytes\n", sess.Buffer.Len())
			c.Printf("frames:        %d\n", stats.Frames)
			c.Printf("consumed:      %d bytes\n", stats.Bytes)
			c.Printf("discarded:     %d bytes\n", stats.Discarded)
			c.Printf("short windows: %d\n", stats.ShortWindows)
		}),
	}

	// LastCmd dumps the most recent frames.
	LastCmd = ishell.Cmd{
		Name:    "last",
		Aliases: []string{"l"},
		Help:    "[COUNT]",
		Func: MustBeOpen(func(c *ishell.Context) {
			n := 1
			if len(c.Args) > 0 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("invalid COUNT: %v", err))
					return
				}
				n = val
			}
			for _, f := range ShellFrom(c).Session.Recent(n) {
				c.Println(hex.EncodeToString(f))
			}
		}),
	}
)
