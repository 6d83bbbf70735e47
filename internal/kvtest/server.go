// Package kvtest provides an in-memory line-protocol key-value server used as a
// benchmark target in tests and by scripts/testservers/memkv.
package kvtest

import (
	"bufio"
	"errors"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Options tune the server's behaviour for fault injection.
type Options struct {
	// Delay is slept before answering every command.
	Delay time.Duration
	// Override, when it returns ok, replaces the normal reply for a command.
	Override func(command string) (reply string, ok bool)
	// Mute, when it returns true, swallows the command without replying.
	Mute func(command string) bool
}

// Server is a minimal implementation of the string/list command set.
type Server struct {
	opt      Options
	ln       net.Listener
	mu       sync.Mutex
	strings  map[string]string
	lists    map[string][]string
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	commands atomic.Int64
	closed   atomic.Bool
}

// NewServer listens on addr (use "127.0.0.1:0" for an ephemeral port) and
// starts serving in the background.
func NewServer(addr string, opt Options) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		opt:     opt,
		ln:      ln,
		strings: make(map[string]string),
		lists:   make(map[string][]string),
		conns:   make(map[net.Conn]struct{}),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Commands returns how many commands have been received.
func (s *Server) Commands() int64 {
	return s.commands.Load()
}

// Close stops the listener and drops every client connection.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.ln.Close()
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		c, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.serve(c)
	}
}

func (s *Server) serve(c net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		_ = c.Close()
	}()

	scanner := bufio.NewScanner(c)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		s.commands.Add(1)
		if s.opt.Mute != nil && s.opt.Mute(line) {
			continue
		}
		if s.opt.Delay > 0 {
			time.Sleep(s.opt.Delay)
		}
		reply, ok := "", false
		if s.opt.Override != nil {
			reply, ok = s.opt.Override(line)
		}
		if !ok {
			reply = s.Execute(line)
		}
		if _, err := c.Write([]byte(reply + "\n")); err != nil {
			return
		}
	}
}

// Execute runs one command against the store and returns the reply text.
func (s *Server) Execute(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "ERR Empty Command"
	}
	cmd, args := strings.ToUpper(fields[0]), fields[1:]

	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd {
	case "SET":
		if len(args) != 2 {
			return errArity
		}
		s.strings[args[0]] = args[1]
		return "OK"
	case "GET":
		if len(args) != 1 {
			return errArity
		}
		if v, ok := s.strings[args[0]]; ok {
			return v
		}
		return "-1"
	case "APP":
		if len(args) != 2 {
			return errArity
		}
		s.strings[args[0]] += args[1]
		return "OK"
	case "DEL":
		if len(args) != 1 {
			return errArity
		}
		if _, ok := s.strings[args[0]]; ok {
			delete(s.strings, args[0])
			return "1"
		}
		return "0"
	case "KEYS":
		return joinKeys(s.strings)
	case "LSET":
		if len(args) < 2 {
			return errArity
		}
		s.lists[args[0]] = append([]string(nil), args[1:]...)
		return "OK"
	case "LPUSH":
		if len(args) < 2 {
			return errArity
		}
		s.lists[args[0]] = append(s.lists[args[0]], args[1:]...)
		return "OK"
	case "LGET":
		if len(args) != 1 {
			return errArity
		}
		if l, ok := s.lists[args[0]]; ok {
			return strings.Join(l, " ")
		}
		return "-1"
	case "LDEL":
		switch len(args) {
		case 1:
			if _, ok := s.lists[args[0]]; ok {
				delete(s.lists, args[0])
				return "1"
			}
			return "0"
		case 2:
			idx, err := strconv.Atoi(args[1])
			l, ok := s.lists[args[0]]
			if err != nil || !ok || idx < 0 || idx >= len(l) {
				return "0"
			}
			s.lists[args[0]] = append(l[:idx], l[idx+1:]...)
			return "1"
		default:
			return errArity
		}
	case "LKEYS":
		keys := make(map[string]string, len(s.lists))
		for k := range s.lists {
			keys[k] = ""
		}
		return joinKeys(keys)
	case "STORE", "LOAD":
		return "OK"
	default:
		return "ERR Unknown Command"
	}
}

const errArity = "ERR Wrong Number of Arguments"

func joinKeys(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, " ")
}
