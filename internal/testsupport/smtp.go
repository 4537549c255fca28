package testsupport

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
)

// SMTPMessage is one message accepted by SMTPServer.
type SMTPMessage struct {
	From       string
	Recipients []string
	Data       string
}

// SMTPServer is a minimal plaintext SMTP sink for tests.
type SMTPServer struct {
	Host string
	Port int

	listener net.Listener
	mu       sync.Mutex
	messages []SMTPMessage
	wg       sync.WaitGroup
}

// StartSMTPServer listens on a loopback port until the test ends.
func StartSMTPServer(t testing.TB) *SMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen smtp: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	srv := &SMTPServer{Host: "127.0.0.1", Port: addr.Port, listener: ln}
	srv.wg.Add(1)
	go srv.accept()
	t.Cleanup(func() {
		_ = ln.Close()
		srv.wg.Wait()
	})
	return srv
}

// Messages returns the accepted messages.
func (s *SMTPServer) Messages() []SMTPMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SMTPMessage(nil), s.messages...)
}

func (s *SMTPServer) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(conn)
		}()
	}
}

func (s *SMTPServer) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	reply := func(line string) {
		_, _ = w.WriteString(line + "\r\n")
		_ = w.Flush()
	}

	reply("220 localhost ESMTP test")
	var current SMTPMessage
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		verb := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(verb, "EHLO"), strings.HasPrefix(verb, "HELO"):
			reply("250-localhost")
			reply("250 8BITMIME")
		case strings.HasPrefix(verb, "MAIL FROM:"):
			current = SMTPMessage{From: addressOf(line[len("MAIL FROM:"):])}
			reply("250 OK")
		case strings.HasPrefix(verb, "RCPT TO:"):
			current.Recipients = append(current.Recipients, addressOf(line[len("RCPT TO:"):]))
			reply("250 OK")
		case verb == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var body strings.Builder
			for {
				dataLine, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimRight(dataLine, "\r\n") == "." {
					break
				}
				body.WriteString(dataLine)
			}
			current.Data = body.String()
			s.mu.Lock()
			s.messages = append(s.messages, current)
			s.mu.Unlock()
			reply("250 OK queued")
		case verb == "QUIT":
			reply("221 Bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func addressOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, ' '); i >= 0 {
		raw = raw[:i]
	}
	return strings.Trim(raw, "<>")
}
