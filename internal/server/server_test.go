/**
 * Copyright 2026 aou-systems
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aou-systems/umpfd/internal/dispatch"
	"github.com/aou-systems/umpfd/internal/fixml"
	"github.com/aou-systems/umpfd/internal/message"
	"github.com/aou-systems/umpfd/internal/store"
)

func startServer(t *testing.T, cfg Config) (*Server, chan struct{}) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server_test.db")
	s, err := store.Open("", "", "", path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	srv := New(cfg, dispatch.New(s))
	stop := make(chan struct{})
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(stop) }()
	t.Cleanup(func() {
		close(stop)
		require.NoError(t, <-errc)
	})
	return srv, stop
}

// freeTCPAddr finds an ephemeral port, closes the probe listener, and
// hands back its address for the real server to bind.
func freeTCPAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func roundTrip(t *testing.T, conn net.Conn, req *message.Message) *message.Message {
	t.Helper()
	_, err := conn.Write(fixml.Serialize(req))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	parser := fixml.NewParser()
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		msg, status, err := parser.Feed(buf[:n])
		if status == fixml.StatusFatal {
			t.Fatalf("parse error: %v", err)
		}
		if status == fixml.StatusNeedMore {
			continue
		}
		return msg
	}
}

func TestTCPRoundTrip(t *testing.T) {
	addr := freeTCPAddr(t)
	startServer(t, Config{TCPAddr: addr})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	req := message.NewRequest(message.KindNewPF)
	req.Mnemonic = "Acme"
	req.Descr = []byte("desc")

	reply := roundTrip(t, conn, req)
	require.True(t, reply.IsReply())
	require.Equal(t, "Acme", reply.Mnemonic)
}

func TestUnixSocketRoundTrip(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "umpfd.sock")
	startServer(t, Config{UnixSocket: sock})

	// The listener is created inside Run, which startServer launches
	// in a goroutine; give it a moment to bind before dialing.
	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("unix", sock)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	req := message.NewRequest(message.KindNewPF)
	req.Mnemonic = "Acme"
	req.Descr = []byte("desc")

	reply := roundTrip(t, conn, req)
	require.True(t, reply.IsReply())
	require.Equal(t, "Acme", reply.Mnemonic)
}

// TestConnectionOrderingPreserved sends several requests on one
// connection back to back and checks the replies come back in the
// same order, which must hold since handleConn waits for each reply
// before reading the next request.
func TestConnectionOrderingPreserved(t *testing.T) {
	addr := freeTCPAddr(t)
	startServer(t, Config{TCPAddr: addr})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 5; i++ {
		req := message.NewRequest(message.KindNewPF)
		req.Mnemonic = fmt.Sprintf("PF%d", i)
		req.Descr = []byte(fmt.Sprintf("desc%d", i))

		reply := roundTrip(t, conn, req)
		require.Equal(t, fmt.Sprintf("PF%d", i), reply.Mnemonic)
	}
}
