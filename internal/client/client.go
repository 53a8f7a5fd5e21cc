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

// Package client implements the umpf CLI's transport and
// pretty-printing: dialing the daemon, sending one FIXML request,
// reading back exactly one reply, and rendering it in the compact
// `:key value` format the command line tool prints.
package client

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/aou-systems/umpfd/internal/fixml"
	"github.com/aou-systems/umpfd/internal/message"
)

// DefaultPort is the client's documented default TCP port.
const DefaultPort = 8675

// replyTimeout is the four-second "no data at all" deadline spec.md
// §7 names for a failed server reply.
const replyTimeout = 4 * time.Second

// Dial connects to host, which may be "HOST" or "HOST:PORT"; a
// missing port defaults to DefaultPort.
func Dial(host string) (net.Conn, error) {
	addr := host
	if !strings.Contains(host, ":") {
		addr = fmt.Sprintf("%s:%d", host, DefaultPort)
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to host %s: %w", host, err)
	}
	return conn, nil
}

// Send writes req and blocks for exactly one reply document, or
// returns an error after replyTimeout elapses with no data at all.
func Send(conn net.Conn, req *message.Message) (*message.Message, error) {
	if _, err := conn.Write(fixml.Serialize(req)); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(replyTimeout))
	parser := fixml.NewParser()
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("read reply: %w", err)
		}
		msg, status, err := parser.Feed(buf[:n])
		switch status {
		case fixml.StatusFatal:
			return nil, fmt.Errorf("malformed reply: %w", err)
		case fixml.StatusNeedMore:
			continue
		}
		return msg, nil
	}
}

// formatStamp renders t the way the pretty-printer does: zero or
// negative instants collapse to the single character "0".
func formatStamp(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return "0"
	}
	return t.UTC().Format("2006-01-02T15:04:05-0700")
}

func formatDate(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return "0"
	}
	return t.UTC().Format("2006-01-02")
}

// PrettyPrint renders a reply Message in the compact
// `:portfolio "NAME" :stamp … :clear …\nSYMBOL\tLONG\tSHORT\n…` format
// spec.md §7 describes.
func PrettyPrint(m *message.Message) string {
	var b strings.Builder

	switch m.Kind {
	case message.KindNewPF, message.KindGetDescr:
		fmt.Fprintf(&b, ":portfolio %q\n", m.Mnemonic)
		if len(m.Descr) > 0 {
			b.Write(m.Descr)
			b.WriteByte('\n')
		}

	case message.KindLstPF:
		for _, mnemonic := range m.Mnemonics {
			fmt.Fprintf(&b, ":portfolio %q\n", mnemonic)
		}

	case message.KindGetPF, message.KindSetPF, message.KindPatch:
		fmt.Fprintf(&b, ":portfolio %q :stamp %s :clear %s\n",
			m.Mnemonic, formatStamp(m.Stamp), formatDate(m.BizDt))
		for _, pos := range m.Positions {
			fmt.Fprintf(&b, "%s\t%s\t%s\n", pos.Symbol, formatQty(pos.Long), formatQty(pos.Short))
		}

	case message.KindNewSec, message.KindSetSec, message.KindGetSec:
		fmt.Fprintf(&b, ":security %q :portfolio %q\n", m.Symbol, m.Mnemonic)
		if len(m.Descr) > 0 {
			b.Write(m.Descr)
			b.WriteByte('\n')
		}

	case message.KindLstTag:
		fmt.Fprintf(&b, ":portfolio %q\n", m.Mnemonic)
		for _, tag := range m.Tags {
			fmt.Fprintf(&b, "%d\t%s\n", tag.ID, formatStamp(tag.Stamp))
		}

	default:
		b.WriteString(":unk\n")
	}

	return b.String()
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ParseDate accepts the three forms spec.md §6 documents for a -d DATE
// flag: a bare date, a full RFC3339-ish timestamp with a numeric zone,
// or a decimal Unix epoch.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		whole := int64(sec)
		frac := sec - float64(whole)
		return time.Unix(whole, int64(frac*1e9)).UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05-0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", s)
}

// ParsePositions reads tab-separated "symbol\tlong\tshort" lines, the
// format both umpf's -f FILE flag and umpp's meld command consume.
func ParsePositions(r io.Reader) ([]message.Position, error) {
	var positions []message.Position
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed position line %q: want symbol\\tlong\\tshort", line)
		}
		long, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed long quantity %q: %w", fields[1], err)
		}
		short, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed short quantity %q: %w", fields[2], err)
		}
		positions = append(positions, message.Position{Symbol: fields[0], Long: long, Short: short})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return positions, nil
}
