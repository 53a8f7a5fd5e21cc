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

package fixml

import (
	"testing"
	"time"

	"github.com/aou-systems/umpfd/internal/message"
)

// TestRoundtrip_AllKinds exercises Serialize followed by ParseDocument
// for every (Kind, Direction) pair the wire protocol carries, checking
// that the fields a peer would act on survive the trip unchanged.
func TestRoundtrip_AllKinds(t *testing.T) {
	stamp := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	bizDt := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   *message.Message
		// skipKindCheck marks the (kind, direction) pairs that
		// deliberately share an undifferentiated wire shape with
		// their sibling (ReqForPoss/ReqForPossAck for GET_PF/SET_PF,
		// SecDefReq/SecDef/SecDefUpd for the *_SEC family): the
		// parser always labels what it decodes from the peer's
		// perspective as a request, per doc.go.
		skipKindCheck bool
	}{
		{name: "new-pf", in: &message.Message{Kind: message.KindNewPF, Dir: message.Request, Mnemonic: "acct1", Descr: []byte("desc")}},
		{name: "get-descr-request", in: &message.Message{Kind: message.KindGetDescr, Dir: message.Request, Mnemonic: "acct1"}},
		{name: "get-descr-reply", in: &message.Message{Kind: message.KindGetDescr, Dir: message.Reply, Mnemonic: "acct1", Descr: []byte("desc")}},
		{name: "lst-pf-request", in: &message.Message{Kind: message.KindLstPF, Dir: message.Request}},
		{name: "lst-pf-reply", in: &message.Message{Kind: message.KindLstPF, Dir: message.Reply, Mnemonics: []string{"acct1", "acct2"}}},
		{name: "get-pf-request", in: &message.Message{Kind: message.KindGetPF, Dir: message.Request, Mnemonic: "acct1", BizDt: bizDt}, skipKindCheck: true},
		{name: "get-pf-reply", in: &message.Message{Kind: message.KindGetPF, Dir: message.Reply, Mnemonic: "acct1", Stamp: stamp,
			Positions: []message.Position{{Symbol: "ABC", Long: 10, Short: 0}}}, skipKindCheck: true},
		{name: "set-pf-request", in: &message.Message{Kind: message.KindSetPF, Dir: message.Request, Mnemonic: "acct1",
			Positions: []message.Position{{Symbol: "ABC", Long: 10, Short: 0}, {Symbol: "DEF", Long: 0, Short: 5}}}, skipKindCheck: true},
		{name: "set-pf-reply", in: &message.Message{Kind: message.KindSetPF, Dir: message.Reply, Mnemonic: "acct1", BizDt: bizDt}, skipKindCheck: true},
		{name: "patch-request", in: &message.Message{Kind: message.KindPatch, Dir: message.Request, Mnemonic: "acct1",
			Patch: []message.PatchEntry{{Symbol: "ABC", Side: message.SideOpenLong, Qty: 3}}}},
		{name: "patch-reply", in: &message.Message{Kind: message.KindPatch, Dir: message.Reply, Mnemonic: "acct1",
			Positions: []message.Position{{Symbol: "ABC", Long: 13, Short: 0}}}},
		{name: "new-sec", in: &message.Message{Kind: message.KindNewSec, Dir: message.Request, Symbol: "XYZ", Descr: []byte("a security")}},
		{name: "set-sec-request", in: &message.Message{Kind: message.KindSetSec, Dir: message.Request, Symbol: "XYZ", Descr: []byte("updated")}, skipKindCheck: true},
		{name: "set-sec-reply", in: &message.Message{Kind: message.KindSetSec, Dir: message.Reply, Symbol: "XYZ"}, skipKindCheck: true},
		{name: "get-sec-request", in: &message.Message{Kind: message.KindGetSec, Dir: message.Request, Symbol: "XYZ"}, skipKindCheck: true},
		{name: "get-sec-reply", in: &message.Message{Kind: message.KindGetSec, Dir: message.Reply, Symbol: "XYZ", Descr: []byte("a security")}, skipKindCheck: true},
		{name: "lst-tag-request", in: &message.Message{Kind: message.KindLstTag, Dir: message.Request, Mnemonic: "acct1"}},
		{name: "lst-tag-reply", in: &message.Message{Kind: message.KindLstTag, Dir: message.Reply, Mnemonic: "acct1",
			Tags: []message.TagRef{{ID: 1, Stamp: stamp}, {ID: 2}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := Serialize(tc.in)
			out, err := ParseDocument(doc)
			if err != nil {
				t.Fatalf("ParseDocument(%s): %v\n%s", tc.name, err, doc)
			}

			if !tc.skipKindCheck && out.Kind != tc.in.Kind {
				t.Errorf("Kind = %v, want %v", out.Kind, tc.in.Kind)
			}
			if out.Mnemonic != tc.in.Mnemonic {
				t.Errorf("Mnemonic = %q, want %q", out.Mnemonic, tc.in.Mnemonic)
			}
			if out.Symbol != tc.in.Symbol {
				t.Errorf("Symbol = %q, want %q", out.Symbol, tc.in.Symbol)
			}
			if string(out.Descr) != string(tc.in.Descr) {
				t.Errorf("Descr = %q, want %q", out.Descr, tc.in.Descr)
			}
			if len(out.Positions) != len(tc.in.Positions) {
				t.Errorf("Positions = %v, want %v", out.Positions, tc.in.Positions)
			}
		})
	}
}

// TestSerialize_SingleByteFeedMatchesWholeBuffer checks that a
// serialized document, fed to a streaming Parser one byte at a time,
// produces exactly the message a single ParseDocument call would.
func TestSerialize_SingleByteFeedMatchesWholeBuffer(t *testing.T) {
	in := &message.Message{
		Kind: message.KindSetPF, Dir: message.Request, Mnemonic: "acct1",
		Positions: []message.Position{{Symbol: "ABC", Long: 10, Short: 0}},
	}
	doc := Serialize(in)

	want, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	p := NewParser()
	var got *message.Message
	for i := range doc {
		msg, status, err := p.Feed(doc[i : i+1])
		if err != nil {
			t.Fatalf("Feed: %v", err)
		}
		if status == StatusReady {
			got = msg
		}
	}
	if got == nil {
		t.Fatal("streaming parse never completed")
	}
	if got.Kind != want.Kind || len(got.Positions) != len(want.Positions) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
