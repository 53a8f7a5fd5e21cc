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

	"github.com/aou-systems/umpfd/internal/message"
)

func TestParseDocument_NewPF(t *testing.T) {
	doc := []byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0">
  <RgstInstrctns TransTyp="0">
    <Pty ID="acct1">a test portfolio</Pty>
  </RgstInstrctns>
</FIXML>`)

	msg, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if msg.Kind != message.KindNewPF {
		t.Fatalf("Kind = %v, want KindNewPF", msg.Kind)
	}
	if msg.Mnemonic != "acct1" {
		t.Fatalf("Mnemonic = %q, want acct1", msg.Mnemonic)
	}
	if string(msg.Descr) != "a test portfolio" {
		t.Fatalf("Descr = %q", msg.Descr)
	}
}

func TestParseDocument_GetDescrReply(t *testing.T) {
	doc := []byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0">
  <RgstInstrctnsRsp ID="acct1" RegStat="A" TransTyp="1">a test portfolio</RgstInstrctnsRsp>
</FIXML>`)

	msg, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if msg.Kind != message.KindGetDescr || !msg.IsReply() {
		t.Fatalf("Kind/Dir = %v/%v, want GetDescr/Reply", msg.Kind, msg.Dir)
	}
	if string(msg.Descr) != "a test portfolio" {
		t.Fatalf("Descr = %q", msg.Descr)
	}
}

func TestParseDocument_ListPortfoliosReply(t *testing.T) {
	doc := []byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0">
  <RgstInstrctnsRsp RegStat="R" TransTyp="1">
    <Pty ID="acct1"/>
    <Pty ID="acct2"/>
  </RgstInstrctnsRsp>
</FIXML>`)

	msg, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if msg.Kind != message.KindLstPF || !msg.IsReply() {
		t.Fatalf("Kind/Dir = %v/%v, want LstPF/Reply", msg.Kind, msg.Dir)
	}
	if len(msg.Mnemonics) != 2 || msg.Mnemonics[0] != "acct1" || msg.Mnemonics[1] != "acct2" {
		t.Fatalf("Mnemonics = %v", msg.Mnemonics)
	}
}

func TestParseDocument_GetPFRequest(t *testing.T) {
	doc := []byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0">
  <ReqForPoss ID="acct1" BizDt="2026-07-01"/>
</FIXML>`)

	msg, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if msg.Kind != message.KindGetPF || !msg.IsRequest() {
		t.Fatalf("Kind/Dir = %v/%v, want GetPF/Request", msg.Kind, msg.Dir)
	}
	if msg.BizDt.Format("2006-01-02") != "2026-07-01" {
		t.Fatalf("BizDt = %v", msg.BizDt)
	}
}

func TestParseDocument_SetPFRequest(t *testing.T) {
	doc := []byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0">
  <ReqForPossAck ID="acct1" TotRpts="2">
    <PosRpt>
      <Instrmt Sym="ABC"/>
      <Qty Long="10.000000" Short="0.000000"/>
    </PosRpt>
    <PosRpt>
      <Instrmt Sym="DEF"/>
      <Qty Long="0.000000" Short="5.000000"/>
    </PosRpt>
  </ReqForPossAck>
</FIXML>`)

	msg, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if msg.Kind != message.KindSetPF || !msg.IsRequest() {
		t.Fatalf("Kind/Dir = %v/%v, want SetPF/Request", msg.Kind, msg.Dir)
	}
	if len(msg.Positions) != 2 {
		t.Fatalf("Positions = %v", msg.Positions)
	}
	if msg.Positions[0].Symbol != "ABC" || msg.Positions[0].Long != 10 {
		t.Fatalf("Positions[0] = %+v", msg.Positions[0])
	}
	if msg.Positions[1].Symbol != "DEF" || msg.Positions[1].Short != 5 {
		t.Fatalf("Positions[1] = %+v", msg.Positions[1])
	}
}

func TestParseDocument_PatchRequest(t *testing.T) {
	doc := []byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0">
  <ReqForPossAck ID="acct1" ReqTyp="6" TotRpts="1">
    <PosRpt>
      <Instrmt Sym="ABC"/>
      <Qty Typ="OPEN_LONG" Long="3.000000" Short="0.000000"/>
    </PosRpt>
  </ReqForPossAck>
</FIXML>`)

	msg, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if msg.Kind != message.KindPatch || !msg.IsRequest() {
		t.Fatalf("Kind/Dir = %v/%v, want Patch/Request", msg.Kind, msg.Dir)
	}
	if len(msg.Patch) != 1 {
		t.Fatalf("Patch = %v", msg.Patch)
	}
	if msg.Patch[0].Symbol != "ABC" || msg.Patch[0].Side != message.SideOpenLong || msg.Patch[0].Qty != 3 {
		t.Fatalf("Patch[0] = %+v", msg.Patch[0])
	}
}

func TestParseDocument_SecDefVariants(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind message.Kind
		dir  message.Direction
	}{
		{"get-sec-request", `<SecDefReq Sym="XYZ"/>`, message.KindGetSec, message.Request},
		{"new-sec", `<SecDef Sym="XYZ"><SecXML>a security</SecXML></SecDef>`, message.KindNewSec, message.Request},
		{"set-sec-request", `<SecDefUpd Sym="XYZ"><SecXML>a security</SecXML></SecDefUpd>`, message.KindSetSec, message.Request},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := []byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0">` + tc.doc + `</FIXML>`)
			msg, err := ParseDocument(doc)
			if err != nil {
				t.Fatalf("ParseDocument: %v", err)
			}
			if msg.Kind != tc.kind {
				t.Fatalf("Kind = %v, want %v", msg.Kind, tc.kind)
			}
			if msg.Symbol != "XYZ" {
				t.Fatalf("Symbol = %q", msg.Symbol)
			}
		})
	}
}

// TestParseDocument_SetSecReplySharesGetSecRequestShape exercises the
// actual SET_SEC reply path end to end: Serialize renders it as a bare
// SecDefReq, the same element a GET_SEC request uses, so parsing it
// back necessarily yields KindGetSec/Request rather than the original
// KindSetSec/Reply — the same shared-shape asymmetry GET_PF/SET_PF
// already rely on elsewhere in this protocol.
func TestParseDocument_SetSecReplySharesGetSecRequestShape(t *testing.T) {
	reply := &message.Message{Kind: message.KindSetSec, Dir: message.Reply, Symbol: "XYZ"}
	doc := Serialize(reply)

	msg, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument: %v\n%s", err, doc)
	}
	if msg.Kind != message.KindGetSec || !msg.IsRequest() {
		t.Fatalf("Kind/Dir = %v/%v, want GetSec/Request", msg.Kind, msg.Dir)
	}
	if msg.Symbol != "XYZ" {
		t.Fatalf("Symbol = %q, want XYZ", msg.Symbol)
	}
}

func TestParseDocument_ListTagsReply(t *testing.T) {
	doc := []byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0">
  <ApplMsgReqAck>
    <Sub ID="1" QtyDt="2026-07-01T00:00:00Z"/>
    <Sub ID="2" QtyDt="2026-07-02T00:00:00Z"/>
  </ApplMsgReqAck>
</FIXML>`)

	msg, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if msg.Kind != message.KindLstTag || !msg.IsReply() {
		t.Fatalf("Kind/Dir = %v/%v, want LstTag/Reply", msg.Kind, msg.Dir)
	}
	if len(msg.Tags) != 2 || msg.Tags[0].ID != 1 || msg.Tags[1].ID != 2 {
		t.Fatalf("Tags = %+v", msg.Tags)
	}
}

func TestParseDocument_MalformedXML(t *testing.T) {
	_, err := ParseDocument([]byte(`<FIXML><RgstInstrctns></FIXML>`))
	if err == nil {
		t.Fatal("expected error for mismatched tags")
	}
}

func TestParseDocument_WrongRootElement(t *testing.T) {
	_, err := ParseDocument([]byte(`<NotFIXML/>`))
	if err == nil {
		t.Fatal("expected error for non-FIXML root")
	}
}

func TestParseDocument_UnknownNamespace(t *testing.T) {
	_, err := ParseDocument([]byte(`<FIXML xmlns="http://example.com/not-fixml"/>`))
	if err == nil {
		t.Fatal("expected error for unrecognized namespace")
	}
}

// TestParser_StreamingEquivalence feeds a document one byte at a time
// and checks the result matches a single whole-buffer parse, satisfying
// the streaming-equivalence property.
func TestParser_StreamingEquivalence(t *testing.T) {
	doc := []byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0">
  <ReqForPoss ID="acct1" BizDt="2026-07-01"/>
</FIXML>`)

	want, err := ParseDocument(doc)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	p := NewParser()
	var got *message.Message
	for i := 0; i < len(doc); i++ {
		msg, status, err := p.Feed(doc[i : i+1])
		if err != nil {
			t.Fatalf("Feed at byte %d: %v", i, err)
		}
		if status == StatusReady {
			got = msg
			if i != len(doc)-1 {
				t.Fatalf("StatusReady at byte %d, document has %d bytes", i, len(doc))
			}
		}
	}
	if got == nil {
		t.Fatal("streaming parse never reached StatusReady")
	}
	if got.Kind != want.Kind || got.Mnemonic != want.Mnemonic {
		t.Fatalf("streaming result %+v != whole-buffer result %+v", got, want)
	}
}

// TestParser_FeedAcrossArbitraryChunks checks that resumability also
// holds for multi-byte chunk boundaries that land mid-attribute and
// mid-element.
func TestParser_FeedAcrossArbitraryChunks(t *testing.T) {
	doc := []byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0"><ReqForPoss ID="acct1"/></FIXML>`)
	chunks := [][]byte{doc[:10], doc[10:30], doc[30:55], doc[55:]}

	p := NewParser()
	var got *message.Message
	for _, c := range chunks {
		msg, status, err := p.Feed(c)
		if err != nil {
			t.Fatalf("Feed: %v", err)
		}
		if status == StatusReady {
			got = msg
		}
	}
	if got == nil {
		t.Fatal("never reached StatusReady")
	}
	if got.Kind != message.KindGetPF || got.Mnemonic != "acct1" {
		t.Fatalf("got = %+v", got)
	}
}

func TestParser_ResetDiscardsPartialDocument(t *testing.T) {
	p := NewParser()
	_, status, err := p.Feed([]byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0"><ReqForPoss`))
	if err != nil || status != StatusNeedMore {
		t.Fatalf("Feed = %v, %v, want StatusNeedMore, nil", status, err)
	}
	p.Reset()
	_, status, err = p.Feed([]byte(`<FIXML xmlns="http://www.fixprotocol.org/FIXML-5-0"><ReqForPoss ID="x"/></FIXML>`))
	if err != nil || status != StatusReady {
		t.Fatalf("Feed after Reset = %v, %v, want StatusReady, nil", status, err)
	}
}
