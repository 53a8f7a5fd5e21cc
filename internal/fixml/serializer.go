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
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/aou-systems/umpfd/internal/dict"
	"github.com/aou-systems/umpfd/internal/message"
)

// xmlnsOut is the namespace URI the serializer always emits on the
// FIXML root element. Per the asymmetry spec.md §9 calls out and
// carries forward by design, a server may have parsed a 4.4 document
// but always replies on 5.0.
const xmlnsOut = dict.NSFixML50

// Serialize renders msg as a single canonical FIXML document, per the
// wire-shape table resolved in doc.go. It never returns an error for a
// well-formed Message; a malformed Message (unknown Kind) produces a
// FIXML root element with no children rather than panicking.
func Serialize(msg *message.Message) []byte {
	var b bytes.Buffer
	w := &writer{buf: &b}

	w.openRoot()
	switch msg.Kind {
	case message.KindNewPF:
		w.registrationInstructions(msg, "0")
	case message.KindGetDescr:
		if msg.IsRequest() {
			w.registrationInstructions(msg, "1")
		} else {
			w.registrationInstructionsRsp(msg, "A", "1")
		}
	case message.KindLstPF:
		if msg.IsRequest() {
			w.registrationInstructions(msg, "1")
		} else {
			w.listPortfoliosReply(msg)
		}
	case message.KindGetPF:
		if msg.IsRequest() {
			w.reqForPoss(msg)
		} else {
			w.reqForPossAck(msg, "")
		}
	case message.KindSetPF:
		if msg.IsRequest() {
			w.reqForPossAck(msg, "")
		} else {
			w.reqForPoss(msg)
		}
	case message.KindPatch:
		if msg.IsRequest() {
			w.patchRequest(msg)
		} else {
			w.reqForPossAck(msg, "6")
		}
	case message.KindNewSec:
		w.secDef(msg)
	case message.KindSetSec:
		if msg.IsRequest() {
			w.secDefUpd(msg)
		} else {
			w.secDefReq(msg)
		}
	case message.KindGetSec:
		if msg.IsRequest() {
			w.secDefReq(msg)
		} else {
			w.secDefUpd(msg)
		}
	case message.KindLstTag:
		if msg.IsRequest() {
			w.applMsgReq(msg)
		} else {
			w.applMsgReqAck(msg)
		}
	}
	w.closeRoot()

	return b.Bytes()
}

type writer struct {
	buf   *bytes.Buffer
	depth int
}

func (w *writer) openRoot() {
	fmt.Fprintf(w.buf, "<FIXML xmlns=%q>\n", xmlnsOut)
	w.depth = 1
}

func (w *writer) closeRoot() {
	w.buf.WriteString("</FIXML>\n")
}

func (w *writer) indent() {
	for i := 0; i < w.depth; i++ {
		w.buf.WriteString("  ")
	}
}

// registrationInstructions emits RgstInstrctns (NEW_PF/SET_DESCR when
// transTyp="0"; GET_DESCR/LST_PF requests when transTyp="1").
func (w *writer) registrationInstructions(msg *message.Message, transTyp string) {
	w.indent()
	fmt.Fprintf(w.buf, "<RgstInstrctns TransTyp=%q>\n", transTyp)
	w.depth++
	if msg.Mnemonic != "" {
		w.indent()
		fmt.Fprintf(w.buf, "<Pty ID=%q", escapeAttr(msg.Mnemonic))
		if len(msg.Descr) > 0 {
			fmt.Fprintf(w.buf, ">%s</Pty>\n", escapeText(msg.Descr))
		} else {
			w.buf.WriteString("/>\n")
		}
	}
	w.depth--
	w.indent()
	w.buf.WriteString("</RgstInstrctns>\n")
}

// registrationInstructionsRsp emits the GET_DESCR reply: description
// as direct CharData inside RgstInstrctnsRsp.
func (w *writer) registrationInstructionsRsp(msg *message.Message, regStat, transTyp string) {
	w.indent()
	fmt.Fprintf(w.buf, "<RgstInstrctnsRsp ID=%q RegStat=%q TransTyp=%q>", escapeAttr(msg.Mnemonic), regStat, transTyp)
	w.buf.WriteString(escapeText(msg.Descr))
	w.buf.WriteString("</RgstInstrctnsRsp>\n")
}

// listPortfoliosReply emits the LST_PF reply: one empty <Pty> per
// portfolio mnemonic, nested in RgstInstrctnsRsp with RegStat="R".
func (w *writer) listPortfoliosReply(msg *message.Message) {
	w.indent()
	w.buf.WriteString(`<RgstInstrctnsRsp RegStat="R" TransTyp="1">` + "\n")
	w.depth++
	for _, mn := range msg.Mnemonics {
		w.indent()
		fmt.Fprintf(w.buf, "<Pty ID=%q/>\n", escapeAttr(mn))
	}
	w.depth--
	w.indent()
	w.buf.WriteString("</RgstInstrctnsRsp>\n")
}

// reqForPoss emits a ReqForPoss: a GET_PF request or a SET_PF reply
// (reply = echo the resolved snapshot).
func (w *writer) reqForPoss(msg *message.Message) {
	w.indent()
	w.buf.WriteString("<ReqForPoss")
	if msg.Mnemonic != "" {
		fmt.Fprintf(w.buf, " ID=%q", escapeAttr(msg.Mnemonic))
	}
	if !msg.BizDt.IsZero() {
		fmt.Fprintf(w.buf, " BizDt=%q", msg.BizDt.Format("2006-01-02"))
	}
	if !msg.Stamp.IsZero() {
		fmt.Fprintf(w.buf, " TxnTm=%q", formatStamp(msg.Stamp))
	}
	w.buf.WriteString("/>\n")
}

// reqForPossAck emits ReqForPossAck/PosRpt: a GET_PF reply, a SET_PF
// request, or (with reqTyp="6") a PATCH reply.
func (w *writer) reqForPossAck(msg *message.Message, reqTyp string) {
	w.indent()
	w.buf.WriteString("<ReqForPossAck")
	if msg.Mnemonic != "" {
		fmt.Fprintf(w.buf, " ID=%q", escapeAttr(msg.Mnemonic))
	}
	if reqTyp != "" {
		fmt.Fprintf(w.buf, " ReqTyp=%q", reqTyp)
	}
	if !msg.BizDt.IsZero() {
		fmt.Fprintf(w.buf, " BizDt=%q", msg.BizDt.Format("2006-01-02"))
	}
	if !msg.Stamp.IsZero() {
		fmt.Fprintf(w.buf, " TxnTm=%q", formatStamp(msg.Stamp))
	}
	if len(msg.Positions) > 0 {
		fmt.Fprintf(w.buf, " TotRpts=%q", strconv.Itoa(len(msg.Positions)))
	}
	if len(msg.Positions) == 0 {
		w.buf.WriteString("/>\n")
		return
	}
	w.buf.WriteString(">\n")
	w.depth++
	for _, pos := range msg.Positions {
		w.posRpt(pos)
	}
	w.depth--
	w.indent()
	w.buf.WriteString("</ReqForPossAck>\n")
}

// patchRequest emits the PATCH request shape: ReqForPossAck with
// ReqTyp="6", one PosRpt/Qty per incoming change, Qty's Typ carrying
// the side.
func (w *writer) patchRequest(msg *message.Message) {
	w.indent()
	w.buf.WriteString("<ReqForPossAck")
	if msg.Mnemonic != "" {
		fmt.Fprintf(w.buf, " ID=%q", escapeAttr(msg.Mnemonic))
	}
	w.buf.WriteString(` ReqTyp="6"`)
	if len(msg.Patch) > 0 {
		fmt.Fprintf(w.buf, " TotRpts=%q", strconv.Itoa(len(msg.Patch)))
	}
	if len(msg.Patch) == 0 {
		w.buf.WriteString("/>\n")
		return
	}
	w.buf.WriteString(">\n")
	w.depth++
	for _, pe := range msg.Patch {
		w.indent()
		w.buf.WriteString("<PosRpt>\n")
		w.depth++
		w.indent()
		fmt.Fprintf(w.buf, "<Instrmt Sym=%q/>\n", escapeAttr(pe.Symbol))
		w.indent()
		long, short := sideQty(pe.Side, pe.Qty)
		fmt.Fprintf(w.buf, "<Qty Typ=%q Long=%q Short=%q/>\n", typFromSide(pe.Side), formatQty(long), formatQty(short))
		w.depth--
		w.indent()
		w.buf.WriteString("</PosRpt>\n")
	}
	w.depth--
	w.indent()
	w.buf.WriteString("</ReqForPossAck>\n")
}

func sideQty(s message.Side, qty float64) (long, short float64) {
	switch s {
	case message.SideOpenLong, message.SideCloseLong:
		return qty, 0
	case message.SideOpenShort, message.SideCloseShort:
		return 0, qty
	default:
		return 0, 0
	}
}

func typFromSide(s message.Side) string {
	switch s {
	case message.SideOpenLong:
		return "OPEN_LONG"
	case message.SideCloseLong:
		return "CLOSE_LONG"
	case message.SideOpenShort:
		return "OPEN_SHORT"
	case message.SideCloseShort:
		return "CLOSE_SHORT"
	default:
		return ""
	}
}

// posRpt emits one compacted PosRpt/Instrmt/Qty triple: a full
// snapshot position, as used by GET_PF replies, SET_PF requests and the
// PATCH reply alike.
func (w *writer) posRpt(pos message.Position) {
	w.indent()
	w.buf.WriteString("<PosRpt>\n")
	w.depth++
	w.indent()
	fmt.Fprintf(w.buf, "<Instrmt Sym=%q/>\n", escapeAttr(pos.Symbol))
	w.indent()
	fmt.Fprintf(w.buf, "<Qty Long=%q Short=%q/>\n", formatQty(pos.Long), formatQty(pos.Short))
	w.depth--
	w.indent()
	w.buf.WriteString("</PosRpt>\n")
}

// secDefReq emits SecDefReq: the GET_SEC request, and also the SET_SEC
// reply (an echo acknowledging the new description was stored).
func (w *writer) secDefReq(msg *message.Message) {
	w.indent()
	fmt.Fprintf(w.buf, "<SecDefReq Sym=%q", escapeAttr(msg.Symbol))
	if len(msg.Descr) == 0 {
		w.buf.WriteString("/>\n")
		return
	}
	w.buf.WriteString(">\n")
	w.depth++
	w.indent()
	fmt.Fprintf(w.buf, "<SecXML>%s</SecXML>\n", escapeText(msg.Descr))
	w.depth--
	w.indent()
	w.buf.WriteString("</SecDefReq>\n")
}

// secDef emits SecDef: NEW_SEC in both directions.
func (w *writer) secDef(msg *message.Message) {
	w.indent()
	fmt.Fprintf(w.buf, "<SecDef Sym=%q", escapeAttr(msg.Symbol))
	if len(msg.Descr) == 0 {
		w.buf.WriteString("/>\n")
		return
	}
	w.buf.WriteString(">\n")
	w.depth++
	w.indent()
	fmt.Fprintf(w.buf, "<SecXML>%s</SecXML>\n", escapeText(msg.Descr))
	w.depth--
	w.indent()
	w.buf.WriteString("</SecDef>\n")
}

// secDefUpd emits SecDefUpd: the SET_SEC request, and also the GET_SEC
// reply (carrying the stored description).
func (w *writer) secDefUpd(msg *message.Message) {
	w.indent()
	fmt.Fprintf(w.buf, "<SecDefUpd Sym=%q", escapeAttr(msg.Symbol))
	if len(msg.Descr) == 0 {
		w.buf.WriteString("/>\n")
		return
	}
	w.buf.WriteString(">\n")
	w.depth++
	w.indent()
	fmt.Fprintf(w.buf, "<SecXML>%s</SecXML>\n", escapeText(msg.Descr))
	w.depth--
	w.indent()
	w.buf.WriteString("</SecDefUpd>\n")
}

// applMsgReq emits the LST_TAG request: the mnemonic travels as
// AppIDReqGrp/Pty ID, not as an attribute of AppIDReqGrp itself.
func (w *writer) applMsgReq(msg *message.Message) {
	w.indent()
	if msg.Mnemonic == "" {
		w.buf.WriteString("<ApplMsgReq/>\n")
		return
	}
	w.buf.WriteString("<ApplMsgReq>\n")
	w.depth++
	w.indent()
	w.buf.WriteString(`<AppIDReqGrp RefApplID="lst_tag">` + "\n")
	w.depth++
	w.indent()
	fmt.Fprintf(w.buf, "<Pty ID=%q/>\n", escapeAttr(msg.Mnemonic))
	w.depth--
	w.indent()
	w.buf.WriteString("</AppIDReqGrp>\n")
	w.depth--
	w.indent()
	w.buf.WriteString("</ApplMsgReq>\n")
}

// applMsgReqAck emits the LST_TAG reply: AppIDReqGrp/Pty ID carries
// the mnemonic, with one <Sub ID="tagId" QtyDt="stamp"/> per
// (tag_id, tag_stamp) pair nested inside that Pty.
func (w *writer) applMsgReqAck(msg *message.Message) {
	w.indent()
	if msg.Mnemonic == "" {
		w.buf.WriteString("<ApplMsgReqAck/>\n")
		return
	}
	w.buf.WriteString("<ApplMsgReqAck>\n")
	w.depth++
	w.indent()
	w.buf.WriteString(`<AppIDReqGrp RefApplID="lst_tag">` + "\n")
	w.depth++
	w.indent()
	if len(msg.Tags) == 0 {
		fmt.Fprintf(w.buf, "<Pty ID=%q/>\n", escapeAttr(msg.Mnemonic))
	} else {
		fmt.Fprintf(w.buf, "<Pty ID=%q>\n", escapeAttr(msg.Mnemonic))
		w.depth++
		for _, t := range msg.Tags {
			w.indent()
			if t.Stamp.IsZero() {
				fmt.Fprintf(w.buf, "<Sub ID=%q/>\n", strconv.FormatInt(t.ID, 10))
				continue
			}
			fmt.Fprintf(w.buf, "<Sub ID=%q QtyDt=%q/>\n", strconv.FormatInt(t.ID, 10), formatStamp(t.Stamp))
		}
		w.depth--
		w.indent()
		w.buf.WriteString("</Pty>\n")
	}
	w.depth--
	w.indent()
	w.buf.WriteString("</AppIDReqGrp>\n")
	w.depth--
	w.indent()
	w.buf.WriteString("</ApplMsgReqAck>\n")
}

// formatQty renders a quantity with spec.md §4.3's fixed six-decimal
// precision.
func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// formatStamp renders TxnTm in the same layout parseStamp accepts,
// zero time omitted by callers before reaching here.
func formatStamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05Z07:00")
}

func escapeAttr(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func escapeText(raw []byte) string {
	var b bytes.Buffer
	for _, r := range string(raw) {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
