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

// Package dict maps FIXML element and attribute local-names to small
// internal tokens. The mapping is a plain case-sensitive map lookup;
// Go's map already compiles to an efficient hash lookup, so there is
// no hand-rolled perfect-hash table here the way the original C
// dictionary needed one.
package dict

// Elem identifies a recognized FIXML element, independent of namespace
// prefix. ElemUnknown is the sentinel for anything not in the table.
type Elem int

const (
	ElemUnknown Elem = iota
	ElemFIXML
	ElemBatch
	ElemReqForPoss
	ElemReqForPossAck
	ElemPosRpt
	ElemRgstInstrctns
	ElemRgstInstrctnsRsp
	ElemRgDtl
	ElemPty
	ElemSub
	ElemInstrmt
	ElemQty
	ElemAmt
	ElemSecDef
	ElemSecDefReq
	ElemSecDefUpd
	ElemAllocInstrctn
	ElemAllocInstrctnAck
	ElemApplMsgReq
	ElemApplMsgReqAck
	// ElemAppIDReqGrp is not in the §4.1 element list but is required
	// to implement the ApplMsgReq* parsing rules of §4.2.
	ElemAppIDReqGrp
	// ElemSecXML carries the security description payload for
	// GET_SEC/NEW_SEC/SET_SEC; named by spec.md §4.3's serializer table
	// but, like AppIDReqGrp, missing from the §4.1 element list.
	ElemSecXML
)

var elemTable = map[string]Elem{
	"FIXML":             ElemFIXML,
	"Batch":             ElemBatch,
	"ReqForPoss":        ElemReqForPoss,
	"ReqForPossAck":     ElemReqForPossAck,
	"PosRpt":            ElemPosRpt,
	"RgstInstrctns":     ElemRgstInstrctns,
	"RgstInstrctnsRsp":  ElemRgstInstrctnsRsp,
	"RgDtl":             ElemRgDtl,
	"Pty":               ElemPty,
	"Sub":               ElemSub,
	"Instrmt":           ElemInstrmt,
	"Qty":               ElemQty,
	"Amt":               ElemAmt,
	"SecDef":            ElemSecDef,
	"SecDefReq":         ElemSecDefReq,
	"SecDefUpd":         ElemSecDefUpd,
	"AllocInstrctn":     ElemAllocInstrctn,
	"AllocInstrctnAck":  ElemAllocInstrctnAck,
	"ApplMsgReq":        ElemApplMsgReq,
	"ApplMsgReqAck":     ElemApplMsgReqAck,
	"AppIDReqGrp":       ElemAppIDReqGrp,
	"SecXML":            ElemSecXML,
}

// LookupElem resolves a local element name to its token. Unknown names
// yield ElemUnknown; the caller decides whether that is an error.
func LookupElem(local string) Elem {
	if e, ok := elemTable[local]; ok {
		return e
	}
	return ElemUnknown
}

func (e Elem) String() string {
	for k, v := range elemTable {
		if v == e {
			return k
		}
	}
	return "UNKNOWN"
}

// Attr identifies a recognized FIXML attribute, independent of element.
type Attr int

const (
	AttrUnknown Attr = iota
	AttrID
	AttrR
	AttrS
	AttrSrc
	AttrSym
	AttrTyp
	AttrLong
	AttrShort
	AttrBizDt
	AttrTxnTm
	AttrTotRpts
	AttrRslt
	AttrStat
	AttrReqTyp
	AttrReqID
	AttrRptID
	AttrSetSesID
	AttrQtyDt
	AttrRegStat
	AttrTransTyp
	AttrRefID
	AttrRefApplID
	AttrXmlns
	AttrV
)

var attrTable = map[string]Attr{
	"ID":        AttrID,
	"R":         AttrR,
	"S":         AttrS,
	"Src":       AttrSrc,
	"Sym":       AttrSym,
	"Typ":       AttrTyp,
	"Long":      AttrLong,
	"Short":     AttrShort,
	"BizDt":     AttrBizDt,
	"TxnTm":     AttrTxnTm,
	"TotRpts":   AttrTotRpts,
	"Rslt":      AttrRslt,
	"Stat":      AttrStat,
	"ReqTyp":    AttrReqTyp,
	"ReqID":     AttrReqID,
	"RptID":     AttrRptID,
	"SetSesID":  AttrSetSesID,
	"QtyDt":     AttrQtyDt,
	"RegStat":   AttrRegStat,
	"TransTyp":  AttrTransTyp,
	"RefID":     AttrRefID,
	"RefApplID": AttrRefApplID,
	"xmlns":     AttrXmlns,
	"v":         AttrV,
}

// LookupAttr resolves a local attribute name to its token.
func LookupAttr(local string) Attr {
	if a, ok := attrTable[local]; ok {
		return a
	}
	return AttrUnknown
}

// NSFixML50 and NSFixML44 are the only namespace URIs the parser
// recognizes as carrying FIXML content. Anything else on the root's
// xmlns is UnknownNamespace; a blank xmlns is lenient mode.
const (
	NSFixML50 = "http://www.fixprotocol.org/FIXML-5-0"
	NSFixML44 = "http://www.fixprotocol.org/FIXML-4-4"
)

// IsFixMLNamespace reports whether uri is one of the two recognized
// FIXML namespace URIs.
func IsFixMLNamespace(uri string) bool {
	return uri == NSFixML50 || uri == NSFixML44
}

// MaxDepth is the fixed maximum nesting depth of the parser's context
// frame stack.
const MaxDepth = 16
