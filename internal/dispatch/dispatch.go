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

// Package dispatch maps each request Kind to the persistence calls
// that satisfy it, mutating the request in place into its reply
// rather than allocating a fresh Message.
package dispatch

import (
	"fmt"
	"time"

	"github.com/aou-systems/umpfd/internal/message"
	"github.com/aou-systems/umpfd/internal/store"
	ulog "github.com/aou-systems/umpfd/pkg/log"
)

// Dispatcher turns requests into replies against a single Store.
type Dispatcher struct {
	Store *store.Store

	// AutoSparse controls SET_PF's starting point: when true (the
	// default) a new tag is seeded by copying the previous tag's
	// positions before applying the incoming ones; when false it
	// starts from an empty tag.
	AutoSparse bool
}

// New returns a Dispatcher with AutoSparse enabled.
func New(s *store.Store) *Dispatcher {
	return &Dispatcher{Store: s, AutoSparse: true}
}

// Dispatch performs m's persistence calls and mutates m in place into
// its own reply. A non-nil error indicates a backend failure; m is
// still left in a usable, if incomplete, reply state.
func (d *Dispatcher) Dispatch(m *message.Message) error {
	var err error
	switch m.Kind {
	case message.KindNewPF:
		err = d.newPF(m)
	case message.KindGetDescr:
		err = d.getDescr(m)
	case message.KindLstPF:
		err = d.lstPF(m)
	case message.KindGetPF:
		err = d.getPF(m)
	case message.KindSetPF:
		err = d.setPF(m)
	case message.KindNewSec:
		err = d.newSec(m)
	case message.KindSetSec:
		err = d.setSec(m)
	case message.KindGetSec:
		err = d.getSec(m)
	case message.KindPatch:
		err = d.patch(m)
	case message.KindLstTag:
		err = d.lstTag(m)
	default:
		ulog.Warnf("dispatch: unknown request kind %v", m.Kind)
	}
	m.Reply()
	if err != nil {
		ulog.Errorf("dispatch: %s %s: %v", m.Kind, m.Mnemonic, err)
	}
	return err
}

func (d *Dispatcher) newPF(m *message.Message) error {
	if _, err := d.Store.NewPF(m.Mnemonic, m.Descr); err != nil {
		return fmt.Errorf("new_pf: %w", err)
	}
	return nil
}

func (d *Dispatcher) getDescr(m *message.Message) error {
	descr, err := d.Store.GetDescr(m.Mnemonic)
	if err != nil {
		return fmt.Errorf("get_descr: %w", err)
	}
	m.Descr = descr
	return nil
}

func (d *Dispatcher) lstPF(m *message.Message) error {
	var mnemonics []string
	err := d.Store.LstPF(func(mnemonic string) bool {
		mnemonics = append(mnemonics, mnemonic)
		return true
	})
	if err != nil {
		return fmt.Errorf("lst_pf: %w", err)
	}
	m.Mnemonics = mnemonics
	return nil
}

func (d *Dispatcher) getPF(m *message.Message) error {
	tag, err := d.Store.GetTag(m.Mnemonic, m.Stamp)
	if err == store.ErrTagNotFound {
		m.Positions = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("get_pf: %w", err)
	}
	m.Stamp = tag.Stamp
	m.TagID = tag.ID

	var positions []message.Position
	err = d.Store.GetPos(tag, func(symbol string, long, short float64) bool {
		positions = append(positions, message.Position{Symbol: symbol, Long: long, Short: short})
		return true
	})
	if err != nil {
		return fmt.Errorf("get_pf: %w", err)
	}
	m.Positions = positions
	return nil
}

func (d *Dispatcher) setPF(m *message.Message) error {
	var tag store.Tag
	var err error
	if d.AutoSparse {
		tag, err = d.Store.CopyTag(m.Mnemonic, m.Stamp)
		if err == store.ErrTagNotFound {
			tag, err = d.Store.NewTag(m.Mnemonic, m.Stamp)
		}
	} else {
		tag, err = d.Store.NewTag(m.Mnemonic, m.Stamp)
	}
	if err != nil {
		return fmt.Errorf("set_pf: %w", err)
	}

	for _, pos := range m.Positions {
		if err := d.Store.SetPos(tag, pos.Symbol, pos.Long, pos.Short); err != nil {
			return fmt.Errorf("set_pf: set_pos %q: %w", pos.Symbol, err)
		}
	}

	m.TagID = tag.ID
	m.Stamp = tag.Stamp
	m.Positions = nil
	return nil
}

func (d *Dispatcher) newSec(m *message.Message) error {
	if err := d.Store.NewSec(m.Mnemonic, m.Symbol, m.Descr); err != nil {
		return fmt.Errorf("new_sec: %w", err)
	}
	return nil
}

func (d *Dispatcher) setSec(m *message.Message) error {
	if err := d.Store.SetSec(m.Mnemonic, m.Symbol, m.Descr); err != nil {
		return fmt.Errorf("set_sec: %w", err)
	}
	return nil
}

func (d *Dispatcher) getSec(m *message.Message) error {
	descr, err := d.Store.GetSec(m.Mnemonic, m.Symbol)
	if err != nil {
		return fmt.Errorf("get_sec: %w", err)
	}
	m.Descr = descr
	return nil
}

// patch applies m's incoming PatchEntry list against a fresh copy of
// the tag resolved at m.Stamp, collapsing the result into one
// position per symbol in first-seen order, each carrying the final
// (long, short) pair left by the last add_pos call for that symbol.
func (d *Dispatcher) patch(m *message.Message) error {
	tag, err := d.Store.CopyTag(m.Mnemonic, m.Stamp)
	if err == store.ErrTagNotFound {
		tag, err = d.Store.NewTag(m.Mnemonic, m.Stamp)
	}
	if err != nil {
		return fmt.Errorf("patch: %w", err)
	}

	var order []string
	final := map[string]message.Position{}
	for _, entry := range m.Patch {
		if entry.Side == message.SideUnknown {
			continue
		}
		dLong, dShort := entry.Side.Delta(entry.Qty)
		long, short, err := d.Store.AddPos(tag, entry.Symbol, dLong, dShort)
		if err != nil {
			return fmt.Errorf("patch: add_pos %q: %w", entry.Symbol, err)
		}
		if _, seen := final[entry.Symbol]; !seen {
			order = append(order, entry.Symbol)
		}
		final[entry.Symbol] = message.Position{Symbol: entry.Symbol, Long: long, Short: short}
	}

	positions := make([]message.Position, 0, len(order))
	for _, symbol := range order {
		positions = append(positions, final[symbol])
	}

	m.TagID = tag.ID
	m.Stamp = tag.Stamp
	m.Positions = positions
	m.Patch = nil
	return nil
}

func (d *Dispatcher) lstTag(m *message.Message) error {
	var tags []message.TagRef
	err := d.Store.LstTag(m.Mnemonic, func(id int64, stamp time.Time) bool {
		tags = append(tags, message.TagRef{ID: id, Stamp: stamp})
		return true
	})
	if err != nil {
		return fmt.Errorf("lst_tag: %w", err)
	}
	m.Tags = tags
	return nil
}
