// Package wire encodes a query.Path into a compact binary frame using the
// low-level varint/wire-type primitives in
// google.golang.org/protobuf/encoding/protowire, standing in for the
// pbnavitia::Response protobuf serialization the original webservice
// layer performs, without generating a .proto schema for a single
// response type. Field numbers below form the frame's wire contract:
//
//	Path:     1 = repeated PathItem items, 2 = nb_changes, 3 = duration
//	PathItem: 1 = stop_area, 2 = seconds, 3 = day, 4 = line_id
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/antigravity/transitcore/internal/query"
)

const (
	fieldItems     = protowire.Number(1)
	fieldNbChanges = protowire.Number(2)
	fieldDuration  = protowire.Number(3)

	fieldItemStopArea = protowire.Number(1)
	fieldItemSeconds  = protowire.Number(2)
	fieldItemDay      = protowire.Number(3)
	fieldItemLineID   = protowire.Number(4)
)

// Encode serializes p into a protobuf wire-format byte slice.
func Encode(p query.Path) []byte {
	var b []byte
	for _, it := range p.Items {
		item := encodeItem(it)
		b = protowire.AppendTag(b, fieldItems, protowire.BytesType)
		b = protowire.AppendBytes(b, item)
	}
	b = protowire.AppendTag(b, fieldNbChanges, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(p.NbChanges)))
	b = protowire.AppendTag(b, fieldDuration, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(p.Duration)))
	return b
}

func encodeItem(it query.PathItem) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldItemStopArea, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(it.StopArea)))
	b = protowire.AppendTag(b, fieldItemSeconds, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(it.Seconds)))
	b = protowire.AppendTag(b, fieldItemDay, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(it.Day)))
	b = protowire.AppendTag(b, fieldItemLineID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(it.LineID)))
	return b
}

// Decode parses a frame produced by Encode back into a query.Path.
func Decode(b []byte) (query.Path, error) {
	var p query.Path
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return query.Path{}, fmt.Errorf("wire: invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldItems && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return query.Path{}, fmt.Errorf("wire: invalid item bytes: %w", protowire.ParseError(n))
			}
			b = b[n:]
			item, err := decodeItem(raw)
			if err != nil {
				return query.Path{}, err
			}
			p.Items = append(p.Items, item)
		case num == fieldNbChanges && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return query.Path{}, fmt.Errorf("wire: invalid nb_changes: %w", protowire.ParseError(n))
			}
			b = b[n:]
			p.NbChanges = int(int64(v))
		case num == fieldDuration && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return query.Path{}, fmt.Errorf("wire: invalid duration: %w", protowire.ParseError(n))
			}
			b = b[n:]
			p.Duration = int(int64(v))
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return query.Path{}, fmt.Errorf("wire: invalid field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return p, nil
}

func decodeItem(b []byte) (query.PathItem, error) {
	var it query.PathItem
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return query.PathItem{}, fmt.Errorf("wire: invalid item tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return query.PathItem{}, fmt.Errorf("wire: invalid item field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return query.PathItem{}, fmt.Errorf("wire: invalid item varint: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldItemStopArea:
			it.StopArea = int(int64(v))
		case fieldItemSeconds:
			it.Seconds = int(int64(v))
		case fieldItemDay:
			it.Day = int(int64(v))
		case fieldItemLineID:
			it.LineID = int(int64(v))
		}
	}
	return it, nil
}
