package frep

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrFormat is the sentinel for malformed or unrepresentable serialized
// streams. Decode errors wrap it with context.
var ErrFormat = errors.New("frep: malformed stream")

const headerTag = 'T'

// Four reserved bytes follow the header tag; they are written as '"' and
// ignored on decode.
var headerReserved = [4]byte{'"', '"', '"', '"'}

const sentinelByte = 0xFF

// Serialize writes the tree as a deterministic byte stream: the header,
// then one record per distinct node in post-order, then the two-byte
// sentinel. Shared subtrees are written once; interior records reference
// their children by a 4-byte little-endian "records back" offset per child
// (0 is the immediately preceding record), so decoding reconstructs the
// sharing by index.
//
// Trees containing oracle leaves have no serialized form and are rejected.
func (t Tree) Serialize(w io.Writer) error {
	if t.n == nil {
		return fmt.Errorf("frep: serialize invalid tree: %w", ErrFormat)
	}
	if t.n.flags.Has(FlagHasOracle) {
		return fmt.Errorf("frep: tree contains an oracle leaf, which has no serialized form: %w", ErrFormat)
	}

	buf := make([]byte, 0, 256)
	buf = append(buf, headerTag)
	buf = append(buf, headerReserved[:]...)

	index := make(map[*node]uint32)
	next := uint32(0)

	walker := t.Walk()
	for cur, ok := walker.Next(); ok; cur, ok = walker.Next() {
		n := cur.n
		buf = append(buf, byte(n.op))
		switch {
		case n.op == OpConstant:
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(n.value))
		case n.arity() == 0:
			// Axis and free-variable records are the opcode byte alone.
		default:
			for i := 0; i < n.arity(); i++ {
				off := next - index[n.kids[i]] - 1
				buf = binary.LittleEndian.AppendUint32(buf, off)
			}
		}
		index[n] = next
		next++
	}

	buf = append(buf, sentinelByte, sentinelByte)
	_, err := w.Write(buf)
	return err
}

// Deserialize reads a tree previously written by Serialize, reconstructing
// the exact encoded shape: shared records decode to shared nodes, free
// variables decode to fresh variables, and no simplification is applied.
// Interior nodes are allocated as new interning-table entries; Unique
// canonicalizes them afterwards if desired.
func Deserialize(r io.Reader) (Tree, error) {
	return DefaultStore().deserialize(r)
}

func (s *Store) deserialize(r io.Reader) (Tree, error) {
	br := bufio.NewReader(r)

	var hdr [5]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return Tree{}, fmt.Errorf("frep: short header: %w", ErrFormat)
	}
	if hdr[0] != headerTag {
		return Tree{}, fmt.Errorf("frep: bad header tag %#x: %w", hdr[0], ErrFormat)
	}

	var records []Tree
	fail := func(err error) (Tree, error) {
		for _, rec := range records {
			rec.Release()
		}
		return Tree{}, err
	}

	for {
		b, err := br.ReadByte()
		if err != nil {
			return fail(fmt.Errorf("frep: missing sentinel: %w", ErrFormat))
		}
		if b == sentinelByte {
			b2, err := br.ReadByte()
			if err != nil || b2 != sentinelByte {
				return fail(fmt.Errorf("frep: truncated sentinel: %w", ErrFormat))
			}
			break
		}

		op := Opcode(b)
		if !op.valid() {
			return fail(fmt.Errorf("frep: invalid opcode byte %#x: %w", b, ErrFormat))
		}

		var rec Tree
		switch {
		case op == OpConstant:
			var p [8]byte
			if _, err := io.ReadFull(br, p[:]); err != nil {
				return fail(fmt.Errorf("frep: truncated constant: %w", ErrFormat))
			}
			rec = s.constant(math.Float64frombits(binary.LittleEndian.Uint64(p[:])))
		case op == OpVarX:
			rec = s.axis(0)
		case op == OpVarY:
			rec = s.axis(1)
		case op == OpVarZ:
			rec = s.axis(2)
		case op == OpVarFree:
			// Always fresh on decode; sharing within the stream still
			// resolves by index.
			rec = s.variable()
		case op == OpOracle:
			return fail(fmt.Errorf("frep: oracle record in stream: %w", ErrFormat))
		default:
			var kids [4]*node
			for i := 0; i < op.Args(); i++ {
				var p [4]byte
				if _, err := io.ReadFull(br, p[:]); err != nil {
					return fail(fmt.Errorf("frep: truncated %s record: %w", op, ErrFormat))
				}
				off := binary.LittleEndian.Uint32(p[:])
				if uint64(off) >= uint64(len(records)) {
					return fail(fmt.Errorf("frep: dangling back-reference %d in %s record: %w", off, op, ErrFormat))
				}
				kids[i] = records[len(records)-1-int(off)].n
			}
			rec = s.rawNode(op, kids)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return Tree{}, fmt.Errorf("frep: empty stream: %w", ErrFormat)
	}
	root := records[len(records)-1].Retain()
	for _, rec := range records {
		rec.Release()
	}
	return root, nil
}
