package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"indexstoredb/internal/model"
)

// encodeUnitInfo packs a model.UnitInfo into the flat binary layout stored
// under bucketUnitInfo (spec section 3, "packed binary record"). This is
// hand-rolled rather than a general serialization library: the record is a
// small, internal-only, fixed shape with no cross-process or cross-version
// compatibility requirement beyond DatabaseFormatVersion itself, which
// already guards the whole store directory (see DESIGN.md).
func encodeUnitInfo(u model.UnitInfo) []byte {
	var buf bytes.Buffer

	putString(&buf, u.UnitName)
	putString(&buf, u.MainFile)
	putString(&buf, u.OutFile)
	putString(&buf, u.Sysroot)
	putString(&buf, u.Target)

	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], uint64(u.ModTimeSec))
	buf.Write(scratch[:])

	buf.WriteByte(packBools(u.HasMainFile, u.HasSysroot, u.IsSystem, u.HasTestSyms))
	buf.WriteByte(byte(u.Provider))

	putStringSlice(&buf, u.FileDeps)
	putStringSlice(&buf, u.UnitDeps)
	putStringSlice(&buf, u.ProviderDeps)

	putUvarint(&buf, uint64(len(u.Deps)))
	for _, d := range u.Deps {
		buf.WriteByte(byte(d.Kind))
		putString(&buf, d.Name)
		putString(&buf, d.ModuleName)
		if d.IsSystem {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		putUvarint(&buf, uint64(d.Line))
	}

	return buf.Bytes()
}

func decodeUnitInfo(data []byte) (model.UnitInfo, error) {
	r := bytes.NewReader(data)
	var u model.UnitInfo
	var err error

	if u.UnitName, err = getString(r); err != nil {
		return u, fmt.Errorf("decode unit info: unit name: %w", err)
	}
	if u.MainFile, err = getString(r); err != nil {
		return u, fmt.Errorf("decode unit info: main file: %w", err)
	}
	if u.OutFile, err = getString(r); err != nil {
		return u, fmt.Errorf("decode unit info: out file: %w", err)
	}
	if u.Sysroot, err = getString(r); err != nil {
		return u, fmt.Errorf("decode unit info: sysroot: %w", err)
	}
	if u.Target, err = getString(r); err != nil {
		return u, fmt.Errorf("decode unit info: target: %w", err)
	}

	var scratch [8]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return u, fmt.Errorf("decode unit info: mod time: %w", err)
	}
	u.ModTimeSec = int64(binary.BigEndian.Uint64(scratch[:]))

	flags, err := r.ReadByte()
	if err != nil {
		return u, fmt.Errorf("decode unit info: flags: %w", err)
	}
	u.HasMainFile, u.HasSysroot, u.IsSystem, u.HasTestSyms = unpackBools(flags)

	provider, err := r.ReadByte()
	if err != nil {
		return u, fmt.Errorf("decode unit info: provider: %w", err)
	}
	u.Provider = model.ProviderKind(provider)

	if u.FileDeps, err = getStringSlice(r); err != nil {
		return u, fmt.Errorf("decode unit info: file deps: %w", err)
	}
	if u.UnitDeps, err = getStringSlice(r); err != nil {
		return u, fmt.Errorf("decode unit info: unit deps: %w", err)
	}
	if u.ProviderDeps, err = getStringSlice(r); err != nil {
		return u, fmt.Errorf("decode unit info: provider deps: %w", err)
	}

	depCount, err := binary.ReadUvarint(r)
	if err != nil {
		return u, fmt.Errorf("decode unit info: dep count: %w", err)
	}
	u.Deps = make([]model.Dependency, 0, depCount)
	for i := uint64(0); i < depCount; i++ {
		var d model.Dependency
		kind, err := r.ReadByte()
		if err != nil {
			return u, fmt.Errorf("decode unit info: dep[%d] kind: %w", i, err)
		}
		d.Kind = model.DepKind(kind)
		if d.Name, err = getString(r); err != nil {
			return u, fmt.Errorf("decode unit info: dep[%d] name: %w", i, err)
		}
		if d.ModuleName, err = getString(r); err != nil {
			return u, fmt.Errorf("decode unit info: dep[%d] module: %w", i, err)
		}
		isSystem, err := r.ReadByte()
		if err != nil {
			return u, fmt.Errorf("decode unit info: dep[%d] is system: %w", i, err)
		}
		d.IsSystem = isSystem != 0
		line, err := binary.ReadUvarint(r)
		if err != nil {
			return u, fmt.Errorf("decode unit info: dep[%d] line: %w", i, err)
		}
		d.Line = int(line)
		u.Deps = append(u.Deps, d)
	}

	return u, nil
}

func putUvarint(buf *bytes.Buffer, v uint64) {
	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], v)
	buf.Write(scratch[:n])
}

func putString(buf *bytes.Buffer, s string) {
	putUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func getString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return "", err
	}
	return string(out), nil
}

func putStringSlice(buf *bytes.Buffer, ss []string) {
	putUvarint(buf, uint64(len(ss)))
	for _, s := range ss {
		putString(buf, s)
	}
}

func getStringSlice(r *bytes.Reader) ([]string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		s, err := getString(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func packBools(a, b, c, d bool) byte {
	var out byte
	if a {
		out |= 1 << 0
	}
	if b {
		out |= 1 << 1
	}
	if c {
		out |= 1 << 2
	}
	if d {
		out |= 1 << 3
	}
	return out
}

func unpackBools(b byte) (a, c2, c3, c4 bool) {
	return b&(1<<0) != 0, b&(1<<1) != 0, b&(1<<2) != 0, b&(1<<3) != 0
}
