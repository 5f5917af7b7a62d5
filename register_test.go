package victionary

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/villagesql/victionary/semver"
	"github.com/villagesql/victionary/vef"
)

// bytearray is a fixed 8-byte type: encode space-pads, decode copies back,
// compare is bytewise. A realistic minimal extension used across the
// registration tests.
const bytearrayLen = 8

func bytearrayEncode(buf, from []byte) (uint64, error) {
	if len(buf) < bytearrayLen {
		return 0, fmt.Errorf("buffer too small")
	}
	for i := 0; i < bytearrayLen; i++ {
		buf[i] = ' '
	}
	copy(buf[:bytearrayLen], from)
	return bytearrayLen, nil
}

func bytearrayDecode(to, data []byte) (uint64, error) {
	if len(to) < bytearrayLen {
		return 0, fmt.Errorf("buffer too small")
	}
	copy(to, data[:bytearrayLen])
	return bytearrayLen, nil
}

func bytearrayModule() vef.Module {
	return vef.NewExtension("bytearray", "0.0.1").
		Type(vef.NewType("bytearray").
			PersistedLength(bytearrayLen).
			MaxDecodeBufferLength(bytearrayLen).
			Encode(bytearrayEncode).
			Decode(bytearrayDecode).
			Compare(bytes.Compare).
			Build()).
		Func(vef.NewFunc("from_string").FromString("bytearray", bytearrayEncode)).
		Func(vef.NewFunc("to_string").ToString("bytearray", bytearrayDecode)).
		Func(vef.NewFunc("mask").
			Returns(vef.CustomType("bytearray")).
			Param(vef.CustomType("bytearray")).
			Param(vef.IntType).
			Impl(maskImpl)).
		Module()
}

// mask replaces the byte at the given offset with '*'; out-of-range offsets
// return the input unchanged.
func maskImpl(ctx *vef.Context, args *vef.CallArgs, result *vef.Result) {
	in, offset := &args.Values[0], &args.Values[1]
	if in.Null || offset.Null {
		result.Kind = vef.ResultNull
		return
	}
	copy(result.Buf, in.Bin[:bytearrayLen])
	if n := offset.Int; n >= 0 && n < bytearrayLen {
		result.Buf[n] = '*'
	}
	result.Kind = vef.ResultValue
	result.ActualLen = bytearrayLen
}

func testPointType() *vef.TypeDesc {
	return vef.NewType("point").
		PersistedLength(16).
		MaxDecodeBufferLength(64).
		Encode(func(buf, from []byte) (uint64, error) { return 0, nil }).
		Decode(func(to, data []byte) (uint64, error) { return 0, nil }).
		Compare(bytes.Compare).
		Build()
}

func hostVersion() semver.Version {
	return semver.MustParse("9.1.0")
}

func TestRegisterExtension(t *testing.T) {
	c := newTestClient(t)
	txn := NewTxn()

	desc, err := c.RegisterModule(txn, bytearrayModule(), "deadbeef", hostVersion())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if desc.Name() != "bytearray" || desc.Version() != "0.0.1" {
		t.Errorf("descriptor identity: %q %q", desc.Name(), desc.Version())
	}
	if desc.Func("MASK") == nil {
		t.Errorf("function lookup is not case-insensitive")
	}

	// All writes stay pending until commit.
	c.Read(NewTxn(), func(tx *Tx) {
		if _, ok := tx.ExtensionDescriptors().Get(tx, desc.Key().String()); ok {
			t.Errorf("descriptor visible before commit")
		}
	})

	c.CommitAll(txn)

	c.Read(NewTxn(), func(tx *Tx) {
		if _, ok := tx.ExtensionDescriptors().Get(tx, "bytearray.0.0.1"); !ok {
			t.Errorf("descriptor missing after commit")
		}
		if _, ok := tx.TypeDescriptors().Get(tx, "bytearray.bytearray.0.0.1"); !ok {
			t.Errorf("type descriptor missing after commit")
		}
		e, ok := tx.Extensions().Get(tx, "bytearray")
		if !ok || e.Version != "0.0.1" || e.BundleSHA256 != "deadbeef" {
			t.Errorf("extensions row: %v %v", e, ok)
		}
	})
}

func TestRegisterExtensionRejections(t *testing.T) {
	c := newTestClient(t)

	t.Run("wrong protocol", func(t *testing.T) {
		err := c.Write(NewTxn(), func(tx *Tx) error {
			reg := bytearrayModule().Register(&vef.RegisterArg{Protocol: vef.Latest})
			bad := *reg
			bad.Protocol = vef.Protocol(7)
			_, err := RegisterExtension(tx, &bad, "deadbeef")
			return err
		})
		if err == nil || !strings.Contains(err.Error(), "protocol") {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("duplicate registration", func(t *testing.T) {
		txn := NewTxn()
		if _, err := c.RegisterModule(txn, bytearrayModule(), "deadbeef", hostVersion()); err != nil {
			t.Fatalf("first register: %v", err)
		}
		_, err := c.RegisterModule(txn, bytearrayModule(), "deadbeef", hostVersion())
		if err == nil || !strings.Contains(err.Error(), "already registered") {
			t.Fatalf("got %v", err)
		}
		c.RollbackAll(txn)
	})

	t.Run("no register entry point", func(t *testing.T) {
		_, err := c.RegisterModule(NewTxn(), vef.Module{}, "deadbeef", hostVersion())
		if err == nil || !strings.Contains(err.Error(), "entry point") {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("read-only handle", func(t *testing.T) {
		reg := bytearrayModule().Register(&vef.RegisterArg{Protocol: vef.Latest})
		err := c.ReadErr(NewTxn(), func(tx *Tx) error {
			_, err := RegisterExtension(tx, reg, "deadbeef")
			return err
		})
		if !errors.Is(err, ErrReadOnlyTx) {
			t.Fatalf("got %v", err)
		}
	})
}

func TestUnregisterExtension(t *testing.T) {
	c := newTestClient(t)

	install := NewTxn()
	desc, err := c.RegisterModule(install, bytearrayModule(), "deadbeef", hostVersion())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	c.CommitAll(install)

	// Acquire a context so unregistration has something to invalidate.
	descKey := NewTypeDescriptorKey("bytearray", "bytearray", "0.0.1")
	ctxKey := NewTypeContextKey(descKey, TypeParameters{})
	err = c.Write(NewTxn(), func(tx *Tx) error {
		td, ok := tx.TypeDescriptors().Get(tx, descKey.String())
		if !ok {
			t.Fatalf("type descriptor missing")
		}
		_, err := tx.AcquireTypeContext(ctxKey, td)
		return err
	})
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	uninstall := NewTxn()
	err = c.Write(uninstall, func(tx *Tx) error {
		return UnregisterExtension(tx, desc)
	})
	if err != nil {
		t.Fatalf("unregister: %v", err)
	}
	c.CommitAll(uninstall)

	c.Read(NewTxn(), func(tx *Tx) {
		if _, ok := tx.ExtensionDescriptors().Get(tx, desc.Key().String()); ok {
			t.Errorf("descriptor survived unregister")
		}
		if _, ok := tx.TypeDescriptors().Get(tx, descKey.String()); ok {
			t.Errorf("type descriptor survived unregister")
		}
		if _, ok := tx.Extensions().Get(tx, "bytearray"); ok {
			t.Errorf("extensions row survived unregister")
		}
		if _, ok := tx.TypeContexts().GetCommitted(ctxKey.String()); ok {
			t.Errorf("type context survived unregister")
		}
	})
}

func TestTypeOps(t *testing.T) {
	c := newTestClient(t)

	txn := NewTxn()
	if _, err := c.RegisterModule(txn, bytearrayModule(), "deadbeef", hostVersion()); err != nil {
		t.Fatalf("register: %v", err)
	}
	c.CommitAll(txn)

	var ops TypeOps
	c.Read(NewTxn(), func(tx *Tx) {
		td, ok := tx.TypeDescriptors().Get(tx, "bytearray.bytearray.0.0.1")
		if !ok {
			t.Fatalf("type descriptor missing")
		}
		if !td.FixedWidth() || td.PersistedLength() != bytearrayLen {
			t.Errorf("persisted length: %d", td.PersistedLength())
		}
		ops = td.Ops()
	})

	buf := make([]byte, bytearrayLen)
	n, isNull, err := ops.Encode(buf, []byte("abc"))
	if err != nil || isNull {
		t.Fatalf("encode: %v null=%v", err, isNull)
	}
	if n != bytearrayLen || string(buf) != "abc     " {
		t.Errorf("encoded %q (%d)", buf, n)
	}

	out := make([]byte, bytearrayLen)
	dn, err := ops.Decode(out, buf)
	if err != nil || dn != bytearrayLen || string(out) != "abc     " {
		t.Errorf("decode: %q (%d) %v", out, dn, err)
	}

	if ops.Compare([]byte("abc     "), []byte("abd     ")) >= 0 {
		t.Errorf("compare ordering wrong")
	}

	// No extension hash, so the raw-bytes fallback applies.
	if got, want := ops.Hash(buf), xxhash.Sum64(buf); got != want {
		t.Errorf("hash fallback: %d != %d", got, want)
	}
}

func TestFuncCall(t *testing.T) {
	reg := bytearrayModule().Register(&vef.RegisterArg{Protocol: vef.Latest})
	var mask *vef.FuncDesc
	for _, fd := range reg.Funcs {
		if fd.Name == "mask" {
			mask = fd
		}
	}
	if mask == nil {
		t.Fatalf("mask not exported")
	}

	call := NewFuncCall(mask)
	if err := call.Begin(nil); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer call.End()

	in := []byte("abcdefgh")
	t.Run("masks offset", func(t *testing.T) {
		res, err := call.Invoke([]vef.Value{
			{Type: vef.CustomType("bytearray"), Bin: in},
			{Type: vef.IntType, Int: 2},
		})
		if err != nil {
			t.Fatalf("Invoke: %v", err)
		}
		if got := string(res.Bytes()); got != "ab*defgh" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("out of range unchanged", func(t *testing.T) {
		res, err := call.Invoke([]vef.Value{
			{Type: vef.CustomType("bytearray"), Bin: in},
			{Type: vef.IntType, Int: 99},
		})
		if err != nil {
			t.Fatalf("Invoke: %v", err)
		}
		if got := string(res.Bytes()); got != "abcdefgh" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("null propagates", func(t *testing.T) {
		res, err := call.Invoke([]vef.Value{
			{Type: vef.CustomType("bytearray"), Null: true},
			{Type: vef.IntType, Int: 0},
		})
		if err != nil {
			t.Fatalf("Invoke: %v", err)
		}
		if res.Kind != vef.ResultNull {
			t.Errorf("kind = %v", res.Kind)
		}
	})
}
