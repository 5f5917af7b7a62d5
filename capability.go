package victionary

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/villagesql/victionary/vef"
)

// TypeOps wraps a TypeDescriptor's function references behind host-friendly
// signatures. All calls go through here so that the NULL sentinel and the
// raw-bytes hash fallback are applied uniformly.
type TypeOps struct {
	desc *TypeDescriptor
}

// Encode writes the binary form of the text from into buf. isNull reports
// that the value encoded to SQL NULL, in which case n is zero.
func (o TypeOps) Encode(buf, from []byte) (n uint64, isNull bool, err error) {
	n, err = o.desc.encode(buf, from)
	if err != nil {
		return 0, false, fmt.Errorf("victionary: type %s: encode: %w", o.desc.key.String(), err)
	}
	if n == vef.NullLength {
		return 0, true, nil
	}
	return n, false, nil
}

// Decode renders the binary form data as text into to.
func (o TypeOps) Decode(to, data []byte) (uint64, error) {
	n, err := o.desc.decode(to, data)
	if err != nil {
		return 0, fmt.Errorf("victionary: type %s: decode: %w", o.desc.key.String(), err)
	}
	return n, nil
}

// Compare three-way compares two binary values, ascending.
func (o TypeOps) Compare(a, b []byte) int {
	return o.desc.compare(a, b)
}

// Hash hashes one binary value, using the extension's hash when provided
// and hashing the raw bytes otherwise. The raw fallback is only correct
// when encode canonicalizes equivalent values; extensions with multiple
// binary forms per value must provide their own hash.
func (o TypeOps) Hash(data []byte) uint64 {
	if o.desc.hash != nil {
		return o.desc.hash(data)
	}
	return xxhash.Sum64(data)
}

// FuncCall drives one statement's worth of calls to an extension function:
// optional prerun once, Invoke per row, optional postrun once. Not safe for
// concurrent use; each executing statement gets its own FuncCall.
type FuncCall struct {
	fd  *vef.FuncDesc
	ctx vef.Context

	buf      []byte
	userData any
	began    bool
}

// NewFuncCall prepares a call driver for one function.
func NewFuncCall(fd *vef.FuncDesc) *FuncCall {
	return &FuncCall{fd: fd, ctx: vef.Context{Protocol: fd.Protocol}}
}

const defaultResultBufferSize = 1024

// Begin runs the prerun hook, if any, and sizes the output buffer. The
// constValues slice parallels the signature's parameters; nil marks a
// non-constant argument.
func (c *FuncCall) Begin(constValues [][]byte) error {
	if c.began {
		panic("FuncCall.Begin called twice")
	}
	c.began = true

	size := c.fd.BufferSize
	if c.fd.Prerun != nil {
		args := vef.PrerunArgs{
			ArgTypes:    c.fd.Signature.Params,
			ConstValues: constValues,
		}
		var res vef.PrerunResult
		c.fd.Prerun(&c.ctx, &args, &res)
		if res.Kind == vef.ResultError {
			return fmt.Errorf("victionary: function %s: prerun: %s", c.fd.Name, res.ErrMsg)
		}
		if res.ResultBufferSize > size {
			size = res.ResultBufferSize
		}
		c.userData = res.UserData
	}
	if size == 0 {
		size = defaultResultBufferSize
	}
	c.buf = make([]byte, size)
	return nil
}

// Invoke runs the per-row implementation. The returned Result is only valid
// until the next Invoke on the same FuncCall.
func (c *FuncCall) Invoke(values []vef.Value) (*vef.Result, error) {
	if !c.began {
		panic("FuncCall.Invoke before Begin")
	}
	res := &vef.Result{Buf: c.buf}
	args := vef.CallArgs{UserData: c.userData, Values: values}
	c.fd.Call(&c.ctx, &args, res)
	if res.Kind == vef.ResultError {
		return nil, fmt.Errorf("victionary: function %s: %s", c.fd.Name, res.ErrMsg)
	}
	return res, nil
}

// End runs the postrun hook, if any. Safe to call after a failed Begin.
func (c *FuncCall) End() {
	if c.began && c.fd.Postrun != nil {
		c.fd.Postrun(&c.ctx, &vef.PostrunArgs{UserData: c.userData})
	}
	c.userData = nil
	c.buf = nil
	c.began = false
}
