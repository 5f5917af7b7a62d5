package victionary

import (
	"fmt"

	"github.com/villagesql/victionary/semver"
	"github.com/villagesql/victionary/vef"
)

// SDKVersion is the builder/ABI surface version reported to modules at
// registration time.
var SDKVersion = semver.MustParse("1.0.0")

// RegisterModule drives a loaded module's register entry point and installs
// the resulting registration under txn. The entry point runs before the
// cache lock is taken: module code must never execute under the lock, since
// it may block or call back into the host. hostVersion is the host server
// version reported to the module.
func (c *Client) RegisterModule(txn *Txn, mod vef.Module, bundleSHA256 string, hostVersion semver.Version) (*ExtensionDescriptor, error) {
	if mod.Register == nil {
		return nil, fmt.Errorf("victionary: module has no register entry point")
	}
	reg := mod.Register(&vef.RegisterArg{
		Protocol:    vef.Latest,
		HostVersion: hostVersion,
		SDKVersion:  SDKVersion,
	})
	var desc *ExtensionDescriptor
	err := c.Write(txn, func(tx *Tx) error {
		var err error
		desc, err = RegisterExtension(tx, reg, bundleSHA256)
		return err
	})
	if err != nil {
		return nil, err
	}
	return desc, nil
}

// RegisterExtension validates reg and buffers the full set of cache writes
// for installing it: the extension descriptor, one type descriptor per
// exported type, and the extensions row. Everything stays pending until the
// transaction commits, so a failed install rolls back cleanly.
func RegisterExtension(tx *Tx, reg *vef.Registration, bundleSHA256 string) (*ExtensionDescriptor, error) {
	if err := tx.requireWritable(); err != nil {
		return nil, err
	}
	if err := vef.Validate(reg); err != nil {
		return nil, err
	}

	descKey := NewExtensionDescriptorKey(reg.Name, reg.Version)
	if _, ok := tx.ExtensionDescriptors().Get(tx, descKey.String()); ok {
		return nil, fmt.Errorf("victionary: extension %s already registered", descKey.String())
	}

	desc := NewExtensionDescriptor(descKey, reg)
	if err := tx.ExtensionDescriptors().Insert(tx, desc); err != nil {
		return nil, err
	}
	for _, td := range reg.Types {
		key := NewTypeDescriptorKey(td.Name, reg.Name, reg.Version)
		if _, ok := tx.TypeDescriptors().Get(tx, key.String()); ok {
			return nil, fmt.Errorf("victionary: type %s already registered", key.String())
		}
		if err := tx.TypeDescriptors().Insert(tx, NewTypeDescriptor(key, ImplExtension, td)); err != nil {
			return nil, err
		}
	}

	entry := NewExtensionEntry(NewExtensionKey(reg.Name), reg.Version, bundleSHA256)
	if err := tx.Extensions().Insert(tx, entry); err != nil {
		return nil, err
	}

	tx.c.vlog("victionary: registered extension %s (%d types, %d functions)",
		descKey.String(), len(reg.Types), len(reg.Funcs))
	return desc, nil
}

// UnregisterExtension buffers the removal of an installed extension: its
// descriptor, its type descriptors and its extensions row. Cached type
// contexts backed by the removed descriptors are dropped immediately; they
// carry no data, so on rollback they are simply recreated on next use.
func UnregisterExtension(tx *Tx, desc *ExtensionDescriptor) error {
	if err := tx.requireWritable(); err != nil {
		return err
	}
	reg := desc.Registration()
	for _, td := range reg.Types {
		key := NewTypeDescriptorKey(td.Name, desc.Name(), desc.Version())
		if err := tx.TypeDescriptors().Delete(tx, key.String()); err != nil {
			return err
		}
		if err := tx.InvalidateTypeContexts(key); err != nil {
			return err
		}
	}
	if err := tx.ExtensionDescriptors().Delete(tx, desc.Key().String()); err != nil {
		return err
	}
	if err := tx.Extensions().Delete(tx, NewExtensionKey(desc.Name()).String()); err != nil {
		return err
	}
	tx.c.vlog("victionary: unregistered extension %s", desc.Key().String())
	return nil
}
