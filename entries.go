package victionary

// Entries of the three replicable collections. Each entry carries its key
// plus the non-key row data; the key's normalized string is the physical row
// key when persisted.

// PropertyEntry is one row of the properties collection, a name/value pair
// with an optional description. Used for schema versioning and feature
// flags.
type PropertyEntry struct {
	Value       string
	Description string

	key PropertyKey
}

func NewPropertyEntry(key PropertyKey, value, description string) *PropertyEntry {
	return &PropertyEntry{Value: value, Description: description, key: key}
}

func (e *PropertyEntry) Key() PropertyKey { return e.key }
func (e *PropertyEntry) Name() string     { return e.key.Name() }

// ColumnEntry is one row of the custom columns collection: which extension
// type a given table column uses.
type ColumnEntry struct {
	ExtensionName    string
	ExtensionVersion string
	TypeName         string

	key ColumnKey
}

func NewColumnEntry(key ColumnKey, extName, extVersion, typeName string) *ColumnEntry {
	return &ColumnEntry{
		ExtensionName:    extName,
		ExtensionVersion: extVersion,
		TypeName:         typeName,
		key:              key,
	}
}

func (e *ColumnEntry) Key() ColumnKey { return e.key }
func (e *ColumnEntry) DB() string     { return e.key.DB() }
func (e *ColumnEntry) Table() string  { return e.key.Table() }
func (e *ColumnEntry) Column() string { return e.key.Column() }

// DescriptorKey is the key of the type descriptor this column refers to.
func (e *ColumnEntry) DescriptorKey() TypeDescriptorKey {
	return NewTypeDescriptorKey(e.TypeName, e.ExtensionName, e.ExtensionVersion)
}

// ExtensionEntry is one row of the extensions collection: an installed
// extension with the expected bundle digest.
type ExtensionEntry struct {
	Version      string
	BundleSHA256 string

	key ExtensionKey
}

func NewExtensionEntry(key ExtensionKey, version, sha256 string) *ExtensionEntry {
	return &ExtensionEntry{Version: version, BundleSHA256: sha256, key: key}
}

func (e *ExtensionEntry) Key() ExtensionKey { return e.key }
func (e *ExtensionEntry) Name() string      { return e.key.Name() }
