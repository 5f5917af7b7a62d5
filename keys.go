package victionary

import "strings"

// Identifier normalization. All identifiers handled here (property names,
// extension names, versions, type names, database/table/column names) are
// case-insensitive; normalization folds them to lowercase. Keys keep the
// original spelling for display and normalize only for identity.

func normalizeIdent(s string) string {
	return strings.ToLower(s)
}

// Key is implemented by every full collection key. The normalized string
// alone defines equality and ordering.
type Key interface {
	String() string
}

// KeyPrefix is implemented by prefix keys. A prefix key's string is a true
// string-prefix of every full key it matches and of no other key.
type KeyPrefix interface {
	Prefix() string
}

// PropertyKey identifies one entry in the properties collection.
type PropertyKey struct {
	name       string
	normalized string
}

func NewPropertyKey(name string) PropertyKey {
	return PropertyKey{name: name, normalized: normalizeIdent(name)}
}

func (k PropertyKey) String() string { return k.normalized }
func (k PropertyKey) Name() string   { return k.name }

// ColumnKey identifies one custom column, "db.table.column" normalized.
type ColumnKey struct {
	db, table, column string
	normalized        string
}

func NewColumnKey(db, table, column string) ColumnKey {
	return ColumnKey{
		db:     db,
		table:  table,
		column: column,
		normalized: normalizeIdent(db) + "." + normalizeIdent(table) + "." +
			normalizeIdent(column),
	}
}

func (k ColumnKey) String() string { return k.normalized }
func (k ColumnKey) DB() string     { return k.db }
func (k ColumnKey) Table() string  { return k.table }
func (k ColumnKey) Column() string { return k.column }

// ColumnKeyPrefix matches every custom column of one table.
type ColumnKeyPrefix struct {
	db, table  string
	normalized string
}

func NewColumnKeyPrefix(db, table string) ColumnKeyPrefix {
	return ColumnKeyPrefix{
		db:         db,
		table:      table,
		normalized: normalizeIdent(db) + "." + normalizeIdent(table) + ".",
	}
}

func (k ColumnKeyPrefix) Prefix() string { return k.normalized }

// ExtensionKey identifies one entry in the extensions collection. Installed
// extensions are unique by name, so the version is entry data, not key.
type ExtensionKey struct {
	name       string
	normalized string
}

func NewExtensionKey(name string) ExtensionKey {
	return ExtensionKey{name: name, normalized: normalizeIdent(name)}
}

func (k ExtensionKey) String() string { return k.normalized }
func (k ExtensionKey) Name() string   { return k.name }

// ExtensionDescriptorKey identifies one loaded extension, "name.version"
// normalized. Descriptors are versioned because multiple versions may be in
// flight across an upgrade.
type ExtensionDescriptorKey struct {
	name, version string
	normalized    string
}

func NewExtensionDescriptorKey(name, version string) ExtensionDescriptorKey {
	return ExtensionDescriptorKey{
		name:       name,
		version:    version,
		normalized: normalizeIdent(name) + "." + normalizeIdent(version),
	}
}

func (k ExtensionDescriptorKey) String() string  { return k.normalized }
func (k ExtensionDescriptorKey) Name() string    { return k.name }
func (k ExtensionDescriptorKey) Version() string { return k.version }

// TypeDescriptorKey identifies one custom type, "type.ext.version"
// normalized.
type TypeDescriptorKey struct {
	typeName, extName, extVersion string
	normalized                    string
}

func NewTypeDescriptorKey(typeName, extName, extVersion string) TypeDescriptorKey {
	return TypeDescriptorKey{
		typeName:   typeName,
		extName:    extName,
		extVersion: extVersion,
		normalized: normalizeIdent(typeName) + "." + normalizeIdent(extName) +
			"." + normalizeIdent(extVersion),
	}
}

func (k TypeDescriptorKey) String() string           { return k.normalized }
func (k TypeDescriptorKey) TypeName() string         { return k.typeName }
func (k TypeDescriptorKey) ExtensionName() string    { return k.extName }
func (k TypeDescriptorKey) ExtensionVersion() string { return k.extVersion }

// TypeDescriptorKeyPrefix matches type descriptors by type name, and
// optionally by extension name as well.
type TypeDescriptorKeyPrefix struct {
	typeName, extName string
	normalized        string
}

func NewTypeDescriptorKeyPrefix(typeName string) TypeDescriptorKeyPrefix {
	return TypeDescriptorKeyPrefix{
		typeName:   typeName,
		normalized: normalizeIdent(typeName) + ".",
	}
}

func NewTypeDescriptorKeyPrefixExt(typeName, extName string) TypeDescriptorKeyPrefix {
	p := NewTypeDescriptorKeyPrefix(typeName)
	if extName != "" {
		p.extName = extName
		p.normalized += normalizeIdent(extName) + "."
	}
	return p
}

func (k TypeDescriptorKeyPrefix) Prefix() string { return k.normalized }

// TypeContextKey identifies one parameterized instantiation of a type: the
// descriptor key, plus ".params" when parameters are present.
type TypeContextKey struct {
	descKey    TypeDescriptorKey
	params     TypeParameters
	normalized string
}

func NewTypeContextKey(descKey TypeDescriptorKey, params TypeParameters) TypeContextKey {
	k := TypeContextKey{descKey: descKey, params: params}
	if params.Empty() {
		k.normalized = descKey.String()
	} else {
		k.normalized = descKey.String() + "." + params.String()
	}
	return k
}

func (k TypeContextKey) String() string                   { return k.normalized }
func (k TypeContextKey) DescriptorKey() TypeDescriptorKey { return k.descKey }
func (k TypeContextKey) Parameters() TypeParameters       { return k.params }
