package victionary

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Persisted row formats of the replicable collections. Rows carry the
// original component spellings so a reload rebuilds the same display names;
// the physical row key is the normalized key string.

type propertyRow struct {
	Name        string `msgpack:"n"`
	Value       string `msgpack:"v"`
	Description string `msgpack:"d"`
}

type columnRow struct {
	DB         string `msgpack:"db"`
	Table      string `msgpack:"tbl"`
	Column     string `msgpack:"col"`
	ExtName    string `msgpack:"en"`
	ExtVersion string `msgpack:"ev"`
	TypeName   string `msgpack:"tn"`
}

type extensionRow struct {
	Name    string `msgpack:"n"`
	Version string `msgpack:"v"`
	SHA256  string `msgpack:"sha"`
}

func encodePropertyRow(e *PropertyEntry) ([]byte, error) {
	return msgpack.Marshal(&propertyRow{
		Name:        e.Name(),
		Value:       e.Value,
		Description: e.Description,
	})
}

func decodePropertyRow(data []byte) (*PropertyEntry, error) {
	var row propertyRow
	if err := msgpack.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("property row: %w", err)
	}
	return NewPropertyEntry(NewPropertyKey(row.Name), row.Value, row.Description), nil
}

func encodeColumnRow(e *ColumnEntry) ([]byte, error) {
	return msgpack.Marshal(&columnRow{
		DB:         e.DB(),
		Table:      e.Table(),
		Column:     e.Column(),
		ExtName:    e.ExtensionName,
		ExtVersion: e.ExtensionVersion,
		TypeName:   e.TypeName,
	})
}

func decodeColumnRow(data []byte) (*ColumnEntry, error) {
	var row columnRow
	if err := msgpack.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("column row: %w", err)
	}
	key := NewColumnKey(row.DB, row.Table, row.Column)
	return NewColumnEntry(key, row.ExtName, row.ExtVersion, row.TypeName), nil
}

func encodeExtensionRow(e *ExtensionEntry) ([]byte, error) {
	return msgpack.Marshal(&extensionRow{
		Name:    e.Name(),
		Version: e.Version,
		SHA256:  e.BundleSHA256,
	})
}

func decodeExtensionRow(data []byte) (*ExtensionEntry, error) {
	var row extensionRow
	if err := msgpack.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("extension row: %w", err)
	}
	return NewExtensionEntry(NewExtensionKey(row.Name), row.Version, row.SHA256), nil
}
