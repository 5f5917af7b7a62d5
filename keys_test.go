package victionary

import (
	"strings"
	"testing"
)

func TestKeyNormalization(t *testing.T) {
	t.Run("case collapses", func(t *testing.T) {
		a := NewTypeDescriptorKey("Point", "Geo", "1.2.0")
		b := NewTypeDescriptorKey("point", "GEO", "1.2.0")
		if a.String() != b.String() {
			t.Errorf("%q != %q", a.String(), b.String())
		}
	})
	t.Run("originals preserved", func(t *testing.T) {
		k := NewTypeDescriptorKey("Point", "Geo", "1.2.0")
		if k.TypeName() != "Point" || k.ExtensionName() != "Geo" {
			t.Errorf("originals lost: %q %q", k.TypeName(), k.ExtensionName())
		}
		if k.String() != "point.geo.1.2.0" {
			t.Errorf("normalized = %q", k.String())
		}
	})
	t.Run("extension descriptor key", func(t *testing.T) {
		k := NewExtensionDescriptorKey("Geo", "1.2.0")
		if k.String() != "geo.1.2.0" {
			t.Errorf("normalized = %q", k.String())
		}
	})
	t.Run("column key", func(t *testing.T) {
		k := NewColumnKey("Shop", "Orders", "Location")
		if k.String() != "shop.orders.location" {
			t.Errorf("normalized = %q", k.String())
		}
	})
}

func TestKeyPrefixes(t *testing.T) {
	t.Run("column prefix matches table columns", func(t *testing.T) {
		p := NewColumnKeyPrefix("shop", "Orders")
		match := NewColumnKey("Shop", "orders", "location")
		other := NewColumnKey("shop", "orders_old", "location")
		if !strings.HasPrefix(match.String(), p.Prefix()) {
			t.Errorf("%q does not start with %q", match.String(), p.Prefix())
		}
		if strings.HasPrefix(other.String(), p.Prefix()) {
			t.Errorf("%q wrongly matches %q", other.String(), p.Prefix())
		}
	})
	t.Run("type prefix by name", func(t *testing.T) {
		p := NewTypeDescriptorKeyPrefix("point")
		match := NewTypeDescriptorKey("Point", "geo", "1.0.0")
		other := NewTypeDescriptorKey("pointcloud", "geo", "1.0.0")
		if !strings.HasPrefix(match.String(), p.Prefix()) {
			t.Errorf("%q does not start with %q", match.String(), p.Prefix())
		}
		if strings.HasPrefix(other.String(), p.Prefix()) {
			t.Errorf("%q wrongly matches %q", other.String(), p.Prefix())
		}
	})
	t.Run("type prefix by name and extension", func(t *testing.T) {
		p := NewTypeDescriptorKeyPrefixExt("point", "geo")
		match := NewTypeDescriptorKey("point", "GEO", "2.0.0")
		other := NewTypeDescriptorKey("point", "geometry", "2.0.0")
		if !strings.HasPrefix(match.String(), p.Prefix()) {
			t.Errorf("%q does not start with %q", match.String(), p.Prefix())
		}
		if strings.HasPrefix(other.String(), p.Prefix()) {
			t.Errorf("%q wrongly matches %q", other.String(), p.Prefix())
		}
	})
}

func TestTypeContextKey(t *testing.T) {
	desc := NewTypeDescriptorKey("point", "geo", "1.0.0")

	t.Run("no parameters", func(t *testing.T) {
		k := NewTypeContextKey(desc, TypeParameters{})
		if k.String() != desc.String() {
			t.Errorf("got %q, want %q", k.String(), desc.String())
		}
	})
	t.Run("with parameters", func(t *testing.T) {
		params := NewTypeParameters(map[string]string{"srid": "4326", "dims": "2"})
		k := NewTypeContextKey(desc, params)
		want := desc.String() + ".dims=2;srid=4326"
		if k.String() != want {
			t.Errorf("got %q, want %q", k.String(), want)
		}
	})
}

func TestTypeParameters(t *testing.T) {
	t.Run("sorted regardless of assembly order", func(t *testing.T) {
		a := NewTypeParameters(nil).With("b", "2").With("a", "1").With("c", "3")
		b := NewTypeParameters(map[string]string{"c": "3", "a": "1", "b": "2"})
		if a.String() != "a=1;b=2;c=3" {
			t.Errorf("a = %q", a.String())
		}
		if a.String() != b.String() {
			t.Errorf("%q != %q", a.String(), b.String())
		}
		if !a.Equal(b) {
			t.Errorf("Equal = false")
		}
	})
	t.Run("empty renders empty", func(t *testing.T) {
		if s := NewTypeParameters(nil).String(); s != "" {
			t.Errorf("got %q", s)
		}
	})
	t.Run("with replaces", func(t *testing.T) {
		p := NewTypeParameters(map[string]string{"srid": "4326"})
		q := p.With("srid", "3857")
		if v, _ := q.Get("srid"); v != "3857" {
			t.Errorf("got %q", v)
		}
		if v, _ := p.Get("srid"); v != "4326" {
			t.Errorf("original mutated: %q", v)
		}
	})
}
