package models

import (
	"encoding/json"
	"testing"
)

func TestNormalizePermissions_defaults(t *testing.T) {
	got := NormalizePermissions(nil)
	if !got.Has(PermLogin) {
		t.Error("login should default to true")
	}
	for _, name := range []string{PermAdminUsers, PermAdminElastic, PermAdminDataElastic} {
		if got.Has(name) {
			t.Errorf("%s should default to false", name)
		}
	}
}

func TestNormalizePermissions_coercion(t *testing.T) {
	got := NormalizePermissions(map[string]any{
		PermAdminUsers:       "on",
		PermAdminElastic:     float64(1),
		PermAdminDataElastic: "false",
		PermLogin:            false,
	})
	if !got[PermAdminUsers] || !got[PermAdminElastic] {
		t.Errorf("truthy values not coerced: %v", got)
	}
	if got[PermAdminDataElastic] || got[PermLogin] {
		t.Errorf("falsy values not coerced: %v", got)
	}
}

func TestAccount_Normalize(t *testing.T) {
	a := Account{Username: "ana"}.Normalize()
	if a.Role != DefaultRole {
		t.Errorf("role = %q", a.Role)
	}
	if a.Permissions == nil {
		t.Error("permissions should not be nil")
	}
}

func TestDocument_IDAndSource(t *testing.T) {
	tests := []struct {
		doc  Document
		want string
	}{
		{Document{"id": "abc"}, "abc"},
		{Document{"_id": "x1", "a": 1}, "x1"},
		{Document{"id": float64(7)}, "7"},
		{Document{"id": float64(1234567)}, "1234567"},
		{Document{"id": json.Number("20250001")}, "20250001"},
		{Document{"id": 42}, "42"},
		{Document{"id": ""}, ""},
		{Document{"a": 1}, ""},
	}
	for _, tt := range tests {
		if got := tt.doc.ID(); got != tt.want {
			t.Errorf("ID(%v) = %q, want %q", tt.doc, got, tt.want)
		}
	}
	src := Document{"_id": "x1", "a": 1}.Source()
	if _, ok := src["_id"]; ok {
		t.Error("_id should be stripped from source")
	}
	if src["a"] != 1 {
		t.Errorf("source lost fields: %v", src)
	}
}
