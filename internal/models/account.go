// Package models defines core data structures for accounts, documents, and search outcomes.
package models

import "strings"

// Permission names stored in an account's permisos map.
const (
	PermAdminUsers       = "admin_usuarios"
	PermAdminElastic     = "admin_elastic"
	PermAdminDataElastic = "admin_data_elastic"
	PermLogin            = "login"
)

// DefaultRole is assigned when an account has no role.
const DefaultRole = "Usuario"

// PermissionNames lists every known permission flag in display order.
var PermissionNames = []string{PermAdminUsers, PermAdminElastic, PermAdminDataElastic, PermLogin}

// Permissions maps a capability name to whether it is granted.
type Permissions map[string]bool

// Has reports whether the named capability is granted.
func (p Permissions) Has(name string) bool {
	return p[name]
}

// Account is a stored user with role and permission flags.
type Account struct {
	Username    string      `json:"usuario" bson:"usuario"`
	Password    string      `json:"-" bson:"password"`
	Role        string      `json:"rol" bson:"rol"`
	Permissions Permissions `json:"permisos" bson:"permisos"`
}

// AccountInput is the payload for creating or updating an account.
// Permissions values may be booleans, strings ("on", "true", "1") or numbers;
// they are coerced by NormalizePermissions.
type AccountInput struct {
	Username    string         `json:"usuario"`
	Password    string         `json:"password"`
	Role        string         `json:"rol"`
	Permissions map[string]any `json:"permisos"`
}

// NormalizePermissions coerces raw flag values to booleans and fills unset
// known flags with their defaults (login=true, everything else false).
func NormalizePermissions(raw map[string]any) Permissions {
	out := Permissions{
		PermAdminUsers:       false,
		PermAdminElastic:     false,
		PermAdminDataElastic: false,
		PermLogin:            true,
	}
	for k, v := range raw {
		out[k] = coerceBool(v)
	}
	return out
}

func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "on", "yes", "si", "sí":
			return true
		}
		return false
	case float64:
		return t != 0
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case nil:
		return false
	default:
		return true
	}
}

// Normalize returns a copy with role defaulted and permissions guaranteed non-nil.
func (a Account) Normalize() Account {
	if a.Role == "" {
		a.Role = DefaultRole
	}
	if a.Permissions == nil {
		a.Permissions = Permissions{}
	}
	return a
}
