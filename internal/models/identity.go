package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Role enumerates the portal roles issued by the thesis backend.
type Role string

const (
	RoleAdmin    Role = "ADMINISTRADOR"
	RoleDirector Role = "DIRECTOR"
	RoleStudent  Role = "ESTUDIANTE"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDirector, RoleStudent:
		return true
	default:
		return false
	}
}

// Identity is the authenticated user as returned by the backend login.
type Identity struct {
	Cedula         string  `json:"cedula"`
	Nombre         string  `json:"nombre"`
	Rol            Role    `json:"rol"`
	EsAdminGeneral bool    `json:"esAdminGeneral"`
	ComiteNombre   *string `json:"comiteNombre"`
	ProgramaCodigo *string `json:"programaCodigo"`
}

// Normalize drops the committee scope from general administrators, which
// only exists for committee-scoped administrators.
func (i *Identity) Normalize() {
	if i == nil {
		return
	}
	if i.Rol == RoleAdmin && i.EsAdminGeneral {
		i.ComiteNombre = nil
		i.ProgramaCodigo = nil
	}
	if i.Rol != RoleAdmin {
		i.EsAdminGeneral = false
		i.ComiteNombre = nil
	}
}

// Value marshals the identity for JSONB persistence.
func (i Identity) Value() (driver.Value, error) {
	data, err := json.Marshal(i)
	if err != nil {
		return nil, fmt.Errorf("marshal identity: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB identity column.
func (i *Identity) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*i = Identity{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for Identity", value)
	}
	if err := json.Unmarshal(data, i); err != nil {
		return fmt.Errorf("unmarshal identity: %w", err)
	}
	return nil
}

// Session binds one identity to one browser session.
type Session struct {
	ID        string    `db:"id" json:"id"`
	Cedula    string    `db:"cedula" json:"cedula"`
	Identity  Identity  `db:"identity" json:"identity"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// AdminInfo describes the program scope of an administrator.
type AdminInfo struct {
	Cedula         string  `json:"cedula"`
	Nombre         string  `json:"nombre"`
	EsAdminGeneral bool    `json:"esAdminGeneral"`
	ComiteNombre   *string `json:"comiteNombre"`
	ProgramaCodigo *string `json:"programaCodigo"`
}
