package models

import (
	"time"

	"github.com/google/uuid"
)

// Distributor statuses
const (
	DistributorActive    = "ACTIVO"
	DistributorSuspended = "SUSPENDIDO"
	DistributorRetired   = "BAJA"
)

// ValidDistributorStatus reports whether status is one of the known distributor statuses.
func ValidDistributorStatus(status string) bool {
	switch status {
	case DistributorActive, DistributorSuspended, DistributorRetired:
		return true
	}
	return false
}

type Distributor struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	CodigoBT          string     `json:"codigo_bt" db:"codigo_bt"`
	Nombre            string     `json:"nombre" db:"nombre"`
	Plaza             string     `json:"plaza" db:"plaza"`
	Telefono          *string    `json:"telefono" db:"telefono"`
	Email             *string    `json:"email" db:"email"`
	Estatus           string     `json:"estatus" db:"estatus"`
	FechaAlta         time.Time  `json:"fecha_alta" db:"fecha_alta"`
	FechaModificacion *time.Time `json:"fecha_modificacion" db:"fecha_modificacion"`
}

// Snapshot returns the denormalized copy stored alongside assignments.
func (d *Distributor) Snapshot() DistributorSnapshot {
	return DistributorSnapshot{
		ID:       d.ID,
		CodigoBT: d.CodigoBT,
		Nombre:   d.Nombre,
	}
}

// DistributorSnapshot is the point-in-time distributor attribution copied onto an envío.
type DistributorSnapshot struct {
	ID       uuid.UUID `json:"distribuidor_id"`
	CodigoBT string    `json:"codigo_bt"`
	Nombre   string    `json:"nombre_distribuidor"`
}

// DistributorInput carries the fields accepted when registering a distributor.
type DistributorInput struct {
	CodigoBT string  `json:"codigo_bt"`
	Nombre   string  `json:"nombre"`
	Plaza    string  `json:"plaza"`
	Telefono *string `json:"telefono"`
	Email    *string `json:"email"`
	Estatus  string  `json:"estatus"`
}

// DistributorPatch is a partial update. Nil fields are left untouched; an empty
// Telefono or Email clears the stored value.
type DistributorPatch struct {
	CodigoBT *string `json:"codigo_bt"`
	Nombre   *string `json:"nombre"`
	Plaza    *string `json:"plaza"`
	Telefono *string `json:"telefono"`
	Email    *string `json:"email"`
	Estatus  *string `json:"estatus"`
}

// Empty reports whether the patch sets no field at all.
func (p *DistributorPatch) Empty() bool {
	return p.CodigoBT == nil && p.Nombre == nil && p.Plaza == nil &&
		p.Telefono == nil && p.Email == nil && p.Estatus == nil
}

// DistributorStats holds directory counts by status.
type DistributorStats struct {
	Total       int `json:"total"`
	Activos     int `json:"activos"`
	Baja        int `json:"baja"`
	Suspendidos int `json:"suspendidos"`
}
