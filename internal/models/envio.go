package models

import (
	"time"

	"github.com/google/uuid"
)

// Envio statuses
const (
	EnvioActive     = "ACTIVO"
	EnvioReassigned = "REASIGNADO"
	EnvioCancelled  = "CANCELADO"
)

// ValidEnvioStatus reports whether status is one of the known assignment statuses.
func ValidEnvioStatus(status string) bool {
	switch status {
	case EnvioActive, EnvioReassigned, EnvioCancelled:
		return true
	}
	return false
}

// Envio is a SIM assignment: one ICCID attributed to one distributor at a point in time.
type Envio struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	ICCID              string     `json:"iccid" db:"iccid"`
	DistribuidorID     *uuid.UUID `json:"distribuidor_id" db:"distribuidor_id"`
	CodigoBT           string     `json:"codigo_bt" db:"codigo_bt"`
	NombreDistribuidor string     `json:"nombre_distribuidor" db:"nombre_distribuidor"`
	FechaEnvio         time.Time  `json:"fecha_envio" db:"fecha_envio"`
	Estatus            string     `json:"estatus" db:"estatus"`
	Observaciones      *string    `json:"observaciones" db:"observaciones"`
	UsuarioCaptura     string     `json:"usuario_captura" db:"usuario_captura"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// EnvioFilter narrows envío searches. Zero values mean "no filter".
type EnvioFilter struct {
	ICCID    string     `json:"iccid"`
	CodigoBT string     `json:"codigo_bt"`
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`
	Estatus  string     `json:"estatus"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// ActiveCandidates splits a pasted ICCID list by what the store holds for each ICCID.
type ActiveCandidates struct {
	Active   []*Envio `json:"active"`
	Inactive []*Envio `json:"inactive"`
	NotFound []string `json:"not_found"`
}

// EnvioHistory is the full trail of an ICCID: every assignment row plus reassignment entries.
type EnvioHistory struct {
	ICCID   string             `json:"iccid"`
	Envios  []*Envio           `json:"envios"`
	Cambios []*HistorialCambio `json:"cambios"`
}
