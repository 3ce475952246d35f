package models

import (
	"time"

	"github.com/google/uuid"
)

// Change types recorded in historial_cambios
const (
	ChangeReassignment = "REASIGNACION"
)

// HistorialCambio is an append-only record of a reassignment.
type HistorialCambio struct {
	ID                     uuid.UUID  `json:"id" db:"id"`
	EnvioID                uuid.UUID  `json:"envio_id" db:"envio_id"`
	TipoCambio             string     `json:"tipo_cambio" db:"tipo_cambio"`
	DistribuidorAnteriorID *uuid.UUID `json:"distribuidor_anterior_id" db:"distribuidor_anterior_id"`
	DistribuidorNuevoID    *uuid.UUID `json:"distribuidor_nuevo_id" db:"distribuidor_nuevo_id"`
	CodigoBTAnterior       string     `json:"codigo_bt_anterior" db:"codigo_bt_anterior"`
	CodigoBTNuevo          string     `json:"codigo_bt_nuevo" db:"codigo_bt_nuevo"`
	Motivo                 string     `json:"motivo" db:"motivo"`
	Usuario                string     `json:"usuario" db:"usuario"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
}
