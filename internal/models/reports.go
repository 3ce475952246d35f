package models

import (
	"time"
)

// EnvioStats holds assignment counts by status
type EnvioStats struct {
	Total       int `json:"total"`
	Activos     int `json:"activos"`
	Reasignados int `json:"reasignados"`
	Cancelados  int `json:"cancelados"`
}

// DailyCount is the number of assignments dated on one day
type DailyCount struct {
	Fecha    time.Time `json:"fecha"`
	Cantidad int       `json:"cantidad"`
}

// DistributorCount is the number of assignments attributed to one distributor code
type DistributorCount struct {
	CodigoBT           string `json:"codigo_bt"`
	NombreDistribuidor string `json:"nombre_distribuidor"`
	Total              int    `json:"total"`
}

// Dashboard is the general operations overview
type Dashboard struct {
	Envios                EnvioStats         `json:"envios"`
	DistribuidoresActivos int                `json:"distribuidores_activos"`
	Asignaciones30Dias    int                `json:"asignaciones_30_dias"`
	ActividadDiaria       []DailyCount       `json:"actividad_diaria"`
	TopDistribuidores     []DistributorCount `json:"top_distribuidores"`
	GeneratedAt           time.Time          `json:"generated_at"`
}

// MonthCount is the number of assignments in one month
type MonthCount struct {
	Mes      int    `json:"mes"`
	Nombre   string `json:"nombre"`
	Cantidad int    `json:"cantidad"`
}

// MonthlySupply is the month-by-month supply report for a year
type MonthlySupply struct {
	Year           int          `json:"year"`
	CodigoBT       string       `json:"codigo_bt,omitempty"`
	Meses          []MonthCount `json:"meses"`
	Total          int          `json:"total"`
	PromedioMes    float64      `json:"promedio_mes"`
	MesMaximo      *MonthCount  `json:"mes_maximo,omitempty"`
	Distribuidores int          `json:"distribuidores"`
}

// PeriodAnalysis summarizes assignments dated within a range
type PeriodAnalysis struct {
	From              time.Time          `json:"from"`
	To                time.Time          `json:"to"`
	Total             int                `json:"total"`
	Activas           int                `json:"activas"`
	Distribuidores    int                `json:"distribuidores"`
	PromedioDia       float64            `json:"promedio_dia"`
	Diario            []DailyCount       `json:"diario"`
	TopDistribuidores []DistributorCount `json:"top_distribuidores"`
}
